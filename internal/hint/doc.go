// Package hint computes the partial-reveal hint shown after a wrong attempt
// at a blanked-out word. Letters of the attempt are matched greedily and in
// order against the target word; matched letters are highlighted.
package hint
