// Package archive keeps timestamped copies of the drill database so the
// learning state survives an import that replaces the word list.
package archive
