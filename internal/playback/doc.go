// Package playback loads, owns and plays the pronunciation clips of the
// sentence currently on screen. A Coordinator keeps at most one audio load
// outstanding and tags every load with a generation so clips that belong to
// a superseded sentence are dropped instead of played.
package playback
