// Package backend implements the task service behind a drill session. It
// picks review sentences by word weight, applies review results to the
// stored words and streams sentence audio from an audio provider.
package backend
