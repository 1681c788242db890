// Package tui is the terminal front end of a drill session. It renders the
// sentence with one text field per blank and forwards keystrokes to the
// session controller.
package tui
