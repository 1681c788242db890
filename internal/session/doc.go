// Package session ties the exercise state machine to the backend task
// service and the audio load coordinator. A Controller is the single entry
// point a user interface drives.
package session
