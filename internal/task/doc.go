// Package task holds the exercise data model and the task state machine.
// Transitions are pure functions: they take a State and return the next
// State, leaving the caller to decide what to render or send.
package task
