// Package store persists words, sentences, translations, recording ids
// and the review log in a SQLite database.
package store
