// Package translation translates drill sentences that come without a
// stored translation using the OpenAI chat API. Results are kept in a
// concurrency safe in-memory cache for the lifetime of a session.
package translation
