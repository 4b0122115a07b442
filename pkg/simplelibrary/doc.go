// Package simplelibrary provides a reusable library for managing books whose
// binary assets (a cover image and a document file) live in a remote object
// store while their metadata lives in a pluggable repository.
//
// It exposes a single Service interface that orchestrates the book lifecycle:
// staging uploaded bytes locally, promoting them to the remote store,
// persisting metadata that references the resulting locators, and tearing
// everything down again on delete. The three systems involved (local staging,
// remote store, metadata repository) fail independently; the service sequences
// its calls and issues best-effort compensating destroys so that a failure
// never leaves a metadata record pointing at a missing object. Remote objects
// that could not be compensated are reported as orphaned-asset events rather
// than silently leaked.
//
// Implementations of repositories (memory, Postgres) and blob stores (memory,
// filesystem, S3) are provided under subpackages.
package simplelibrary
