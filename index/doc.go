// Package index builds the content-addressed chunk index.
//
// A document is identified by the hash of its normalized text. Indexing
// the same text twice, from any path and under any source type, returns the
// same hash without re-chunking or re-embedding. New documents are split
// into overlapping word windows, embedded in batches on a worker pool, and
// written to the repository in a single insert-if-absent transaction.
//
// Scan and Watcher feed files from disk into a DocumentIndex.
package index
