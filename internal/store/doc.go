// Package store provides SQLite-backed durable storage for trips:
// the trip record with its evaluation context, the message archive,
// the scheduled-action queue, and an append-only op log.
//
// Applying a kernel result is one transaction: fold the result's ops
// into the stored context, insert messages and scheduled actions, and
// append every op to the log. Either the whole result lands or none
// of it does, so a crash between evaluation and apply loses the pass
// rather than splitting it.
//
// The database runs in WAL mode with a single writer connection;
// per-trip serialization of evaluation passes follows from that.
package store
