// Package store provides SQLite-backed durable storage for letters.
//
// The store holds at most one letter per participant, enforced by the
// participant_id primary key. Upsert replaces the whole row via
// ON CONFLICT DO UPDATE, so a resubmission atomically discards the previous
// letter - readers never observe a partial overwrite.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Concurrent upserts for the same participant are serialized by the single
// writer connection; last write wins, which is correct because every write
// replaces the record wholesale.
package store
