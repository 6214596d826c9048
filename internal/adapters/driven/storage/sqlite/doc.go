// Package sqlite stores chunks and conversation turns in a single
// docrag.db file using the pure Go modernc.org/sqlite driver.
//
// Search is a brute-force cosine scan over the owner's rows, which keeps
// the store dependency free and is fast enough for a personal document
// set. Deployments with more data should use the qdrant or pgvector
// backends.
//
// The schema lives in schema/NNN_name.sql. NewStore applies the scripts
// numbered above PRAGMA user_version, so a script must never be edited
// once released; add a new one instead.
package sqlite
