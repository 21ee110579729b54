// Package profile holds the network profiles an Enrollee receives.
//
// A Profile is the persisted form of a validated configuration object. The
// engine hands it to a sink exactly once per successful exchange. MemoryStore,
// FileStore (a CBOR file) and SQLStore (SQLite, with provisioning history)
// are ready-made sinks. Secrets stored here are written
// with owner-only permissions.
package profile
