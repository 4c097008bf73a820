// Package store keeps a SQLite corpus of links and the resolution each one
// produced when it was recorded.
//
// The corpus guards against silent misrouting: after the route table
// changes, Verify re-resolves every recorded URL and reports entries whose
// route or parameters moved.
//
// # Identity
//
// Entry IDs are content addressed (canonical.LinkID over url, route and
// params). Params are stored as RFC 8785 canonical JSON, so two entries with
// the same parameters always have byte-identical params columns.
//
// # Ordering
//
// Listings are ordered by seq, an autoincrement logical clock, then id.
// Wall-clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
package store
