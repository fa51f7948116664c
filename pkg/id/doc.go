// Package id provides a 96-bit, lexicographically sortable run
// identifier.
//
// # Format
//
// The ID is 12 bytes big-endian: [8 bytes ms_timestamp][4 bytes
// random]. Byte-wise comparison therefore preserves chronological
// order across runs, and the random suffix keeps two runs started in
// the same millisecond distinct.
//
// A broker mints one RunID when it opens and reports it from its
// health and stats endpoints; a client that sees the value change
// knows the broker restarted and its queue state was lost.
//
// Usage
//
//	r := id.NewRunID()
//	s := r.String()          // 24-char hex
//	r2, err := id.ParseRunID(s)
package id
