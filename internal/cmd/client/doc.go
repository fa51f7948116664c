// Package client provides the `chute queue` command group.
//
// The commands talk to a running broker's HTTP endpoint to perform
// ad-hoc queue operations from a terminal. They are primarily
// intended for development and for poking at a pipeline started with
// `chute run`.
//
// # Address configuration
//
// The broker base URL resolves like every other setting: built-in
// default (http://127.0.0.1:7381), then the JSON config file, then
// CHUTE_ENDPOINT, then the --endpoint flag.
//
// Usage
//
//	chute queue put --item 7
//	chute queue get --wait-ms 1000
//	chute queue size
//	chute queue stats
//	chute queue close
//
// Notes
//
//   - get performs a single long-poll window and prints "empty" when
//     it elapses without an item; it does not re-poll.
//   - close is idempotent. After close, get keeps draining the
//     backlog and fails with the broker's closed status only once the
//     queue is empty.
package client
