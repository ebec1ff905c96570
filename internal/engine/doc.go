// Package engine decides which events deserve a notification right now.
//
// It is deliberately pure: "now" is always a parameter, all I/O (fetching
// candidates, persisting records, sending messages) lives at the caller's
// boundary. One invocation is one pass: resolve the active window, diff
// each candidate against its stored record, classify, bucket by category.
package engine
