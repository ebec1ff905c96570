// Package storage persists event records between runs.
//
// The engine only needs a mapping that survives process restarts; both
// backends load the whole record set at the start of a run and write it
// back at the end.
package storage
