// Package history keeps the conversation log that feeds context back into
// chat requests.
//
// The log is a flat file with one JSON turn per line, each followed by a
// trailing comma:
//
//	{"role":"user","content":"hi"},
//	{"role":"assistant","content":"hello"},
//
// A Store owns the file through a single goroutine. Every read and write is
// sent to that goroutine, and writes additionally take an advisory lock on
// "<path>.lock" so that separate processes sharing a file cannot interleave
// lines. The log only grows; nothing is truncated or compacted.
package history
