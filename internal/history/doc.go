// Package history keeps an append-only SQLite log of build events and
// projects it into per-build summaries for `docshell history`.
package history
