// Package logtail reads the tail of squadboard's log file and renders its
// zerolog JSON records for the terminal.
//
// # Reading
//
// Read keeps a ring buffer of maxLines while scanning the file once, so
// memory stays O(maxLines) regardless of file size:
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//
// Lines longer than 1MB fail the scan. A missing file is not an error.
//
// # Formatting
//
// Format turns
//
//	{"level":"warn","job_id":"abc","time":"2026-10-15T09:30:05Z","message":"detail fetch failed"}
//
// into
//
//	09:30:05 WAR detail fetch failed job_id=abc
//
// with lipgloss styling on the level and keys when color is requested.
// Lines that are not JSON are returned unchanged.
package logtail
