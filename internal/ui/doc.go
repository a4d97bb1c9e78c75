// Package ui provides the terminal dashboard for squadboard.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model wraps a state.Session and is the
// only code that mutates it: push events arrive as EventMsg and ConnMsg
// through Program.Send, and every REST response comes back as a message
// produced by a command. Session methods return effects (detail fetches,
// catalog loads) which runEffects turns into commands, so no request ever
// touches the session from another goroutine.
//
// # Layout
//
//   - Header: stream state, server, job count and catalog freshness
//   - Pipeline: stage chips of the tracked job
//   - Search bar: search input, sort key and catalog loading state
//   - Catalog: server-ordered jobs with provisional jobs on top
//   - Detail: the expanded job, beside the catalog on wide terminals
//   - Agent log: the most recent agent messages
//
// The new-job form and the help overlay render as centered modals.
//
// # Key Bindings
//
//   - j/k, g/G: Move the catalog selection
//   - enter: Expand or collapse the selected job
//   - /: Search prompts (debounced)
//   - s: Cycle sort key
//   - r: Reload the catalog
//   - R: Refetch the expanded job
//   - [ and ]: Move the variant cursor
//   - f: Refine the selected variant
//   - n: New job
//   - T: Cycle theme
//   - ?: Toggle help
//   - q or ctrl+c: Exit
package ui
