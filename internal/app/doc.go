// Package app provides the orchestration layer for squadboard.
//
// # Overview
//
// This package wires together configuration, logging, the pipeline client,
// the event stream and the UI. It is the composition root where all
// dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load config from ~/.config/squadboard/config.toml (plus .env and env)
//  2. Open the JSON log file
//  3. Build the pipeline REST client
//  4. Create the session that owns all job state
//  5. Start the stream manager and the Bubble Tea program in one errgroup
//  6. Block until the user quits or the context is cancelled
//
// # Components
//
//   - app.go: Setup, Env and the TUI Run function
//   - sink.go: Adapters from the stream manager to the program and the watch loop
//   - watch.go: Headless event log driven by the same session reducer
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config and env overrides
//	       ├─────> logging.New()        JSON log file
//	       ├─────> banana.NewClient()   REST client
//	       ├─────> ui.NewProgram()      Bubble Tea program
//	       └─────> errgroup
//	               ├─> stream.Manager.Run()  push events → Program.Send
//	               └─> Program.Run()         update loop owns the session
//
// Push events and REST results all become messages on the program's update
// loop, so the session is never touched concurrently. Quitting the program
// cancels the stream manager.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Config file unreadable or invalid
//   - Log file cannot be opened
//   - Server address cannot be parsed
//
// Recoverable errors (logged, shown in the UI):
//   - Stream connection loss, retried every reconnect_delay
//   - Catalog and detail request failures
//   - Submission and refinement failures
//
// The dashboard starts even when the pipeline server is down; the header
// shows the connection state until the stream connects.
package app
