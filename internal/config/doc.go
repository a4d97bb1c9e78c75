// Package config loads squadboard's settings.
//
// # Resolution Order
//
//  1. Built-in defaults
//  2. The TOML file at the given path, or ~/.config/squadboard/config.toml
//  3. SQUADBOARD_* environment variables (a .env file in the working
//     directory is loaded first and never replaces variables already set)
//
// A missing config file is not an error. Empty values in the file keep the
// default.
//
// # Configuration Fields
//
//	server          = "127.0.0.1:8000"   # host:port or URL of the pipeline server
//	reconnect_delay = "3s"               # pause between event stream attempts
//	search_debounce = "350ms"            # quiet period before a catalog search fires
//	log_file        = "~/.local/state/squadboard/squadboard.log"
//	log_level       = "info"
//	outputs_prefix  = "/outputs/"        # where the server publishes artifacts
//
// Environment overrides:
//
//   - SQUADBOARD_SERVER
//   - SQUADBOARD_LOG_LEVEL
//   - SQUADBOARD_LOG_FILE
//
// # Path Expansion
//
// Paths may start with ~ and relative paths are made absolute against the
// current directory. This applies to the config file location and log_file.
//
// # Error Handling
//
// Load returns errors for unreadable files, malformed TOML and durations
// that do not parse or are not positive.
package config
