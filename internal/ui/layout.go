package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSplitWidth is the minimum width to show the detail pane beside
	// the catalog instead of below it.
	LayoutSplitWidth = 140
)

// Pane sizes.
const (
	// AgentLogRows is the number of agent log lines shown under the pipeline.
	AgentLogRows = 8

	// MinCatalogRows keeps the catalog usable on short terminals.
	MinCatalogRows = 5
)

// Timing constants.
const (
	// ClockInterval refreshes relative timestamps in the header and table.
	ClockInterval = time.Second

	// RequestTimeout bounds catalog and detail requests made from the UI.
	RequestTimeout = 15 * time.Second

	// UploadTimeout bounds submissions carrying attachments.
	UploadTimeout = 90 * time.Second
)
