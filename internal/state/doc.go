// Package state holds the dashboard's client-side view of image jobs and
// reconciles the two sources that feed it: the push event stream and the
// catalog/detail REST API.
//
// # Overview
//
// A Session owns four structures:
//
//   - JobStore: job id → Job (a JobSummary plus client bookkeeping)
//   - DetailCache: job id → detail entry with a small state machine
//   - AgentLog: bounded ring of recent agent messages
//   - Catalog: search text, sort key and the server's ordering
//
// None of them lock. The Session is mutated from exactly one goroutine (the
// Bubble Tea update loop, or the headless watch loop), and I/O is never
// performed inside it. Methods return Effects describing the requests the
// caller must issue; responses come back through ResolveDetail and
// ApplyCatalog.
//
// # Event Routing
//
// Session.Apply implements the router:
//
//	job_started      overwrite job at stage research, track it, clear log, invalidate
//	stage_changed    move stage forward (monotonic, terminal stages stick)
//	agent_message    append to the agent log
//	image_generated  invalidate
//	variant_scored   invalidate
//	image_refined    invalidate, log, refetch if expanded
//	job_completed    stage complete, invalidate, refetch if expanded
//	job_failed       stage failed, log reason, invalidate
//
// Unknown event types are ignored. An event for an unknown job id inserts a
// placeholder summary first.
//
// # Detail Cache
//
// Entries move through absent → fetching(seq) → present(seq, data).
// Sequence numbers are per job and only grow. A response is applied only
// when the entry is still fetching with the same sequence, so a slower
// earlier fetch can never overwrite newer data. Invalidation deletes the
// entry, which orphans any fetch in flight for it.
//
// Image counts and winners are not derived from push events. They change
// only when the catalog is reloaded.
package state
