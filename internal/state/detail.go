package state

import (
	"time"

	"github.com/five82/squadboard/internal/banana"
)

// EntryState is the lifecycle state of one detail cache entry.
type EntryState int

const (
	EntryAbsent EntryState = iota
	EntryFetching
	EntryPresent
)

func (s EntryState) String() string {
	switch s {
	case EntryFetching:
		return "fetching"
	case EntryPresent:
		return "present"
	default:
		return "absent"
	}
}

// Fetch identifies one detail request. Seq increases monotonically per job.
type Fetch struct {
	JobID string
	Seq   uint64
}

type detailEntry struct {
	state     EntryState
	seq       uint64
	detail    *banana.JobDetail
	fetchedAt time.Time
}

// DetailCache holds job detail documents fetched on demand. Entries are
// dropped, never patched, when a push event says they may be stale. Only the
// response to the most recently issued fetch for a job is accepted.
type DetailCache struct {
	entries map[string]*detailEntry
	issued  map[string]uint64
}

// NewDetailCache returns an empty cache.
func NewDetailCache() *DetailCache {
	return &DetailCache{
		entries: make(map[string]*detailEntry),
		issued:  make(map[string]uint64),
	}
}

// State reports the entry state for a job.
func (c *DetailCache) State(jobID string) EntryState {
	if e, ok := c.entries[jobID]; ok {
		return e.state
	}
	return EntryAbsent
}

// Lookup returns the cached detail when the entry is present.
func (c *DetailCache) Lookup(jobID string) (*banana.JobDetail, bool) {
	e, ok := c.entries[jobID]
	if !ok || e.state != EntryPresent {
		return nil, false
	}
	return e.detail, true
}

// FetchedAt returns when the present entry was resolved.
func (c *DetailCache) FetchedAt(jobID string) time.Time {
	if e, ok := c.entries[jobID]; ok && e.state == EntryPresent {
		return e.fetchedAt
	}
	return time.Time{}
}

// Request asks for the job's detail. It returns the fetch to perform and
// true when a network round trip is needed. A present entry or one already
// being fetched needs none unless force is set; a forced request supersedes
// any fetch in flight.
func (c *DetailCache) Request(jobID string, force bool) (Fetch, bool) {
	e, ok := c.entries[jobID]
	if ok && !force && (e.state == EntryPresent || e.state == EntryFetching) {
		return Fetch{}, false
	}
	seq := c.issued[jobID] + 1
	c.issued[jobID] = seq
	c.entries[jobID] = &detailEntry{state: EntryFetching, seq: seq}
	return Fetch{JobID: jobID, Seq: seq}, true
}

// Resolve records the outcome of a fetch. It returns false when the
// response is stale (superseded or invalidated) and was discarded. A failed
// fetch leaves the entry absent so the next access retries.
func (c *DetailCache) Resolve(f Fetch, detail *banana.JobDetail, err error, at time.Time) bool {
	e, ok := c.entries[f.JobID]
	if !ok || e.state != EntryFetching || e.seq != f.Seq {
		return false
	}
	if err != nil || detail == nil {
		delete(c.entries, f.JobID)
		return true
	}
	e.state = EntryPresent
	e.detail = detail
	e.fetchedAt = at
	return true
}

// Invalidate drops the job's entry and orphans any fetch in flight for it.
// It reports whether an entry existed.
func (c *DetailCache) Invalidate(jobID string) bool {
	if _, ok := c.entries[jobID]; !ok {
		return false
	}
	delete(c.entries, jobID)
	return true
}

// InvalidateAll drops every entry.
func (c *DetailCache) InvalidateAll() {
	for id := range c.entries {
		delete(c.entries, id)
	}
}
