package state

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/squadboard/internal/banana"
)

func TestDetailCache_RequestServesPresentEntryWithoutFetch(t *testing.T) {
	c := NewDetailCache()

	f, need := c.Request("abc", false)
	require.True(t, need)
	assert.Equal(t, EntryFetching, c.State("abc"))

	_, need = c.Request("abc", false)
	assert.False(t, need, "second request while fetching should join the in-flight fetch")

	require.True(t, c.Resolve(f, &banana.JobDetail{JobID: "abc"}, nil, time.Now()))
	assert.Equal(t, EntryPresent, c.State("abc"))

	_, need = c.Request("abc", false)
	assert.False(t, need, "present entry should be served from cache")

	forced, need := c.Request("abc", true)
	assert.True(t, need, "forced request should always fetch")
	assert.Greater(t, forced.Seq, f.Seq)
}

func TestDetailCache_DiscardsSupersededResponse(t *testing.T) {
	c := NewDetailCache()

	first, _ := c.Request("abc", false)
	second, _ := c.Request("abc", true)

	newer := &banana.JobDetail{JobID: "abc", Summary: strPtr("newer")}
	older := &banana.JobDetail{JobID: "abc", Summary: strPtr("older")}

	require.True(t, c.Resolve(second, newer, nil, time.Now()))
	assert.False(t, c.Resolve(first, older, nil, time.Now()), "late stale response accepted")

	got, ok := c.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "newer", *got.Summary)
}

func TestDetailCache_OlderResponseArrivingFirstIsDiscarded(t *testing.T) {
	c := NewDetailCache()

	first, _ := c.Request("abc", false)
	second, _ := c.Request("abc", true)

	assert.False(t, c.Resolve(first, &banana.JobDetail{JobID: "abc"}, nil, time.Now()))
	assert.Equal(t, EntryFetching, c.State("abc"))
	assert.True(t, c.Resolve(second, &banana.JobDetail{JobID: "abc"}, nil, time.Now()))
}

func TestDetailCache_InvalidateOrphansInFlightFetch(t *testing.T) {
	c := NewDetailCache()

	f, _ := c.Request("abc", false)
	assert.True(t, c.Invalidate("abc"))
	assert.False(t, c.Invalidate("abc"))

	assert.False(t, c.Resolve(f, &banana.JobDetail{JobID: "abc"}, nil, time.Now()))
	assert.Equal(t, EntryAbsent, c.State("abc"))

	next, need := c.Request("abc", false)
	require.True(t, need, "absent entry must be refetched")
	assert.Greater(t, next.Seq, f.Seq, "sequence numbers must stay monotonic across invalidation")
}

func TestDetailCache_FailedFetchLeavesEntryAbsent(t *testing.T) {
	c := NewDetailCache()

	f, _ := c.Request("abc", false)
	assert.True(t, c.Resolve(f, nil, errors.New("boom"), time.Now()))
	assert.Equal(t, EntryAbsent, c.State("abc"))

	_, need := c.Request("abc", false)
	assert.True(t, need)
}

func TestDetailCache_InvalidateAll(t *testing.T) {
	c := NewDetailCache()
	for _, id := range []string{"a", "b"} {
		f, _ := c.Request(id, false)
		c.Resolve(f, &banana.JobDetail{JobID: id}, nil, time.Now())
	}
	c.InvalidateAll()
	assert.Equal(t, EntryAbsent, c.State("a"))
	assert.Equal(t, EntryAbsent, c.State("b"))
}
