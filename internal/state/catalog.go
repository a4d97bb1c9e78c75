package state

import (
	"strings"
	"time"

	"github.com/five82/squadboard/internal/banana"
)

// DefaultSearchDebounce is the quiet period before a search query fires.
const DefaultSearchDebounce = 350 * time.Millisecond

// Sort keys understood by the catalog endpoint.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortStage  = "stage"
	SortImages = "images"
)

// SortKeys lists the sort keys in cycle order.
var SortKeys = []string{SortNewest, SortOldest, SortStage, SortImages}

// NextSortKey returns the sort key after current in the cycle.
func NextSortKey(current string) string {
	for i, key := range SortKeys {
		if key == current {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortKeys[0]
}

// Query is one catalog request. Seq orders responses.
type Query struct {
	Seq    uint64
	Search string
	Sort   string
}

// JobQuery converts q into the client request shape.
func (q Query) JobQuery() banana.JobQuery {
	return banana.JobQuery{Search: q.Search, Sort: q.Sort}
}

// Catalog drives the server-ordered job list. Search changes are debounced
// through generations: every change bumps the generation and only the
// latest generation may fire. Sort changes fire immediately.
type Catalog struct {
	search   string
	sort     string
	debounce time.Duration

	gen        uint64
	pending    bool
	querySeq   uint64
	appliedSeq uint64
	loading    bool

	ids      []string
	lastErr  error
	loadedAt time.Time
}

// NewCatalog returns a catalog sorted by sortKey with the given debounce.
func NewCatalog(sortKey string, debounce time.Duration) *Catalog {
	if strings.TrimSpace(sortKey) == "" {
		sortKey = SortNewest
	}
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Catalog{sort: sortKey, debounce: debounce}
}

// Search returns the current search text.
func (c *Catalog) Search() string { return c.search }

// Sort returns the current sort key.
func (c *Catalog) Sort() string { return c.sort }

// Debounce returns the search quiet period.
func (c *Catalog) Debounce() time.Duration { return c.debounce }

// Loading reports whether a query is in flight.
func (c *Catalog) Loading() bool { return c.loading }

// Err returns the last load error, cleared by the next successful load.
func (c *Catalog) Err() error { return c.lastErr }

// LoadedAt returns when the catalog was last replaced.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// SetSearch records new search text and returns the generation that must
// come due for the query to fire. Any earlier pending generation is
// cancelled.
func (c *Catalog) SetSearch(text string) uint64 {
	c.search = text
	c.gen++
	c.pending = true
	return c.gen
}

// Due reports whether the debounce for gen elapsed without a newer change;
// if so it returns the query to issue.
func (c *Catalog) Due(gen uint64) (Query, bool) {
	if !c.pending || gen != c.gen {
		return Query{}, false
	}
	c.pending = false
	return c.issue(), true
}

// SetSort changes the sort key and returns the query to issue right away.
// A pending search debounce is folded into this query.
func (c *Catalog) SetSort(key string) Query {
	c.sort = key
	c.gen++
	c.pending = false
	return c.issue()
}

// Reload returns a query for the current search and sort.
func (c *Catalog) Reload() Query {
	c.gen++
	c.pending = false
	return c.issue()
}

func (c *Catalog) issue() Query {
	c.querySeq++
	c.loading = true
	return Query{Seq: c.querySeq, Search: strings.TrimSpace(c.search), Sort: c.sort}
}

// accept records a response for seq and reports whether it is newer than
// the last applied one.
func (c *Catalog) accept(seq uint64, rows []banana.JobSummary, err error, at time.Time) bool {
	if seq <= c.appliedSeq {
		return false
	}
	if seq == c.querySeq {
		c.loading = false
	}
	if err != nil {
		c.lastErr = err
		return true
	}
	c.appliedSeq = seq
	c.lastErr = nil
	c.loadedAt = at
	c.ids = c.ids[:0]
	for _, row := range rows {
		if strings.TrimSpace(row.JobID) != "" {
			c.ids = append(c.ids, row.JobID)
		}
	}
	return true
}

// IDs returns the server ordering of the last applied response.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

func (c *Catalog) contains(id string) bool {
	for _, v := range c.ids {
		if v == id {
			return true
		}
	}
	return false
}

// matches reports whether a provisional job should be shown for the
// active search text.
func (c *Catalog) matches(job Job) bool {
	needle := strings.ToLower(strings.TrimSpace(c.search))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(job.Prompt), needle) ||
		strings.Contains(strings.ToLower(job.JobID), needle)
}
