package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/state"
	"github.com/five82/squadboard/internal/workflow"
)

// Messages delivered from outside the program.

// EventMsg carries one push event from the stream manager.
type EventMsg struct {
	Event banana.Event
}

// ConnMsg reports a stream connection state change.
type ConnMsg struct {
	Connected bool
}

// Messages produced by commands.

type clockMsg time.Time

type searchDueMsg struct {
	gen uint64
}

type detailMsg struct {
	fetch  state.Fetch
	detail *banana.JobDetail
	err    error
}

type catalogMsg struct {
	query state.Query
	rows  []banana.JobSummary
	err   error
}

type submitMsg struct {
	prompt string
	jobID  string
	err    error
}

type refineMsg struct {
	key workflow.RefineKey
	err error
}

// Commands

func clockCmd() tea.Cmd {
	return tea.Tick(ClockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func searchDebounceCmd(d time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchDueMsg{gen: gen}
	})
}

// runEffects turns session effects into commands. Each command completes
// on its own; the session discards responses that arrive out of date.
func (m Model) runEffects(effects []state.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case state.FetchDetail:
			cmds = append(cmds, m.fetchDetail(e.Fetch))
		case state.LoadCatalog:
			cmds = append(cmds, m.loadCatalog(e.Query))
		}
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m Model) fetchDetail(f state.Fetch) tea.Cmd {
	if m.api == nil {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		detail, err := api.FetchJob(reqCtx, f.JobID)
		return detailMsg{fetch: f, detail: detail, err: err}
	}
}

func (m Model) loadCatalog(q state.Query) tea.Cmd {
	if m.api == nil {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		rows, err := api.ListJobs(reqCtx, q.JobQuery())
		return catalogMsg{query: q, rows: rows, err: err}
	}
}

func (m Model) generate(req banana.GenerateRequest) tea.Cmd {
	if m.api == nil {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
		defer cancel()
		id, err := api.Generate(reqCtx, req)
		return submitMsg{prompt: req.Prompt, jobID: id, err: err}
	}
}

func (m Model) sendRefine(key workflow.RefineKey, req banana.RefineRequest) tea.Cmd {
	if m.api == nil {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return refineMsg{key: key, err: api.Refine(reqCtx, req)}
	}
}
