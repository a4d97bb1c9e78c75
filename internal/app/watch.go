package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/state"
	"github.com/five82/squadboard/internal/stream"
)

const watchRequestTimeout = 15 * time.Second

var (
	watchTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	watchJob    = lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9"))
	watchKind   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	watchBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	watchGood   = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true)
	watchNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

type catalogResult struct {
	query state.Query
	rows  []banana.JobSummary
	err   error
}

type detailResult struct {
	fetch  state.Fetch
	detail *banana.JobDetail
	err    error
}

// Watcher prints push events as lines after running them through a
// session, so the output reflects the same reconciled state the dashboard
// shows. Only the Run goroutine touches the session.
type Watcher struct {
	api     banana.API
	streams *stream.Manager
	session *state.Session
	out     io.Writer
	logger  zerolog.Logger
}

// NewWatcher returns a watcher writing to out.
func NewWatcher(api banana.API, streams *stream.Manager, session *state.Session, out io.Writer, logger zerolog.Logger) *Watcher {
	return &Watcher{api: api, streams: streams, session: session, out: out, logger: logger}
}

// Watch runs the headless event log against the configured server until
// ctx is cancelled.
func Watch(ctx context.Context, opts Options, out io.Writer) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	w := NewWatcher(env.Client, env.Streams(), env.NewSession(state.SortNewest), out, env.Logger.Logger)
	fmt.Fprintf(out, "--- watching %s (Ctrl+C to stop) ---\n", env.Client.StreamURL())
	return w.Run(ctx)
}

// Run consumes the event stream until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbox := make(chan any, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.streams.Run(gctx, chanSink{ctx: gctx, inbox: inbox})
	})

	for {
		select {
		case <-gctx.Done():
			cancel()
			return g.Wait()
		case msg := <-inbox:
			w.run(gctx, g, inbox, w.handle(msg))
		}
	}
}

func (w *Watcher) handle(msg any) []state.Effect {
	switch msg := msg.(type) {
	case connChange:
		if msg.connected == w.session.Connected() {
			return nil
		}
		if msg.connected {
			w.line("", watchGood.Render("connected"), w.streams.URL())
		} else {
			w.line("", watchBad.Render("disconnected"), watchNotice.Render("reconnecting"))
		}
		return w.session.SetConnected(msg.connected)

	case banana.Event:
		effects := w.session.Apply(msg)
		if text, ok := w.describe(msg); ok {
			w.line(msg.JobID, watchKind.Render(padKind(msg.Type)), text)
		}
		return effects

	case catalogResult:
		if !w.session.ApplyCatalog(msg.query, msg.rows, msg.err) {
			return nil
		}
		if msg.err != nil {
			text := banana.ServerMessage(msg.err)
			if text == "" {
				text = msg.err.Error()
			}
			w.line("", watchBad.Render(padKind("catalog")), text)
			return nil
		}
		w.line("", watchKind.Render(padKind("catalog")), fmt.Sprintf("%d jobs", len(msg.rows)))

	case detailResult:
		w.session.ResolveDetail(msg.fetch, msg.detail, msg.err)
	}
	return nil
}

// run performs effects in the group; results come back through inbox.
func (w *Watcher) run(ctx context.Context, g *errgroup.Group, inbox chan<- any, effects []state.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case state.LoadCatalog:
			q := e.Query
			g.Go(func() error {
				reqCtx, cancel := context.WithTimeout(ctx, watchRequestTimeout)
				defer cancel()
				rows, err := w.api.ListJobs(reqCtx, q.JobQuery())
				deliver(ctx, inbox, catalogResult{query: q, rows: rows, err: err})
				return nil
			})
		case state.FetchDetail:
			f := e.Fetch
			g.Go(func() error {
				reqCtx, cancel := context.WithTimeout(ctx, watchRequestTimeout)
				defer cancel()
				detail, err := w.api.FetchJob(reqCtx, f.JobID)
				deliver(ctx, inbox, detailResult{fetch: f, detail: detail, err: err})
				return nil
			})
		}
	}
}

// describe renders an applied event from the job's reconciled state.
func (w *Watcher) describe(ev banana.Event) (string, bool) {
	job, ok := w.session.Jobs.Get(ev.JobID)
	if !ok {
		return "", false
	}
	switch ev.Type {
	case banana.EventJobStarted:
		return fmt.Sprintf("started %q", job.Prompt), true

	case banana.EventStageChanged:
		return job.Stage.Label(), true

	case banana.EventAgentMessage, banana.EventProgress:
		var data banana.AgentMessageData
		if err := ev.Decode(&data); err != nil {
			return "", false
		}
		if data.Agent == "" {
			return data.Message, true
		}
		return data.Agent + ": " + data.Message, true

	case banana.EventImageGenerated:
		var data banana.ImageGeneratedData
		_ = ev.Decode(&data)
		if data.Success != nil && !*data.Success {
			return watchBad.Render(data.Variant + " failed"), true
		}
		return data.Variant, true

	case banana.EventVariantScored:
		var data banana.VariantScoredData
		_ = ev.Decode(&data)
		return fmt.Sprintf("%s total %.1f rank %d", data.Variant, data.Total, data.Rank), true

	case banana.EventImageRefined:
		var data banana.ImageRefinedData
		_ = ev.Decode(&data)
		if data.Instruction != "" {
			return data.Variant + ": " + data.Instruction, true
		}
		return data.Variant, true

	case banana.EventJobCompleted:
		var data banana.JobCompletedData
		_ = ev.Decode(&data)
		text := watchGood.Render("complete")
		if data.Winner != nil && *data.Winner != "" {
			text += " winner " + *data.Winner
		}
		return text, true

	case banana.EventJobFailed:
		return watchBad.Render("failed") + " " + job.Error, true
	}
	return "", false
}

func (w *Watcher) line(jobID, kind, text string) {
	stamp := watchTime.Render(time.Now().Format("15:04:05"))
	id := strings.Repeat(" ", 8)
	if jobID != "" {
		id = fmt.Sprintf("%-8s", truncateID(jobID))
	}
	if _, err := fmt.Fprintf(w.out, "%s %s %s %s\n", stamp, watchJob.Render(id), kind, text); err != nil {
		w.logger.Debug().Err(err).Msg("watch output failed")
	}
}

func padKind(kind string) string {
	return fmt.Sprintf("%-15s", kind)
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
