package state

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/squadboard/internal/banana"
)

// Effect is I/O the caller must perform on behalf of the session.
type Effect interface {
	effect()
}

// FetchDetail asks for a detail fetch; the result goes to ResolveDetail.
type FetchDetail struct {
	Fetch
}

// LoadCatalog asks for a catalog query; the result goes to ApplyCatalog.
type LoadCatalog struct {
	Query
}

func (FetchDetail) effect() {}
func (LoadCatalog) effect() {}

// Options configure a Session.
type Options struct {
	Sort           string
	SearchDebounce time.Duration
	LogLimit       int
	Now            func() time.Time
}

// Session is the dashboard's explicitly owned state: the job store, detail
// cache, agent log and catalog, plus which job is tracked and which is
// expanded. Every mutation goes through its methods from a single
// goroutine; I/O is requested through returned effects.
type Session struct {
	Jobs    *JobStore
	Details *DetailCache
	Log     *AgentLog
	Catalog *Catalog

	tracked  string
	expanded string

	// shown is the last detail document resolved for the expanded job. It
	// stays visible while the cache entry is being refetched.
	shown     *banana.JobDetail
	detailErr error

	connected    bool
	hasConnected bool
	lastDisc     time.Time

	now    func() time.Time
	logger zerolog.Logger
}

// NewSession returns an empty session.
func NewSession(logger zerolog.Logger, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		Jobs:    NewJobStore(),
		Details: NewDetailCache(),
		Log:     NewAgentLog(opts.LogLimit),
		Catalog: NewCatalog(opts.Sort, opts.SearchDebounce),
		now:     now,
		logger:  logger,
	}
}

// Tracked returns the id of the tracked job, if any.
func (s *Session) Tracked() string { return s.tracked }

// Expanded returns the id of the expanded job, if any.
func (s *Session) Expanded() string { return s.expanded }

// Connected reports the push connection state.
func (s *Session) Connected() bool { return s.connected }

// HasConnected reports whether the stream has ever connected.
func (s *Session) HasConnected() bool { return s.hasConnected }

// DisconnectedAt returns when the connection was last lost.
func (s *Session) DisconnectedAt() time.Time { return s.lastDisc }

// TrackedJob returns the tracked job.
func (s *Session) TrackedJob() (Job, bool) {
	if s.tracked == "" {
		return Job{}, false
	}
	return s.Jobs.Get(s.tracked)
}

// Pipeline projects the tracked job onto pipeline steps.
func (s *Session) Pipeline() []Step {
	job, ok := s.TrackedJob()
	if !ok {
		return PipelineSteps(banana.StageQueued, "")
	}
	return PipelineSteps(job.Stage, job.FailedAt)
}

// Apply runs one push event through the router and returns the I/O it
// implies. Unknown event types are ignored; unknown job ids get a
// placeholder job first.
func (s *Session) Apply(ev banana.Event) []Effect {
	if ev.JobID == "" {
		return nil
	}
	switch ev.Type {
	case banana.EventJobStarted, banana.EventStageChanged, banana.EventAgentMessage,
		banana.EventProgress, banana.EventImageGenerated, banana.EventVariantScored,
		banana.EventImageRefined, banana.EventJobCompleted, banana.EventJobFailed:
	default:
		s.logger.Debug().Str("type", ev.Type).Str("job_id", ev.JobID).Msg("ignoring unknown event type")
		return nil
	}

	s.Jobs.ensure(ev.JobID)
	at := ev.Time()

	switch ev.Type {
	case banana.EventJobStarted:
		var data banana.JobStartedData
		s.decode(ev, &data)
		s.Jobs.Start(ev.JobID, data.Prompt, at)
		s.track(ev.JobID)
		// A (re)started job begins a fresh log even when already tracked.
		s.Log.Clear()
		return s.invalidate(ev.JobID, false)

	case banana.EventStageChanged:
		var data banana.StageChangedData
		s.decode(ev, &data)
		stage, ok := banana.ParseStage(data.Stage)
		if !ok {
			s.logger.Warn().Str("job_id", ev.JobID).Str("stage", data.Stage).Msg("ignoring unknown stage")
			return nil
		}
		switch stage {
		case banana.StageFailed:
			s.Jobs.Fail(ev.JobID, "", at)
		case banana.StageComplete:
			s.Jobs.Complete(ev.JobID, at)
		default:
			s.Jobs.SetStage(ev.JobID, stage)
		}
		return nil

	case banana.EventAgentMessage, banana.EventProgress:
		var data banana.AgentMessageData
		s.decode(ev, &data)
		agent := strings.TrimSpace(data.Agent)
		if agent == "" {
			agent = ev.Type
		}
		s.appendLog(ev.JobID, agent, data.Message, at)
		return nil

	case banana.EventImageGenerated, banana.EventVariantScored:
		return s.invalidate(ev.JobID, false)

	case banana.EventImageRefined:
		var data banana.ImageRefinedData
		s.decode(ev, &data)
		s.appendLog(ev.JobID, "refiner", refinedMessage(data), at)
		return s.invalidate(ev.JobID, true)

	case banana.EventJobCompleted:
		s.Jobs.Complete(ev.JobID, at)
		return s.invalidate(ev.JobID, true)

	case banana.EventJobFailed:
		var data banana.JobFailedData
		s.decode(ev, &data)
		reason := strings.TrimSpace(data.Error)
		if reason == "" {
			reason = "unknown error"
		}
		s.Jobs.Fail(ev.JobID, reason, at)
		s.appendLog(ev.JobID, "pipeline", "Job failed: "+reason, at)
		return s.invalidate(ev.JobID, false)
	}
	return nil
}

// SubmitAccepted records a successful submission: the job is tracked and,
// unless push events for it already arrived, inserted provisionally.
func (s *Session) SubmitAccepted(jobID, prompt string) {
	if _, known := s.Jobs.Get(jobID); known {
		s.track(jobID)
		return
	}
	s.Jobs.Start(jobID, prompt, s.now())
	s.track(jobID)
	s.Details.Invalidate(jobID)
}

// AppendLocal appends a locally generated agent log entry.
func (s *Session) AppendLocal(jobID, agent, message string) {
	s.Log.Append(AgentLogEntry{JobID: jobID, Agent: agent, Message: strings.TrimSpace(message), Time: s.now()})
}

// Expand opens the detail view of a job. A cached entry is served without a
// fetch unless force is set.
func (s *Session) Expand(jobID string, force bool) []Effect {
	if jobID == "" {
		return nil
	}
	if s.expanded != jobID {
		s.expanded = jobID
		s.shown = nil
		s.detailErr = nil
	}
	if detail, ok := s.Details.Lookup(jobID); ok && !force {
		s.shown = detail
		return nil
	}
	f, need := s.Details.Request(jobID, force)
	if !need {
		return nil
	}
	return []Effect{FetchDetail{Fetch: f}}
}

// Collapse closes the detail view.
func (s *Session) Collapse() {
	s.expanded = ""
	s.shown = nil
	s.detailErr = nil
}

// ExpandedDetail returns the detail to render for the expanded job and
// whether it is current (false while a refetch is pending).
func (s *Session) ExpandedDetail() (*banana.JobDetail, bool) {
	if s.expanded == "" || s.shown == nil {
		return nil, false
	}
	_, current := s.Details.Lookup(s.expanded)
	return s.shown, current
}

// DetailErr returns the last fetch error of the expanded job.
func (s *Session) DetailErr() error { return s.detailErr }

// ResolveDetail applies a detail fetch result. Stale results are discarded
// and reported as false.
func (s *Session) ResolveDetail(f Fetch, detail *banana.JobDetail, err error) bool {
	if !s.Details.Resolve(f, detail, err, s.now()) {
		s.logger.Debug().Str("job_id", f.JobID).Uint64("seq", f.Seq).Msg("discarding stale detail response")
		return false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", f.JobID).Msg("detail fetch failed")
		if f.JobID == s.expanded {
			s.detailErr = err
		}
		return true
	}
	if f.JobID == s.expanded {
		s.shown = detail
		s.detailErr = nil
	}
	return true
}

// ApplyCatalog applies a catalog response. A failed load keeps the previous
// catalog. Stale responses are discarded and reported as false.
func (s *Session) ApplyCatalog(q Query, rows []banana.JobSummary, err error) bool {
	if !s.Catalog.accept(q.Seq, rows, err, s.now()) {
		return false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("search", q.Search).Str("sort", q.Sort).Msg("catalog load failed")
		return true
	}
	s.Jobs.Merge(rows)
	return true
}

// CatalogJobs returns the jobs to list: provisional jobs the server has not
// returned yet (newest first) followed by the server's ordering.
func (s *Session) CatalogJobs() []Job {
	var provisional []Job
	for _, id := range s.Jobs.order {
		job := s.Jobs.jobs[id]
		if !job.Provisional || s.Catalog.contains(id) || !s.Catalog.matches(*job) {
			continue
		}
		provisional = append(provisional, cloneJob(job))
	}
	sort.SliceStable(provisional, func(i, j int) bool {
		return provisional[i].ParsedCreatedAt().After(provisional[j].ParsedCreatedAt())
	})

	out := provisional
	for _, id := range s.Catalog.ids {
		if job, ok := s.Jobs.jobs[id]; ok {
			out = append(out, cloneJob(job))
		}
	}
	return out
}

// SetConnected records a connection state change. Reconnecting after a
// loss invalidates every cached detail and reloads the catalog, since push
// events may have been missed while disconnected.
func (s *Session) SetConnected(connected bool) []Effect {
	if connected == s.connected {
		return nil
	}
	s.connected = connected
	if !connected {
		s.lastDisc = s.now()
		return nil
	}
	first := !s.hasConnected
	s.hasConnected = true
	var effects []Effect
	if !first {
		s.Details.InvalidateAll()
		if s.expanded != "" {
			effects = append(effects, s.Expand(s.expanded, false)...)
		}
	}
	effects = append(effects, LoadCatalog{Query: s.Catalog.Reload()})
	return effects
}

// track switches the pipeline view to jobID. The log is cleared only when
// the tracked job changes.
func (s *Session) track(jobID string) {
	if s.tracked == jobID {
		return
	}
	s.tracked = jobID
	s.Log.Clear()
}

// appendLog records pipeline activity of the tracked job. Events for other
// jobs are dropped once a job is tracked.
func (s *Session) appendLog(jobID, agent, message string, at time.Time) {
	if s.tracked != "" && jobID != s.tracked {
		return
	}
	s.Log.Append(AgentLogEntry{JobID: jobID, Agent: agent, Message: strings.TrimSpace(message), Time: at})
}

// invalidate drops the job's cached detail. When refetch is set and the job
// is expanded a forced fetch is returned. An expanded job that has never
// shown a detail is refetched either way so it does not wait on a
// discarded response.
func (s *Session) invalidate(jobID string, refetch bool) []Effect {
	s.Details.Invalidate(jobID)
	if jobID != s.expanded {
		return nil
	}
	if !refetch && s.shown != nil {
		return nil
	}
	f, _ := s.Details.Request(jobID, true)
	return []Effect{FetchDetail{Fetch: f}}
}

func (s *Session) decode(ev banana.Event, dest any) {
	if err := ev.Decode(dest); err != nil {
		s.logger.Warn().Err(err).Str("job_id", ev.JobID).Msg("event data did not decode")
	}
}

func refinedMessage(data banana.ImageRefinedData) string {
	variant := strings.TrimSpace(data.Variant)
	if variant == "" {
		variant = "variant"
	}
	if instr := strings.TrimSpace(data.Instruction); instr != "" {
		return fmt.Sprintf("Refined %s: %s", variant, instr)
	}
	return fmt.Sprintf("Refined %s", variant)
}
