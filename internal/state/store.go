package state

import (
	"strings"
	"time"

	"github.com/five82/squadboard/internal/banana"
)

// Job is a job summary plus the client-side bookkeeping the dashboard needs.
type Job struct {
	banana.JobSummary

	// Provisional is set for jobs inserted locally (job_started or a
	// submission) that the catalog has not returned yet.
	Provisional bool
	// FailedAt is the last pipeline stage reached before the job failed.
	FailedAt banana.Stage
	// Error is the failure reason reported by job_failed.
	Error string
}

// JobStore maps job ids to jobs. Jobs are never removed within a session.
// It is not safe for concurrent use; the session owns it.
type JobStore struct {
	jobs  map[string]*Job
	order []string
}

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Len returns the number of known jobs.
func (s *JobStore) Len() int {
	return len(s.order)
}

// IDs returns job ids in insertion order.
func (s *JobStore) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of the job with the given id.
func (s *JobStore) Get(id string) (Job, bool) {
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return cloneJob(job), true
}

// ensure returns the job for id, inserting an empty placeholder when the id
// is unknown.
func (s *JobStore) ensure(id string) *Job {
	if job, ok := s.jobs[id]; ok {
		return job
	}
	job := &Job{JobSummary: banana.JobSummary{JobID: id, Stage: banana.StageQueued}}
	s.jobs[id] = job
	s.order = append(s.order, id)
	return job
}

// Start overwrites the job as freshly started: stage research, no images,
// no winner. Jobs the catalog has never returned become provisional.
func (s *JobStore) Start(id, prompt string, at time.Time) {
	_, known := s.jobs[id]
	job := s.ensure(id)
	if p := strings.TrimSpace(prompt); p != "" {
		job.Prompt = p
	}
	if !known || job.CreatedAt == "" {
		job.CreatedAt = at.UTC().Format(time.RFC3339Nano)
		job.Provisional = true
	}
	job.Stage = banana.StageResearch
	job.CompletedAt = nil
	job.ImageCount = 0
	job.Winner = nil
	job.WinnerPath = nil
	job.FailedAt = ""
	job.Error = ""
}

// SetStage moves the job forward. Backward moves, unknown stages and
// transitions out of a terminal stage are ignored.
func (s *JobStore) SetStage(id string, stage banana.Stage) bool {
	job := s.ensure(id)
	if job.Stage.Terminal() {
		return false
	}
	switch stage {
	case banana.StageFailed:
		job.FailedAt = lastPipelineStage(job.Stage)
		job.Stage = stage
		return true
	case banana.StageComplete:
		job.Stage = stage
		return true
	}
	next := stage.Index()
	if next < 0 || next < job.Stage.Index() {
		return false
	}
	job.Stage = stage
	return true
}

// Fail marks the job failed with the given reason.
func (s *JobStore) Fail(id, reason string, at time.Time) bool {
	job := s.ensure(id)
	if !s.SetStage(id, banana.StageFailed) {
		return false
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		job.Error = reason
	}
	stamp := at.UTC().Format(time.RFC3339Nano)
	job.CompletedAt = &stamp
	return true
}

// Complete marks the job complete.
func (s *JobStore) Complete(id string, at time.Time) bool {
	if !s.SetStage(id, banana.StageComplete) {
		return false
	}
	job := s.jobs[id]
	stamp := at.UTC().Format(time.RFC3339Nano)
	job.CompletedAt = &stamp
	return true
}

// Merge folds catalog rows into the store. The server is authoritative for
// every field except that displayed stage progress never moves backwards.
func (s *JobStore) Merge(rows []banana.JobSummary) {
	for _, row := range rows {
		if strings.TrimSpace(row.JobID) == "" {
			continue
		}
		job := s.ensure(row.JobID)
		local := job.Stage
		failedAt := job.FailedAt
		reason := job.Error

		job.JobSummary = row
		job.Provisional = false
		if stage, ok := banana.ParseStage(string(row.Stage)); ok {
			job.Stage = stage
		} else {
			job.Stage = local
		}
		job.Stage = keepProgress(local, job.Stage)

		job.FailedAt = failedAt
		job.Error = reason
		if job.Stage == banana.StageFailed && job.FailedAt == "" {
			job.FailedAt = lastPipelineStage(local)
		}
	}
}

// keepProgress returns the stage to display when the server reports remote
// while the client already saw local.
func keepProgress(local, remote banana.Stage) banana.Stage {
	switch {
	case remote.Terminal():
		if local.Terminal() {
			return local
		}
		return remote
	case local.Terminal():
		return local
	case local.Index() > remote.Index():
		return local
	}
	return remote
}

func lastPipelineStage(stage banana.Stage) banana.Stage {
	if stage.Index() < 0 || stage == banana.StageComplete {
		return banana.StageQueued
	}
	return stage
}

func cloneJob(job *Job) Job {
	dup := *job
	if job.CompletedAt != nil {
		v := *job.CompletedAt
		dup.CompletedAt = &v
	}
	if job.Winner != nil {
		v := *job.Winner
		dup.Winner = &v
	}
	if job.WinnerPath != nil {
		v := *job.WinnerPath
		dup.WinnerPath = &v
	}
	return dup
}
