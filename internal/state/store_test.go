package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/squadboard/internal/banana"
)

func strPtr(s string) *string { return &s }

func TestJobStore_EnsureCreatesPlaceholderOnce(t *testing.T) {
	s := NewJobStore()
	s.ensure("b")
	s.ensure("a")
	s.ensure("b")

	assert.Equal(t, []string{"b", "a"}, s.IDs())
	job, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, banana.StageQueued, job.Stage)
	assert.Empty(t, job.Prompt)
}

func TestJobStore_StartOverwritesRegardlessOfPriorState(t *testing.T) {
	s := NewJobStore()
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s.Merge([]banana.JobSummary{{JobID: "abc", Stage: banana.StageFailed, ImageCount: 4, Winner: strPtr("v1-faithful"), CreatedAt: "2026-10-14T00:00:00Z"}})

	s.Start("abc", "new prompt", at)

	job, _ := s.Get("abc")
	assert.Equal(t, banana.StageResearch, job.Stage)
	assert.Equal(t, 0, job.ImageCount)
	assert.Nil(t, job.Winner)
	assert.Equal(t, "new prompt", job.Prompt)
	assert.False(t, job.Provisional, "catalog-known job should not become provisional")

	s.Start("fresh", "", at)
	fresh, _ := s.Get("fresh")
	assert.True(t, fresh.Provisional)
	assert.Equal(t, at, fresh.ParsedCreatedAt())
}

func TestJobStore_SetStageIsMonotonic(t *testing.T) {
	s := NewJobStore()
	s.Start("abc", "p", time.Now())

	assert.True(t, s.SetStage("abc", banana.StageGenerating))
	assert.False(t, s.SetStage("abc", banana.StagePromptCrafting), "backward move accepted")
	assert.False(t, s.SetStage("abc", banana.Stage("bogus")))

	job, _ := s.Get("abc")
	assert.Equal(t, banana.StageGenerating, job.Stage)
}

func TestJobStore_FailedIsTerminal(t *testing.T) {
	s := NewJobStore()
	s.Start("abc", "p", time.Now())
	s.SetStage("abc", banana.StagePromptCrafting)

	require.True(t, s.Fail("abc", "quota exceeded", time.Now()))
	for _, stage := range []banana.Stage{banana.StageGenerating, banana.StageEvaluating, banana.StageComplete} {
		assert.False(t, s.SetStage("abc", stage), "transition to %s accepted after failure", stage)
	}
	assert.False(t, s.Complete("abc", time.Now()))

	job, _ := s.Get("abc")
	assert.Equal(t, banana.StageFailed, job.Stage)
	assert.Equal(t, banana.StagePromptCrafting, job.FailedAt)
	assert.Equal(t, "quota exceeded", job.Error)
	assert.NotNil(t, job.CompletedAt)
}

func TestJobStore_MergeKeepsProgressAndClearsProvisional(t *testing.T) {
	s := NewJobStore()
	s.Start("abc", "p", time.Now())
	s.SetStage("abc", banana.StageEvaluating)

	s.Merge([]banana.JobSummary{
		{JobID: "abc", Prompt: "server prompt", Stage: banana.StageGenerating, ImageCount: 5},
		{JobID: "def", Stage: banana.StageComplete, ImageCount: 3, Winner: strPtr("v2-enhanced")},
		{JobID: ""},
	})

	abc, _ := s.Get("abc")
	assert.Equal(t, banana.StageEvaluating, abc.Stage, "stale catalog row regressed the stage")
	assert.Equal(t, 5, abc.ImageCount)
	assert.Equal(t, "server prompt", abc.Prompt)
	assert.False(t, abc.Provisional)

	def, _ := s.Get("def")
	assert.Equal(t, "v2-enhanced", def.WinnerLabel())
	assert.Equal(t, 2, s.Len())
}

func TestJobStore_GetReturnsIndependentCopy(t *testing.T) {
	s := NewJobStore()
	s.Merge([]banana.JobSummary{{JobID: "abc", Winner: strPtr("v1-faithful")}})

	job, _ := s.Get("abc")
	*job.Winner = "changed"
	job.Prompt = "changed"

	again, _ := s.Get("abc")
	assert.Equal(t, "v1-faithful", again.WinnerLabel())
	assert.Empty(t, again.Prompt)
}
