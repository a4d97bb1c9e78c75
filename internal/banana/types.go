package banana

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage is a named phase of the generation pipeline.
type Stage string

const (
	StageQueued         Stage = "queued"
	StageResearch       Stage = "research"
	StagePromptCrafting Stage = "prompt_crafting"
	StageGenerating     Stage = "generating"
	StageEvaluating     Stage = "evaluating"
	StageComplete       Stage = "complete"
	StageFailed         Stage = "failed"
)

// PipelineStages lists the non-failure stages in pipeline order.
var PipelineStages = []Stage{
	StageQueued,
	StageResearch,
	StagePromptCrafting,
	StageGenerating,
	StageEvaluating,
	StageComplete,
}

// ParseStage normalizes a wire stage value. Unknown values return ok=false.
func ParseStage(value string) (Stage, bool) {
	s := Stage(strings.ToLower(strings.TrimSpace(value)))
	if s == StageFailed {
		return s, true
	}
	for _, known := range PipelineStages {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Index returns the position of the stage in PipelineStages, or -1 for
// failed and unknown stages.
func (s Stage) Index() int {
	for i, known := range PipelineStages {
		if s == known {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further stage transitions follow s.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Label returns a human readable stage name.
func (s Stage) Label() string {
	switch s {
	case StageQueued:
		return "Queued"
	case StageResearch:
		return "Research"
	case StagePromptCrafting:
		return "Prompts"
	case StageGenerating:
		return "Generating"
	case StageEvaluating:
		return "Evaluating"
	case StageComplete:
		return "Complete"
	case StageFailed:
		return "Failed"
	}
	if s == "" {
		return "Unknown"
	}
	return string(s)
}

// JobSummary mirrors one row of GET /api/jobs.
type JobSummary struct {
	JobID       string  `json:"job_id"`
	Prompt      string  `json:"prompt"`
	Stage       Stage   `json:"stage"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at"`
	ImageCount  int     `json:"image_count"`
	Winner      *string `json:"winner"`
	WinnerPath  *string `json:"winner_path"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (j JobSummary) ParsedCreatedAt() time.Time {
	return parseTime(j.CreatedAt)
}

// ParsedCompletedAt returns the parsed CompletedAt timestamp, zero when unset.
func (j JobSummary) ParsedCompletedAt() time.Time {
	if j.CompletedAt == nil {
		return time.Time{}
	}
	return parseTime(*j.CompletedAt)
}

// WinnerLabel returns the winning variant or an empty string.
func (j JobSummary) WinnerLabel() string {
	if j.Winner == nil {
		return ""
	}
	return *j.Winner
}

// JobDetail mirrors GET /api/jobs/{job_id}.
type JobDetail struct {
	JobID       string          `json:"job_id"`
	Prompt      string          `json:"prompt"`
	Stage       Stage           `json:"stage"`
	CreatedAt   string          `json:"created_at"`
	CompletedAt *string         `json:"completed_at"`
	AspectRatio string          `json:"aspect_ratio"`
	Resolution  string          `json:"resolution"`
	Research    *Research       `json:"research"`
	Prompts     []PromptVariant `json:"prompts"`
	Images      []ImageVariant  `json:"images"`
	Evaluations []Evaluation    `json:"evaluations"`
	Refinements []Refinement    `json:"refinements"`
	Summary     *string         `json:"summary"`
	Winner      *string         `json:"winner"`
	Error       *string         `json:"error"`
}

// SuccessfulImages counts images that were generated without error.
func (d JobDetail) SuccessfulImages() int {
	n := 0
	for _, img := range d.Images {
		if img.Success {
			n++
		}
	}
	return n
}

// EvaluationFor returns the evaluation of the given variant, if any.
func (d JobDetail) EvaluationFor(variant string) (Evaluation, bool) {
	for _, ev := range d.Evaluations {
		if ev.Variant == variant {
			return ev, true
		}
	}
	return Evaluation{}, false
}

// Research captures the research agent's findings.
type Research struct {
	Style       string   `json:"style"`
	Colors      []string `json:"colors"`
	Composition string   `json:"composition"`
	Mood        string   `json:"mood"`
}

// PromptVariant is a narrative prompt written for one variant.
type PromptVariant struct {
	Variant string `json:"variant"`
	Label   string `json:"label"`
	Prompt  string `json:"prompt"`
}

// ImageVariant is one generated image alternative.
type ImageVariant struct {
	Variant  string  `json:"variant"`
	FilePath *string `json:"file_path"`
	Success  bool    `json:"success"`
	Error    *string `json:"error"`
}

// Path returns the artifact path or an empty string.
func (i ImageVariant) Path() string {
	if i.FilePath == nil {
		return ""
	}
	return *i.FilePath
}

// Scores holds the critic's four dimension scores.
type Scores struct {
	Faithfulness float64 `json:"faithfulness"`
	Conciseness  float64 `json:"conciseness"`
	Readability  float64 `json:"readability"`
	Aesthetics   float64 `json:"aesthetics"`
	Total        float64 `json:"total"`
}

// Evaluation is the critic's verdict on one variant.
type Evaluation struct {
	Variant string `json:"variant"`
	Scores  Scores `json:"scores"`
	Review  string `json:"review"`
	Rank    int    `json:"rank"`
}

// Refinement records a follow-up edit of one variant.
type Refinement struct {
	Variant     string `json:"variant"`
	Instruction string `json:"instruction"`
	FilePath    string `json:"file_path"`
	Timestamp   string `json:"timestamp"`
}

// ParsedTime returns the refinement timestamp.
func (r Refinement) ParsedTime() time.Time {
	return parseTime(r.Timestamp)
}

// GenerateResponse is the success body of POST /api/generate.
type GenerateResponse struct {
	JobID string `json:"job_id"`
}

// RefineResponse is the body of POST /api/refine.
type RefineResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// errorBody covers the failure shapes the server uses.
type errorBody struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (e errorBody) message() string {
	if msg := strings.TrimSpace(e.Error); msg != "" {
		return msg
	}
	if len(e.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	// Validation errors arrive as a list of objects with a msg field.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err == nil && len(items) > 0 {
		return strings.TrimSpace(items[0].Msg)
	}
	return ""
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
