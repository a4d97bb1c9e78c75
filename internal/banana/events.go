package banana

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Push event types emitted by the pipeline.
const (
	EventJobStarted     = "job_started"
	EventStageChanged   = "stage_changed"
	EventAgentMessage   = "agent_message"
	EventProgress       = "progress"
	EventImageGenerated = "image_generated"
	EventVariantScored  = "variant_scored"
	EventImageRefined   = "image_refined"
	EventJobCompleted   = "job_completed"
	EventJobFailed      = "job_failed"
)

// ErrMalformedEvent reports a push payload that is not a valid envelope.
var ErrMalformedEvent = errors.New("malformed event")

// Event is the push envelope delivered over the event stream.
type Event struct {
	Type      string          `json:"type"`
	JobID     string          `json:"job_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// ParseEvent decodes a raw frame. Frames that are not JSON objects or lack a
// type or job id are rejected with ErrMalformedEvent.
func ParseEvent(raw []byte) (Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, fmt.Errorf("%w: not a json object", ErrMalformedEvent)
	}
	var ev Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev.Type = strings.TrimSpace(ev.Type)
	ev.JobID = strings.TrimSpace(ev.JobID)
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if ev.JobID == "" {
		return Event{}, fmt.Errorf("%w: missing job_id", ErrMalformedEvent)
	}
	return ev, nil
}

// Time returns the parsed event timestamp, or now when it is missing.
func (e Event) Time() time.Time {
	if t := parseTime(e.Timestamp); !t.IsZero() {
		return t
	}
	return time.Now()
}

// Decode unmarshals the data payload into dest. A missing payload leaves
// dest untouched.
func (e Event) Decode(dest any) error {
	if len(e.Data) == 0 || bytes.Equal(bytes.TrimSpace(e.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	return nil
}

// JobStartedData is the payload of job_started.
type JobStartedData struct {
	Prompt string `json:"prompt"`
}

// StageChangedData is the payload of stage_changed.
type StageChangedData struct {
	Stage string `json:"stage"`
}

// AgentMessageData is the payload of agent_message and progress.
type AgentMessageData struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// ImageGeneratedData is the payload of image_generated.
type ImageGeneratedData struct {
	Variant  string `json:"variant"`
	FilePath string `json:"file_path"`
	Success  *bool  `json:"success"`
}

// VariantScoredData is the payload of variant_scored.
type VariantScoredData struct {
	Variant string  `json:"variant"`
	Total   float64 `json:"total"`
	Rank    int     `json:"rank"`
}

// ImageRefinedData is the payload of image_refined.
type ImageRefinedData struct {
	Variant     string `json:"variant"`
	Instruction string `json:"instruction"`
	FilePath    string `json:"file_path"`
}

// JobCompletedData is the payload of job_completed.
type JobCompletedData struct {
	SuccessfulImages int     `json:"successful_images"`
	Winner           *string `json:"winner"`
}

// JobFailedData is the payload of job_failed.
type JobFailedData struct {
	Error string `json:"error"`
}
