package workflow

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/squadboard/internal/banana"
)

var (
	// ErrEmptyPrompt rejects a submission without prompt text.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrNotImage rejects a staged attachment that is not an image.
	ErrNotImage = errors.New("attachment is not an image")
	// ErrInFlight rejects a submission while the previous one is pending.
	ErrInFlight = errors.New("request already in flight")
)

// Aspect ratios and resolutions offered by the pipeline, in cycle order.
var (
	AspectRatios = []string{"4:3", "1:1", "16:9", "9:16", "3:4"}
	Resolutions  = []string{"1K", "2K", "4K"}
)

const (
	DefaultAspectRatio = "4:3"
	DefaultResolution  = "2K"

	genericSubmitError = "Generation request failed"
	genericRefineError = "Refinement request failed"
	sniffLen           = 512
)

// SubmitForm is the new-job form: prompt, options and staged attachments.
type SubmitForm struct {
	Prompt      string
	AspectRatio string
	Resolution  string

	files    []banana.Attachment
	inFlight bool
	errMsg   string
}

// NewSubmitForm returns an empty form. Unknown options fall back to the
// defaults.
func NewSubmitForm(aspectRatio, resolution string) *SubmitForm {
	return &SubmitForm{
		AspectRatio: pick(AspectRatios, aspectRatio, DefaultAspectRatio),
		Resolution:  pick(Resolutions, resolution, DefaultResolution),
	}
}

// Stage adds an attachment if its content is an image.
func (f *SubmitForm) Stage(name string, data []byte) error {
	ct := ContentType(name, data)
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%s: %w", filepath.Base(name), ErrNotImage)
	}
	f.files = append(f.files, banana.Attachment{Name: filepath.Base(name), ContentType: ct, Data: data})
	return nil
}

// StageFile reads path and stages it.
func (f *SubmitForm) StageFile(path string) error {
	path = expandHome(strings.TrimSpace(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	return f.Stage(path, data)
}

// Unstage removes the attachment at index i.
func (f *SubmitForm) Unstage(i int) {
	if i < 0 || i >= len(f.files) {
		return
	}
	f.files = append(f.files[:i], f.files[i+1:]...)
}

// Attachments returns the staged attachments.
func (f *SubmitForm) Attachments() []banana.Attachment {
	out := make([]banana.Attachment, len(f.files))
	copy(out, f.files)
	return out
}

// CycleAspectRatio advances to the next aspect ratio.
func (f *SubmitForm) CycleAspectRatio() string {
	f.AspectRatio = next(AspectRatios, f.AspectRatio)
	return f.AspectRatio
}

// CycleResolution advances to the next resolution.
func (f *SubmitForm) CycleResolution() string {
	f.Resolution = next(Resolutions, f.Resolution)
	return f.Resolution
}

// InFlight reports whether a submission is pending.
func (f *SubmitForm) InFlight() bool { return f.inFlight }

// CanSubmit reports whether the submit control is enabled.
func (f *SubmitForm) CanSubmit() bool {
	return !f.inFlight && strings.TrimSpace(f.Prompt) != ""
}

// Err returns the message of the last failed submission.
func (f *SubmitForm) Err() string { return f.errMsg }

// Validate checks the client-side preconditions.
func (f *SubmitForm) Validate() error {
	if f.inFlight {
		return ErrInFlight
	}
	if strings.TrimSpace(f.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Begin validates the form and marks it in flight, returning the request
// to send.
func (f *SubmitForm) Begin() (banana.GenerateRequest, error) {
	if err := f.Validate(); err != nil {
		return banana.GenerateRequest{}, err
	}
	f.inFlight = true
	f.errMsg = ""
	return banana.GenerateRequest{
		Prompt:      strings.TrimSpace(f.Prompt),
		AspectRatio: f.AspectRatio,
		Resolution:  f.Resolution,
		Files:       f.Attachments(),
	}, nil
}

// Succeed resets the prompt and attachments. Options are kept.
func (f *SubmitForm) Succeed() {
	f.inFlight = false
	f.errMsg = ""
	f.Prompt = ""
	f.files = nil
}

// Fail re-enables the form, keeping its input, and records a message.
func (f *SubmitForm) Fail(err error) {
	f.inFlight = false
	f.errMsg = FailureMessage(err, genericSubmitError)
}

// FailureMessage returns the server's message for err, or fallback.
func FailureMessage(err error, fallback string) string {
	if msg := strings.TrimSpace(banana.ServerMessage(err)); msg != "" {
		return msg
	}
	return fallback
}

// ContentType sniffs data, falling back to the file extension when the
// content is not recognised.
func ContentType(name string, data []byte) string {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	ct := http.DetectContentType(head)
	if ct != "application/octet-stream" && !strings.HasPrefix(ct, "text/plain") {
		return ct
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = byExt[:i]
		}
		return strings.TrimSpace(byExt)
	}
	return ct
}

func pick(options []string, value, fallback string) string {
	for _, o := range options {
		if strings.EqualFold(o, strings.TrimSpace(value)) {
			return o
		}
	}
	return fallback
}

func next(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
