package workflow

import (
	"fmt"
	"strings"

	"github.com/five82/squadboard/internal/banana"
)

// RefineKey identifies one refine control.
type RefineKey struct {
	JobID   string
	Variant string
}

// RefineForm is the instruction input for one variant.
type RefineForm struct {
	Instruction string
	Open        bool
	InFlight    bool
	Err         string
}

// RefineForms tracks the refine controls of every (job, variant) pair.
// Each control is disabled independently while its request is pending.
type RefineForms struct {
	forms map[RefineKey]*RefineForm
}

// NewRefineForms returns an empty set.
func NewRefineForms() *RefineForms {
	return &RefineForms{forms: make(map[RefineKey]*RefineForm)}
}

func (r *RefineForms) form(key RefineKey) *RefineForm {
	f, ok := r.forms[key]
	if !ok {
		f = &RefineForm{}
		r.forms[key] = f
	}
	return f
}

// Get returns a copy of the control state.
func (r *RefineForms) Get(key RefineKey) RefineForm {
	if f, ok := r.forms[key]; ok {
		return *f
	}
	return RefineForm{}
}

// Open reveals the instruction input.
func (r *RefineForms) Open(key RefineKey) {
	r.form(key).Open = true
}

// Close hides the input. Typed text is kept.
func (r *RefineForms) Close(key RefineKey) {
	if f, ok := r.forms[key]; ok {
		f.Open = false
	}
}

// SetInstruction updates the typed instruction.
func (r *RefineForms) SetInstruction(key RefineKey, text string) {
	r.form(key).Instruction = text
}

// Begin marks the control in flight and returns the request to send.
func (r *RefineForms) Begin(key RefineKey) (banana.RefineRequest, error) {
	f := r.form(key)
	if f.InFlight {
		return banana.RefineRequest{}, ErrInFlight
	}
	f.InFlight = true
	f.Err = ""
	return banana.RefineRequest{
		JobID:       key.JobID,
		Variant:     key.Variant,
		Instruction: strings.TrimSpace(f.Instruction),
	}, nil
}

// Succeed hides and clears the control and returns the agent log line to
// append locally.
func (r *RefineForms) Succeed(key RefineKey) string {
	f := r.form(key)
	instr := strings.TrimSpace(f.Instruction)
	delete(r.forms, key)
	if instr == "" {
		return fmt.Sprintf("Refinement requested for %s", key.Variant)
	}
	return fmt.Sprintf("Refinement requested for %s: %s", key.Variant, instr)
}

// Fail re-enables the control and keeps it open with the typed text.
func (r *RefineForms) Fail(key RefineKey, err error) {
	f := r.form(key)
	f.InFlight = false
	f.Open = true
	f.Err = FailureMessage(err, genericRefineError)
}

// OpenKeys returns the keys of open controls for jobID.
func (r *RefineForms) OpenKeys(jobID string) []RefineKey {
	var out []RefineKey
	for key, f := range r.forms {
		if key.JobID == jobID && f.Open {
			out = append(out, key)
		}
	}
	return out
}
