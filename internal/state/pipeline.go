package state

import "github.com/five82/squadboard/internal/banana"

// StepStatus is how one pipeline stage renders.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepActive
	StepDone
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepActive:
		return "active"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Step pairs a pipeline stage with its rendered status.
type Step struct {
	Stage  banana.Stage
	Status StepStatus
}

// PipelineSteps projects a job's stage onto the canonical pipeline. Stages
// before the current one are done and the current one is active; a
// complete job renders every stage done. A failed job renders failedAt as
// failed with the stages after it pending.
func PipelineSteps(stage, failedAt banana.Stage) []Step {
	steps := make([]Step, len(banana.PipelineStages))
	current := stage.Index()
	failed := stage == banana.StageFailed
	if failed {
		current = failedAt.Index()
		if current < 0 || failedAt == banana.StageComplete {
			current = 0
		}
	}
	if current < 0 {
		current = 0
	}

	for i, s := range banana.PipelineStages {
		steps[i].Stage = s
		switch {
		case stage == banana.StageComplete:
			steps[i].Status = StepDone
		case i < current:
			steps[i].Status = StepDone
		case i == current && failed:
			steps[i].Status = StepFailed
		case i == current:
			steps[i].Status = StepActive
		default:
			steps[i].Status = StepPending
		}
	}
	return steps
}
