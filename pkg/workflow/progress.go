package workflow

import (
	"math"

	"github.com/hvacops/stepflow/pkg/models"
)

// StepState is one step of a snapshot with its derived status.
type StepState struct {
	Step    *models.WorkflowStep `json:"step"`
	Status  models.StepStatus    `json:"status"`
	Current bool                 `json:"current"`
}

// Progress is a point-in-time snapshot of a workflow view: the sorted steps
// with derived statuses, the current position, and the percent complete.
type Progress struct {
	TemplateID   string      `json:"template_id"`
	TemplateName string      `json:"template_name"`
	Steps        []StepState `json:"steps"`
	CurrentIndex int         `json:"current_index"`
	NextStepID   string      `json:"next_step_id,omitempty"`
	Percent      int         `json:"percent"`
	Completed    bool        `json:"completed"`
	ReadOnly     bool        `json:"read_only"`
}

// Snapshot computes the progress of a view. The current index is the position
// of the view's current step in sorted order, or -1 when the step is unknown
// (percent is then 0). There is no next step after the last step.
func Snapshot(view View) *Progress {
	template := view.Template()
	sorted := template.SortedSteps()
	currentID := view.CurrentStepID()

	currentIndex := -1
	completed := len(sorted) > 0

	states := make([]StepState, 0, len(sorted))

	for i, step := range sorted {
		status := view.StepStatus(step.ID)
		if status != models.StepStatusCompleted {
			completed = false
		}

		current := step.ID == currentID
		if current {
			currentIndex = i
		}

		states = append(states, StepState{Step: step, Status: status, Current: current})
	}

	progress := &Progress{
		TemplateID:   template.ID,
		TemplateName: template.Name,
		Steps:        states,
		CurrentIndex: currentIndex,
		Percent:      Percent(currentIndex, len(sorted)),
		Completed:    completed,
		ReadOnly:     view.ReadOnly(),
	}

	if completed {
		progress.Percent = 100
	}

	if currentIndex >= 0 && currentIndex+1 < len(sorted) {
		progress.NextStepID = sorted[currentIndex+1].ID
	}

	return progress
}

// Percent computes the progress percentage for a current step index within
// totalSteps steps: round(index / (totalSteps-1) * 100). An unknown current
// step (index < 0) is 0. Single-step templates would divide by zero, so they
// are 100 once their sole step is reached and 0 before.
func Percent(currentIndex, totalSteps int) int {
	if currentIndex < 0 || totalSteps == 0 {
		return 0
	}

	if totalSteps == 1 {
		return 100
	}

	return int(math.Round(float64(currentIndex) / float64(totalSteps-1) * 100))
}

// NextStep returns the step after the given one in the template's sorted
// order, or nil when the step is last or unknown.
func NextStep(template *models.WorkflowTemplate, stepID string) *models.WorkflowStep {
	sorted := template.SortedSteps()
	for i, step := range sorted {
		if step.ID == stepID {
			if i+1 < len(sorted) {
				return sorted[i+1]
			}

			return nil
		}
	}

	return nil
}

// IsFinalStep reports whether the given step is the last of the template's
// sorted sequence.
func IsFinalStep(template *models.WorkflowTemplate, stepID string) bool {
	sorted := template.SortedSteps()
	if len(sorted) == 0 {
		return false
	}

	return sorted[len(sorted)-1].ID == stepID
}
