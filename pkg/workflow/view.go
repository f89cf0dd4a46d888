// Package workflow derives progress state for service-order workflows: per-step
// statuses, percent complete, and next-step lookup over a template's sorted
// step sequence.
package workflow

import "github.com/hvacops/stepflow/pkg/models"

// View is a workflow bound to a template, either live (backed by an execution)
// or a read-only preview (template only, before assignment). The two cases are
// distinct types so callers never coalesce them at runtime.
type View interface {
	Template() *models.WorkflowTemplate
	CurrentStepID() string
	StepStatus(stepID string) models.StepStatus
	ReadOnly() bool
}

// LiveView is an interactive view over a running execution.
type LiveView struct {
	Execution *models.WorkflowExecution
	template  *models.WorkflowTemplate
}

// NewLiveView binds an execution to its template.
func NewLiveView(execution *models.WorkflowExecution, template *models.WorkflowTemplate) *LiveView {
	return &LiveView{Execution: execution, template: template}
}

func (v *LiveView) Template() *models.WorkflowTemplate {
	return v.template
}

func (v *LiveView) CurrentStepID() string {
	return v.Execution.CurrentStepID
}

func (v *LiveView) StepStatus(stepID string) models.StepStatus {
	return v.Execution.StepStatusOf(stepID)
}

func (v *LiveView) ReadOnly() bool {
	return false
}

// PreviewView is a read-only view over a bare template, seeded from the
// template's starting step. Used before an execution exists.
type PreviewView struct {
	template *models.WorkflowTemplate
}

// NewPreviewView creates a read-only view for an unassigned template.
func NewPreviewView(template *models.WorkflowTemplate) *PreviewView {
	return &PreviewView{template: template}
}

func (v *PreviewView) Template() *models.WorkflowTemplate {
	return v.template
}

func (v *PreviewView) CurrentStepID() string {
	step := v.template.StartingStep()
	if step == nil {
		return ""
	}

	return step.ID
}

func (v *PreviewView) StepStatus(stepID string) models.StepStatus {
	if stepID == v.CurrentStepID() {
		return models.StepStatusActive
	}

	return models.StepStatusPending
}

func (v *PreviewView) ReadOnly() bool {
	return true
}
