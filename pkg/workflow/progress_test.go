package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacops/stepflow/pkg/models"
)

func maintenanceTemplate() *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		ID:   "tpl-maintenance",
		Name: "Maintenance Workflow",
		Steps: []*models.WorkflowStep{
			{ID: "inspect", Name: "Inspection", Order: 1},
			{ID: "service", Name: "Service", Order: 2},
			{ID: "signoff", Name: "Sign-off", Order: 3},
		},
	}
}

func executionOn(template *models.WorkflowTemplate, currentStepID string, completedSteps ...string) *models.WorkflowExecution {
	started := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	execution := &models.WorkflowExecution{
		ID:                 "exec-1",
		ServiceOrderID:     "order-1",
		WorkflowTemplateID: template.ID,
		CurrentStepID:      currentStepID,
		Status:             models.ExecutionStatusActive,
		StartedAt:          started,
	}

	for i, stepID := range completedSteps {
		at := started.Add(time.Duration(i+1) * time.Hour)
		execution.StepHistory = append(execution.StepHistory, models.StepHistoryEntry{
			StepID:      stepID,
			StartedAt:   at.Add(-time.Hour),
			CompletedAt: &at,
		})
	}

	if currentStepID != "" {
		execution.StepHistory = append(execution.StepHistory, models.StepHistoryEntry{
			StepID:    currentStepID,
			StartedAt: started.Add(time.Duration(len(completedSteps)) * time.Hour),
		})
	}

	return execution
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name         string
		currentIndex int
		totalSteps   int
		want         int
	}{
		{"first of three", 0, 3, 0},
		{"middle of three", 1, 3, 50},
		{"last of three", 2, 3, 100},
		{"second of four rounds down", 1, 4, 33},
		{"third of four rounds up", 2, 4, 67},
		{"unknown current step", -1, 3, 0},
		{"no steps", 0, 0, 0},
		{"single step", 0, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.currentIndex, tt.totalSteps))
		})
	}
}

func TestSnapshot_LiveMidWorkflow(t *testing.T) {
	template := maintenanceTemplate()
	execution := executionOn(template, "service", "inspect")

	progress := Snapshot(NewLiveView(execution, template))

	assert.Equal(t, template.ID, progress.TemplateID)
	assert.Equal(t, 1, progress.CurrentIndex)
	assert.Equal(t, 50, progress.Percent)
	assert.Equal(t, "signoff", progress.NextStepID)
	assert.False(t, progress.Completed)
	assert.False(t, progress.ReadOnly)

	require.Len(t, progress.Steps, 3)
	assert.Equal(t, models.StepStatusCompleted, progress.Steps[0].Status)
	assert.Equal(t, models.StepStatusActive, progress.Steps[1].Status)
	assert.True(t, progress.Steps[1].Current)
	assert.Equal(t, models.StepStatusPending, progress.Steps[2].Status)
}

func TestSnapshot_CompletedExecution(t *testing.T) {
	template := maintenanceTemplate()
	execution := executionOn(template, "", "inspect", "service", "signoff")
	execution.CurrentStepID = "signoff"
	execution.Status = models.ExecutionStatusCompleted

	progress := Snapshot(NewLiveView(execution, template))

	assert.True(t, progress.Completed)
	assert.Equal(t, 100, progress.Percent)
	assert.Empty(t, progress.NextStepID)
}

func TestSnapshot_UnknownCurrentStep(t *testing.T) {
	template := maintenanceTemplate()
	execution := executionOn(template, "removed-step")

	progress := Snapshot(NewLiveView(execution, template))

	assert.Equal(t, -1, progress.CurrentIndex)
	assert.Equal(t, 0, progress.Percent)
	assert.Empty(t, progress.NextStepID)
}

func TestSnapshot_Preview(t *testing.T) {
	template := maintenanceTemplate()

	progress := Snapshot(NewPreviewView(template))

	assert.True(t, progress.ReadOnly)
	assert.Equal(t, 0, progress.CurrentIndex)
	assert.Equal(t, 0, progress.Percent)
	assert.Equal(t, "service", progress.NextStepID)
	assert.Equal(t, models.StepStatusActive, progress.Steps[0].Status)
	assert.Equal(t, models.StepStatusPending, progress.Steps[1].Status)
}

func TestSnapshot_PreviewHonorsDefaultStep(t *testing.T) {
	template := maintenanceTemplate()
	template.DefaultStepID = "service"

	progress := Snapshot(NewPreviewView(template))

	assert.Equal(t, 1, progress.CurrentIndex)
	assert.Equal(t, 50, progress.Percent)
}

func TestNextStep(t *testing.T) {
	template := maintenanceTemplate()

	next := NextStep(template, "inspect")
	require.NotNil(t, next)
	assert.Equal(t, "service", next.ID)

	assert.Nil(t, NextStep(template, "signoff"))
	assert.Nil(t, NextStep(template, "missing"))
}

func TestIsFinalStep(t *testing.T) {
	template := maintenanceTemplate()

	assert.False(t, IsFinalStep(template, "inspect"))
	assert.True(t, IsFinalStep(template, "signoff"))
	assert.False(t, IsFinalStep(template, "missing"))
	assert.False(t, IsFinalStep(&models.WorkflowTemplate{}, "anything"))
}
