package models

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repairTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:   "tpl-repair",
		Name: "Repair Workflow",
		Steps: []*WorkflowStep{
			{ID: "test", Name: "Test & Verify", Order: 3},
			{ID: "diagnostic", Name: "Diagnostic", Order: 1},
			{ID: "repair", Name: "Repair", Order: 2},
		},
	}
}

func TestWorkflowTemplate_SortedSteps(t *testing.T) {
	template := repairTemplate()

	sorted := template.SortedSteps()
	require.Len(t, sorted, 3)
	assert.Equal(t, "diagnostic", sorted[0].ID)
	assert.Equal(t, "repair", sorted[1].ID)
	assert.Equal(t, "test", sorted[2].ID)

	// Sorting must not reorder the template's own slice.
	assert.Equal(t, "test", template.Steps[0].ID)
}

func TestWorkflowTemplate_SortedSteps_TieBrokenByID(t *testing.T) {
	template := &WorkflowTemplate{
		Steps: []*WorkflowStep{
			{ID: "b-step", Name: "B", Order: 1},
			{ID: "a-step", Name: "A", Order: 1},
		},
	}

	sorted := template.SortedSteps()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a-step", sorted[0].ID)
	assert.Equal(t, "b-step", sorted[1].ID)
}

func TestWorkflowTemplate_StepByID(t *testing.T) {
	template := repairTemplate()

	step := template.StepByID("repair")
	require.NotNil(t, step)
	assert.Equal(t, "Repair", step.Name)

	assert.Nil(t, template.StepByID("missing"))
}

func TestWorkflowTemplate_StartingStep_Default(t *testing.T) {
	template := repairTemplate()
	template.DefaultStepID = "repair"

	start := template.StartingStep()
	require.NotNil(t, start)
	assert.Equal(t, "repair", start.ID)
}

func TestWorkflowTemplate_StartingStep_FallsBackToFirst(t *testing.T) {
	template := repairTemplate()
	template.DefaultStepID = "no-such-step"

	start := template.StartingStep()
	require.NotNil(t, start)
	assert.Equal(t, "diagnostic", start.ID)
}

func TestWorkflowTemplate_StartingStep_NoSteps(t *testing.T) {
	template := &WorkflowTemplate{ID: "tpl-empty", Name: "Empty"}

	assert.Nil(t, template.StartingStep())
}

func TestWorkflowTemplate_StepOrdinal(t *testing.T) {
	template := repairTemplate()

	assert.Equal(t, 1, template.StepOrdinal("diagnostic"))
	assert.Equal(t, 2, template.StepOrdinal("repair"))
	assert.Equal(t, 3, template.StepOrdinal("test"))
	assert.Equal(t, 0, template.StepOrdinal("missing"))
}

func TestWorkflowTemplate_Validation(t *testing.T) {
	validate := validator.New()

	valid := repairTemplate()
	assert.NoError(t, validate.Struct(valid))

	short := repairTemplate()
	short.Name = "ab"
	assert.Error(t, validate.Struct(short))
}

func TestWorkflowExecution_StepStatusOf(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Hour)

	execution := &WorkflowExecution{
		ID:            "exec-1",
		CurrentStepID: "repair",
		Status:        ExecutionStatusActive,
		StepHistory: []StepHistoryEntry{
			{StepID: "diagnostic", StartedAt: started, CompletedAt: &completed},
			{StepID: "repair", StartedAt: completed},
		},
	}

	assert.Equal(t, StepStatusCompleted, execution.StepStatusOf("diagnostic"))
	assert.Equal(t, StepStatusActive, execution.StepStatusOf("repair"))
	assert.Equal(t, StepStatusPending, execution.StepStatusOf("test"))
}

func TestWorkflowExecution_HistoryFor_ReturnsLatestEntry(t *testing.T) {
	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	execution := &WorkflowExecution{
		StepHistory: []StepHistoryEntry{
			{StepID: "repair", StartedAt: first, Notes: "first pass"},
			{StepID: "repair", StartedAt: second, Notes: "second pass"},
		},
	}

	entry := execution.HistoryFor("repair")
	require.NotNil(t, entry)
	assert.Equal(t, "second pass", entry.Notes)

	assert.Nil(t, execution.HistoryFor("missing"))
}

func TestWorkflowExecution_HistoryFor_MutableReference(t *testing.T) {
	execution := &WorkflowExecution{
		StepHistory: []StepHistoryEntry{
			{StepID: "diagnostic", StartedAt: time.Now().UTC()},
		},
	}

	entry := execution.HistoryFor("diagnostic")
	require.NotNil(t, entry)

	now := time.Now().UTC()
	entry.CompletedAt = &now

	assert.Equal(t, StepStatusCompleted, execution.StepStatusOf("diagnostic"))
}
