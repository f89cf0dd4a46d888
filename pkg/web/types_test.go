package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacops/stepflow/pkg/models"
)

func TestTransformHistory(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Hour)

	execution := &models.WorkflowExecution{
		ID: "exec-1",
		StepHistory: []models.StepHistoryEntry{
			{StepID: "diagnostic", StartedAt: started, CompletedAt: &completed, CompletedBy: "tech-7"},
			{StepID: "repair", StartedAt: completed},
		},
	}
	template := &models.WorkflowTemplate{
		ID: "tpl-1",
		Steps: []*models.WorkflowStep{
			{ID: "diagnostic", Name: "Diagnostic", Description: "Find the fault", Order: 1},
			{ID: "repair", Name: "Repair", Order: 2},
		},
	}

	entries := TransformHistory(execution, template)
	require.Len(t, entries, 2)

	assert.Equal(t, "Diagnostic", entries[0].StepName)
	assert.Equal(t, "Find the fault", entries[0].StepDescription)
	assert.Equal(t, "completed", entries[0].Status)
	assert.Equal(t, "tech-7", entries[0].CompletedBy)

	assert.Equal(t, "Repair", entries[1].StepName)
	assert.Equal(t, "active", entries[1].Status)
	assert.Nil(t, entries[1].CompletedAt)
}

func TestTransformHistory_MissingTemplate(t *testing.T) {
	execution := &models.WorkflowExecution{
		ID: "exec-1",
		StepHistory: []models.StepHistoryEntry{
			{StepID: "removed-step", StartedAt: time.Now().UTC()},
		},
	}

	entries := TransformHistory(execution, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "Step 1", entries[0].StepName)
}

func TestTransformHistory_StepRemovedFromTemplate(t *testing.T) {
	execution := &models.WorkflowExecution{
		StepHistory: []models.StepHistoryEntry{
			{StepID: "old-step", StartedAt: time.Now().UTC()},
			{StepID: "repair", StartedAt: time.Now().UTC()},
		},
	}
	template := &models.WorkflowTemplate{
		Steps: []*models.WorkflowStep{{ID: "repair", Name: "Repair", Order: 1}},
	}

	entries := TransformHistory(execution, template)
	require.Len(t, entries, 2)
	assert.Equal(t, "Step 1", entries[0].StepName)
	assert.Equal(t, "Repair", entries[1].StepName)
}

func TestCreateTemplateRequest_ToModel(t *testing.T) {
	req := &CreateTemplateRequest{
		Name:          "Repair Workflow",
		ServiceType:   "repair",
		DefaultStepID: "diagnostic",
		Steps: []CreateStepRequest{
			{ID: "diagnostic", Name: "Diagnostic", Order: 1, FormSchema: map[string]any{"type": "object"}},
		},
	}

	template := req.toModel()
	assert.Equal(t, "Repair Workflow", template.Name)
	assert.Equal(t, "diagnostic", template.DefaultStepID)
	require.Len(t, template.Steps, 1)
	assert.Equal(t, map[string]any{"type": "object"}, template.Steps[0].FormSchema)
}
