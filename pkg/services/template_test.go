package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence/file"
)

func newTemplateService(t *testing.T) *Template {
	t.Helper()

	return NewTemplate(file.NewPersistence(t.TempDir()))
}

func TestTemplate_Create(t *testing.T) {
	service := newTemplateService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &models.WorkflowTemplate{
		Name:        "Maintenance Workflow",
		ServiceType: "maintenance",
		Steps: []*models.WorkflowStep{
			{ID: "inspect", Name: "Inspection", Order: 1},
			{Name: "Service", Order: 2}, // no ID, gets a generated one
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.Steps[1].ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.FetchByID(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance Workflow", fetched.Name)
	assert.Len(t, fetched.Steps, 2)
}

func TestTemplate_Create_Validation(t *testing.T) {
	service := newTemplateService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		template *models.WorkflowTemplate
		wantErr  error
	}{
		{
			name:     "missing name",
			template: &models.WorkflowTemplate{Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}}},
			wantErr:  ErrTemplateNameMissing,
		},
		{
			name:     "no steps",
			template: &models.WorkflowTemplate{Name: "Empty Workflow"},
			wantErr:  ErrTemplateHasNoSteps,
		},
		{
			name: "duplicate step ids",
			template: &models.WorkflowTemplate{
				Name: "Duplicated Workflow",
				Steps: []*models.WorkflowStep{
					{ID: "a", Name: "A", Order: 1},
					{ID: "a", Name: "A again", Order: 2},
				},
			},
			wantErr: ErrDuplicateStepID,
		},
		{
			name: "non-positive order",
			template: &models.WorkflowTemplate{
				Name:  "Zero Order Workflow",
				Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 0}},
			},
			wantErr: ErrInvalidStepOrder,
		},
		{
			name: "unknown default step",
			template: &models.WorkflowTemplate{
				Name:          "Bad Default Workflow",
				DefaultStepID: "missing",
				Steps:         []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}},
			},
			wantErr: ErrUnknownDefaultStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.template)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestTemplate_Delete(t *testing.T) {
	service := newTemplateService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &models.WorkflowTemplate{
		Name:  "Disposable Workflow",
		Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.FetchByID(ctx, created.ID, false)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	assert.ErrorIs(t, service.Delete(ctx, created.ID), ErrTemplateNotFound)
}

func TestTemplate_List_FilterByServiceType(t *testing.T) {
	service := newTemplateService(t)
	ctx := context.Background()

	for _, tpl := range []*models.WorkflowTemplate{
		{Name: "Repair Workflow", ServiceType: "repair", Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}}},
		{Name: "Maintenance Workflow", ServiceType: "maintenance", Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}}},
		{Name: "General Workflow", Steps: []*models.WorkflowStep{{ID: "a", Name: "A", Order: 1}}},
	} {
		_, err := service.Create(ctx, tpl)
		require.NoError(t, err)
	}

	repair, err := service.List(ctx, ListTemplatesRequest{ServiceType: "repair", IncludeSteps: true})
	require.NoError(t, err)
	require.Len(t, repair, 2)

	names := []string{repair[0].Name, repair[1].Name}
	assert.Contains(t, names, "Repair Workflow")
	assert.Contains(t, names, "General Workflow")

	all, err := service.List(ctx, ListTemplatesRequest{IncludeSteps: false})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Nil(t, all[0].Steps)
}

func TestTemplate_HealthCheck(t *testing.T) {
	service := newTemplateService(t)

	message, healthy := service.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Contains(t, message, "healthy")

	var uninitialized Template

	_, healthy = uninitialized.HealthCheck(context.Background())
	assert.False(t, healthy)
}
