//go:build integration
// +build integration

package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if postgresContainer != nil {
		_ = postgresContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

func setupTestDB(t *testing.T) (*Persistence, context.Context) {
	t.Helper()

	ctx := context.Background()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error
		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("stepflow_test"),
			postgres.WithUsername("stepflow"),
			postgres.WithPassword("stepflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	cleanupDB(t, databaseURL)

	return p, ctx
}

func cleanupDB(t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		_ = db.Close()
	}()

	_, err = db.ExecContext(context.Background(),
		"TRUNCATE TABLE workflow_executions, service_orders, workflow_templates")
	require.NoError(t, err)
}

func saveTemplate(t *testing.T, p *Persistence, ctx context.Context) *models.WorkflowTemplate {
	t.Helper()

	now := time.Now().UTC()
	template := &models.WorkflowTemplate{
		ID:          uuid.New().String(),
		Name:        "Repair Workflow",
		ServiceType: "repair",
		Steps: []*models.WorkflowStep{
			{ID: "diagnostic", Name: "Diagnostic", Order: 1},
			{ID: "repair", Name: "Repair", Order: 2},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, p.TemplateRepository().Save(ctx, template))

	return template
}

func saveOrder(t *testing.T, p *Persistence, ctx context.Context) *models.ServiceOrder {
	t.Helper()

	now := time.Now().UTC()
	order := &models.ServiceOrder{
		ID:           uuid.New().String(),
		CustomerName: "Dana Frost",
		ServiceType:  "repair",
		Status:       models.ServiceOrderStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, p.ServiceOrderRepository().Save(ctx, order))

	return order
}

func TestTemplateRepository_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	template := saveTemplate(t, p, ctx)

	fetched, err := p.TemplateRepository().GetByID(ctx, template.ID, true)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Repair Workflow", fetched.Name)
	require.Len(t, fetched.Steps, 2)
	assert.Equal(t, "diagnostic", fetched.Steps[0].ID)

	slim, err := p.TemplateRepository().GetByID(ctx, template.ID, false)
	require.NoError(t, err)
	assert.Nil(t, slim.Steps)
}

func TestTemplateRepository_SoftDelete(t *testing.T) {
	p, ctx := setupTestDB(t)

	template := saveTemplate(t, p, ctx)

	require.NoError(t, p.TemplateRepository().Delete(ctx, template.ID))

	fetched, err := p.TemplateRepository().GetByID(ctx, template.ID, true)
	require.NoError(t, err)
	assert.Nil(t, fetched)

	templates, err := p.TemplateRepository().List(ctx, persistence.TemplateListOptions{IncludeSteps: true})
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestExecutionRepository_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	template := saveTemplate(t, p, ctx)
	order := saveOrder(t, p, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	execution := &models.WorkflowExecution{
		ID:                 uuid.New().String(),
		ServiceOrderID:     order.ID,
		WorkflowTemplateID: template.ID,
		CurrentStepID:      "diagnostic",
		Status:             models.ExecutionStatusActive,
		StartedAt:          now,
		StepHistory: []models.StepHistoryEntry{
			{StepID: "diagnostic", StartedAt: now},
		},
	}
	require.NoError(t, p.ExecutionRepository().Save(ctx, execution))

	fetched, err := p.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "diagnostic", fetched.CurrentStepID)
	require.Len(t, fetched.StepHistory, 1)
	assert.Nil(t, fetched.StepHistory[0].CompletedAt)

	byOrder, err := p.ExecutionRepository().GetByServiceOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, byOrder)
	assert.Equal(t, execution.ID, byOrder.ID)
}

func TestExecutionRepository_OneActivePerOrder(t *testing.T) {
	p, ctx := setupTestDB(t)

	template := saveTemplate(t, p, ctx)
	order := saveOrder(t, p, ctx)

	now := time.Now().UTC()
	first := &models.WorkflowExecution{
		ID:                 uuid.New().String(),
		ServiceOrderID:     order.ID,
		WorkflowTemplateID: template.ID,
		CurrentStepID:      "diagnostic",
		Status:             models.ExecutionStatusActive,
		StartedAt:          now,
	}
	require.NoError(t, p.ExecutionRepository().Save(ctx, first))

	second := &models.WorkflowExecution{
		ID:                 uuid.New().String(),
		ServiceOrderID:     order.ID,
		WorkflowTemplateID: template.ID,
		CurrentStepID:      "diagnostic",
		Status:             models.ExecutionStatusActive,
		StartedAt:          now,
	}

	err := p.ExecutionRepository().Save(ctx, second)
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionExists(err))

	// Updating the existing active execution is still allowed.
	first.CurrentStepID = "repair"
	require.NoError(t, p.ExecutionRepository().Save(ctx, first))
}

func TestExecutionRepository_ListActive(t *testing.T) {
	p, ctx := setupTestDB(t)

	template := saveTemplate(t, p, ctx)

	now := time.Now().UTC()

	for i, status := range []models.ExecutionStatus{
		models.ExecutionStatusActive,
		models.ExecutionStatusCompleted,
	} {
		order := saveOrder(t, p, ctx)
		execution := &models.WorkflowExecution{
			ID:                 uuid.New().String(),
			ServiceOrderID:     order.ID,
			WorkflowTemplateID: template.ID,
			CurrentStepID:      "diagnostic",
			Status:             status,
			StartedAt:          now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, p.ExecutionRepository().Save(ctx, execution))
	}

	active, err := p.ExecutionRepository().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.ExecutionStatusActive, active[0].Status)
}

func TestServiceOrderRepository_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	order := saveOrder(t, p, ctx)

	order.Status = models.ServiceOrderStatusInProgress
	order.CurrentStep = 2
	require.NoError(t, p.ServiceOrderRepository().Save(ctx, order))

	fetched, err := p.ServiceOrderRepository().GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.ServiceOrderStatusInProgress, fetched.Status)
	assert.Equal(t, 2, fetched.CurrentStep)

	orders, err := p.ServiceOrderRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
