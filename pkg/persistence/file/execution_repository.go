package file

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ExecutionRepository stores workflow executions as JSON files keyed by
// execution ID. Service-order lookup scans the directory; the file store is a
// development backend, not sized for production data.
type ExecutionRepository struct {
	dir string
	mu  sync.RWMutex
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

func (r *ExecutionRepository) GetByServiceOrder(ctx context.Context, serviceOrderID string) (*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executions, err := r.all()
	if err != nil {
		return nil, err
	}

	// Prefer the active execution; fall back to the newest completed one.
	var newest *models.WorkflowExecution

	for _, execution := range executions {
		if execution.ServiceOrderID != serviceOrderID {
			continue
		}

		if execution.Status == models.ExecutionStatusActive {
			return execution, nil
		}

		if newest == nil || execution.StartedAt.After(newest.StartedAt) {
			newest = execution
		}
	}

	return newest, nil
}

func (r *ExecutionRepository) ListActive(ctx context.Context) ([]*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executions, err := r.all()
	if err != nil {
		return nil, err
	}

	active := make([]*models.WorkflowExecution, 0, len(executions))

	for _, execution := range executions {
		if execution.Status == models.ExecutionStatusActive {
			active = append(active, execution)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].StartedAt.Before(active[j].StartedAt)
	})

	return active, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeEntity(r.dir, execution.ID, execution); err != nil {
		return persistence.NewStoreError("Save", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) all() ([]*models.WorkflowExecution, error) {
	ids, err := listIDs(r.dir)
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.read(id)
		if err != nil {
			return nil, err
		}

		if execution != nil {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

func (r *ExecutionRepository) read(id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	err := readEntity(r.dir, id, &execution)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &execution, nil
}
