package file

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// TemplateRepository stores workflow templates as JSON files.
type TemplateRepository struct {
	dir string
	mu  sync.RWMutex
}

func (r *TemplateRepository) List(ctx context.Context, opts persistence.TemplateListOptions) ([]*models.WorkflowTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := listIDs(r.dir)
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	templates := make([]*models.WorkflowTemplate, 0, len(ids))

	for _, id := range ids {
		template, err := r.read(id)
		if err != nil {
			return nil, err
		}

		if template == nil || template.DeletedAt != nil {
			continue
		}

		if opts.ServiceType != "" && template.ServiceType != "" && template.ServiceType != opts.ServiceType {
			continue
		}

		if !opts.IncludeSteps {
			template.Steps = nil
		}

		templates = append(templates, template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string, includeSteps bool) (*models.WorkflowTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, err := r.read(id)
	if err != nil {
		return nil, err
	}

	if template == nil || template.DeletedAt != nil {
		return nil, nil
	}

	if !includeSteps {
		template.Steps = nil
	}

	return template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeEntity(r.dir, template.ID, template); err != nil {
		return persistence.NewStoreError("Save", template.ID, err)
	}

	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	template, err := r.read(id)
	if err != nil {
		return err
	}

	if template == nil || template.DeletedAt != nil {
		return persistence.NewStoreError("Delete", id, persistence.ErrTemplateNotFound)
	}

	now := time.Now().UTC()
	template.DeletedAt = &now

	if err := writeEntity(r.dir, id, template); err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}

func (r *TemplateRepository) read(id string) (*models.WorkflowTemplate, error) {
	var template models.WorkflowTemplate

	err := readEntity(r.dir, id, &template)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &template, nil
}
