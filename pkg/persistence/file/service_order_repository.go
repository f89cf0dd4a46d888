package file

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ServiceOrderRepository stores service orders as JSON files.
type ServiceOrderRepository struct {
	dir string
	mu  sync.RWMutex
}

func (r *ServiceOrderRepository) List(ctx context.Context) ([]*models.ServiceOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := listIDs(r.dir)
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	orders := make([]*models.ServiceOrder, 0, len(ids))

	for _, id := range ids {
		order, err := r.read(id)
		if err != nil {
			return nil, err
		}

		if order != nil {
			orders = append(orders, order)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return orders, nil
}

func (r *ServiceOrderRepository) GetByID(ctx context.Context, id string) (*models.ServiceOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

func (r *ServiceOrderRepository) Save(ctx context.Context, order *models.ServiceOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeEntity(r.dir, order.ID, order); err != nil {
		return persistence.NewStoreError("Save", order.ID, err)
	}

	return nil
}

func (r *ServiceOrderRepository) read(id string) (*models.ServiceOrder, error) {
	var order models.ServiceOrder

	err := readEntity(r.dir, id, &order)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &order, nil
}
