package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ErrServiceOrderNotFound is returned when a service order is not found.
var ErrServiceOrderNotFound = persistence.ErrServiceOrderNotFound

// ServiceOrder is the service for service order records.
type ServiceOrder struct {
	persistence persistence.Persistence
}

// NewServiceOrder creates a new service order service.
func NewServiceOrder(persistence persistence.Persistence) *ServiceOrder {
	return &ServiceOrder{persistence: persistence}
}

// List retrieves all service orders, newest first.
func (s *ServiceOrder) List(ctx context.Context) ([]*models.ServiceOrder, error) {
	orders, err := s.persistence.ServiceOrderRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list service orders: %w", err)
	}

	return orders, nil
}

// FetchByID retrieves a service order by its ID.
func (s *ServiceOrder) FetchByID(ctx context.Context, id string) (*models.ServiceOrder, error) {
	order, err := s.persistence.ServiceOrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order == nil {
		return nil, ErrServiceOrderNotFound
	}

	return order, nil
}

// Create stores a new service order in the open state.
func (s *ServiceOrder) Create(ctx context.Context, order *models.ServiceOrder) (*models.ServiceOrder, error) {
	now := time.Now().UTC()
	order.ID = uuid.New().String()
	order.CreatedAt = now
	order.UpdatedAt = now

	if order.Status == "" {
		order.Status = models.ServiceOrderStatusOpen
	}

	err := s.persistence.ServiceOrderRepository().Save(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create service order: %w", err)
	}

	return order, nil
}
