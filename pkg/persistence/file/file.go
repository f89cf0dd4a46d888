// Package file provides a file-system persistence implementation, used for
// local development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hvacops/stepflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON files, one subdirectory per aggregate.
type Persistence struct {
	root             string
	templateRepo     *TemplateRepository
	executionRepo    *ExecutionRepository
	serviceOrderRepo *ServiceOrderRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts plain paths and file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:             cleanRoot,
		templateRepo:     &TemplateRepository{dir: filepath.Join(cleanRoot, "templates")},
		executionRepo:    &ExecutionRepository{dir: filepath.Join(cleanRoot, "executions")},
		serviceOrderRepo: &ServiceOrderRepository{dir: filepath.Join(cleanRoot, "service_orders")},
	}
}

// Close performs any necessary cleanup. Nothing to release for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return p.templateRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) ServiceOrderRepository() persistence.ServiceOrderRepository {
	return p.serviceOrderRepo
}

// writeEntity marshals an entity to <dir>/<id>.json, creating the directory
// on first write.
func writeEntity(dir, id string, entity any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entity %s: %w", id, err)
	}

	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// readEntity unmarshals <dir>/<id>.json into target. Reports os.ErrNotExist
// when the entity has never been written.
func readEntity(dir, id string, target any) error {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal entity %s: %w", id, err)
	}

	return nil
}

// listIDs returns the entity IDs present in a directory. A missing directory
// is an empty store, not an error.
func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
