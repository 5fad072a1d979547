package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/persistence"
)

// FlowRepository stores flows as one JSON document per flow under
// <root>/flows.
type FlowRepository struct {
	root string
}

func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{root: root}
}

func (fr *FlowRepository) dir() string {
	return filepath.Join(fr.root, "flows")
}

func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

func (fr *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	entries, err := os.ReadDir(fr.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read flows directory: %w", err)
	}

	flows := make([]*models.Flow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		flow, err := fr.FlowByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	return flows, nil
}

func (fr *FlowRepository) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("invalid flow ID: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(fr.dir(), id+".json")) // #nosec G304 -- id is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to read flow %s: %w", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow %s: %w", id, err)
	}

	return &flow, nil
}

func (fr *FlowRepository) ActiveFlowsByTriggerType(ctx context.Context, triggerType string) ([]*models.Flow, error) {
	all, err := fr.Flows(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.Flow

	for _, flow := range all {
		if flow.Active && flow.TriggerType == triggerType {
			matched = append(matched, flow)
		}
	}

	return matched, nil
}

func (fr *FlowRepository) SaveFlow(_ context.Context, flow *models.Flow) error {
	if err := validateID(flow.ID); err != nil {
		return fmt.Errorf("invalid flow ID: %w", err)
	}

	if err := os.MkdirAll(fr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	flow.UpdatedAt = time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = flow.UpdatedAt
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode flow %s: %w", flow.ID, err)
	}

	if err := os.WriteFile(filepath.Join(fr.dir(), flow.ID+".json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write flow %s: %w", flow.ID, err)
	}

	return nil
}

func (fr *FlowRepository) DeleteFlow(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("invalid flow ID: %w", err)
	}

	err := os.Remove(filepath.Join(fr.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrFlowNotFound
		}

		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}

	return nil
}
