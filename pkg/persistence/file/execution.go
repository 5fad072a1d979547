package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/persistence"
)

// ExecutionRepository stores execution records as one JSON document per run
// under <root>/executions.
//
// The file system has no conditional-update primitives, so the repository
// serializes writers per execution with an in-process lock and expresses
// every mutation as a targeted read-modify-write under that lock: guarded
// inserts, addressed element updates, and counter increments. Concurrent
// branches of the same run therefore never lose each other's writes.
type ExecutionRepository struct {
	root  string
	locks sync.Map // execution id -> *sync.Mutex
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

func (er *ExecutionRepository) lock(id string) *sync.Mutex {
	mu, _ := er.locks.LoadOrStore(id, &sync.Mutex{})

	return mu.(*sync.Mutex)
}

func (er *ExecutionRepository) load(id string) (*models.ExecutionRecord, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("invalid execution ID: %w", err)
	}

	data, err := os.ReadFile(er.path(id)) // #nosec G304 -- id is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var record models.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &record, nil
}

func (er *ExecutionRepository) save(record *models.ExecutionRecord) error {
	if err := os.MkdirAll(er.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", record.ID, err)
	}

	if err := os.WriteFile(er.path(record.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write execution %s: %w", record.ID, err)
	}

	return nil
}

// mutate applies one targeted mutation under the execution's writer lock.
func (er *ExecutionRepository) mutate(id string, apply func(*models.ExecutionRecord) error) error {
	mu := er.lock(id)
	mu.Lock()
	defer mu.Unlock()

	record, err := er.load(id)
	if err != nil {
		return err
	}

	if err := apply(record); err != nil {
		return err
	}

	return er.save(record)
}

func (er *ExecutionRepository) CreateExecution(_ context.Context, record *models.ExecutionRecord) error {
	mu := er.lock(record.ID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(er.path(record.ID)); err == nil {
		return persistence.NewExecutionError("CreateExecution", record.ID, persistence.ErrExecutionAlreadyExists)
	}

	now := time.Now().UTC()
	record.CreatedAt = now

	return er.save(record)
}

func (er *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.ExecutionRecord, error) {
	mu := er.lock(id)
	mu.Lock()
	defer mu.Unlock()

	return er.load(id)
}

func (er *ExecutionRepository) EnsureNodeExecution(_ context.Context, executionID string, entry *models.NodeExecution) (*models.NodeExecution, bool, error) {
	var (
		result  *models.NodeExecution
		created bool
	)

	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		if existing, ok := record.NodeExecutionByID(entry.NodeID); ok {
			result = existing

			return nil
		}

		record.NodeExecutions = append(record.NodeExecutions, entry)
		result = entry
		created = true

		return nil
	})
	if err != nil {
		return nil, false, persistence.NewNodeExecutionError("EnsureNodeExecution", executionID, entry.NodeID, err)
	}

	return result, created, nil
}

func (er *ExecutionRepository) CompleteNodeExecution(_ context.Context, executionID, nodeID string, result map[string]any) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		entry, ok := record.NodeExecutionByID(nodeID)
		if !ok {
			return persistence.ErrNodeExecutionNotFound
		}

		now := time.Now().UTC()
		entry.Status = models.NodeExecutionStatusCompleted
		entry.FinishedAt = &now
		entry.Result = result
		entry.Error = ""

		return nil
	})
	if err != nil {
		return persistence.NewNodeExecutionError("CompleteNodeExecution", executionID, nodeID, err)
	}

	return nil
}

func (er *ExecutionRepository) FailNodeExecution(_ context.Context, executionID, nodeID, errMsg string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		entry, ok := record.NodeExecutionByID(nodeID)
		if !ok {
			return persistence.ErrNodeExecutionNotFound
		}

		now := time.Now().UTC()
		entry.Status = models.NodeExecutionStatusFailed
		entry.FinishedAt = &now
		entry.Error = errMsg

		return nil
	})
	if err != nil {
		return persistence.NewNodeExecutionError("FailNodeExecution", executionID, nodeID, err)
	}

	return nil
}

func (er *ExecutionRepository) RetryNodeExecution(_ context.Context, executionID, nodeID string) (int, error) {
	var count int

	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		entry, ok := record.NodeExecutionByID(nodeID)
		if !ok {
			return persistence.ErrNodeExecutionNotFound
		}

		entry.RetryCount++
		entry.Status = models.NodeExecutionStatusRunning
		entry.FinishedAt = nil
		count = entry.RetryCount

		return nil
	})
	if err != nil {
		return 0, persistence.NewNodeExecutionError("RetryNodeExecution", executionID, nodeID, err)
	}

	return count, nil
}

func (er *ExecutionRepository) ResetNodeExecutions(_ context.Context, executionID string, nodeIDs []string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		for _, nodeID := range nodeIDs {
			entry, ok := record.NodeExecutionByID(nodeID)
			if !ok {
				return persistence.ErrNodeExecutionNotFound
			}

			entry.Status = models.NodeExecutionStatusRunning
			entry.Error = ""
			entry.RetryCount = 0
			entry.FinishedAt = nil
		}

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("ResetNodeExecutions", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) IncrementEndArrival(_ context.Context, executionID string, entry *models.NodeExecution) (int, error) {
	var count int

	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		existing, ok := record.NodeExecutionByID(entry.NodeID)
		if !ok {
			record.NodeExecutions = append(record.NodeExecutions, entry)
			existing = entry
		}

		existing.ArrivalCount++
		count = existing.ArrivalCount

		return nil
	})
	if err != nil {
		return 0, persistence.NewNodeExecutionError("IncrementEndArrival", executionID, entry.NodeID, err)
	}

	return count, nil
}

func (er *ExecutionRepository) AppendBranches(_ context.Context, executionID string, branches []*models.Branch) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		for _, branch := range branches {
			if _, exists := record.BranchByID(branch.ID); exists {
				continue
			}

			record.Branches = append(record.Branches, branch)
		}

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("AppendBranches", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) SetBranchStatus(_ context.Context, executionID, branchID string, status models.BranchStatus) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		branch, ok := record.BranchByID(branchID)
		if !ok {
			return persistence.ErrBranchNotFound
		}

		branch.Status = status

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("SetBranchStatus", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) CompleteBranch(_ context.Context, executionID, branchID string) (bool, error) {
	var runCompleted bool

	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		branch, ok := record.BranchByID(branchID)
		if !ok {
			return persistence.ErrBranchNotFound
		}

		branch.Status = models.BranchStatusCompleted

		if record.Status != models.ExecutionStatusRunning {
			return nil
		}

		for _, other := range record.Branches {
			if other.Status == models.BranchStatusRunning || other.Status == models.BranchStatusDelayed {
				return nil
			}
		}

		now := time.Now().UTC()
		record.Status = models.ExecutionStatusCompleted
		record.CompletedAt = &now
		runCompleted = true

		return nil
	})
	if err != nil {
		return false, persistence.NewExecutionError("CompleteBranch", executionID, err)
	}

	return runCompleted, nil
}

func (er *ExecutionRepository) ResumeBranch(_ context.Context, executionID, branchID string) (bool, error) {
	var resumed bool

	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		branch, ok := record.BranchByID(branchID)
		if !ok || branch.Status != models.BranchStatusDelayed {
			return nil
		}

		branch.Status = models.BranchStatusRunning

		if record.Status == models.ExecutionStatusDelayed {
			record.Status = models.ExecutionStatusRunning
		}

		record.ResumeAt = nil
		record.Resume = nil
		resumed = true

		return nil
	})
	if err != nil {
		return false, persistence.NewExecutionError("ResumeBranch", executionID, err)
	}

	return resumed, nil
}

func (er *ExecutionRepository) AdvanceBranch(_ context.Context, executionID, branchID string, nodeID string, nodeType models.NodeType) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		branch, ok := record.BranchByID(branchID)
		if !ok {
			return persistence.ErrBranchNotFound
		}

		branch.CurrentNodeID = nodeID
		branch.Path = append(branch.Path, models.PathEntry{NodeID: nodeID, NodeType: nodeType})

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("AdvanceBranch", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) SetStatus(_ context.Context, executionID string, status models.ExecutionStatus) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		record.Status = status

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("SetStatus", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) CompleteExecution(_ context.Context, executionID string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		now := time.Now().UTC()
		record.Status = models.ExecutionStatusCompleted
		record.CompletedAt = &now

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("CompleteExecution", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) FailExecution(_ context.Context, executionID, errMsg string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		record.Status = models.ExecutionStatusFailed
		record.Error = errMsg

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("FailExecution", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) ClearError(_ context.Context, executionID string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		record.Status = models.ExecutionStatusRunning
		record.Error = ""
		record.CompletedAt = nil

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("ClearError", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) SetResume(_ context.Context, executionID string, resumeAt time.Time, data *models.ResumeData) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		record.ResumeAt = &resumeAt
		record.Resume = data

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("SetResume", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) ClearResume(_ context.Context, executionID string) error {
	err := er.mutate(executionID, func(record *models.ExecutionRecord) error {
		record.ResumeAt = nil
		record.Resume = nil

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("ClearResume", executionID, err)
	}

	return nil
}
