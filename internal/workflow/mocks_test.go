package workflow_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

// memTaskStore is an in-memory TaskStore so the state machine tests can
// exercise real sequences of creates, transitions and reloads.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[int64]*model.Task

	createErr error
	updateErr error
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[int64]*model.Task)}
}

func (m *memTaskStore) Create(_ context.Context, task *model.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	clone := *task
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memTaskStore) GetByID(_ context.Context, userID, id int64) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, store.ErrNotFound
	}
	clone := *task
	return &clone, nil
}

func (m *memTaskStore) GetWithSteps(ctx context.Context, userID, id int64) (*model.Task, error) {
	task, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == id {
			task.Steps = append(task.Steps, *t)
		}
	}
	sort.Slice(task.Steps, func(i, j int) bool {
		return stepOrder(task.Steps[i]) < stepOrder(task.Steps[j])
	})
	return task, nil
}

func (m *memTaskStore) Update(_ context.Context, task *model.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return store.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	clone := *task
	clone.Steps = nil
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memTaskStore) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskStore) List(_ context.Context, userID int64, filter store.TaskFilter) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.ParentTaskID != nil && (t.ParentTaskID == nil || *t.ParentTaskID != *filter.ParentTaskID) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memTaskStore) ListOverdue(_ context.Context, userID int64, now time.Time) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.UserID != userID || t.Status == model.TaskStatusCompleted {
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTaskStore) CountByStatus(_ context.Context, userID int64) (map[model.TaskStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.TaskStatus]int)
	for _, t := range m.tasks {
		if t.UserID == userID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (m *memTaskStore) CountOverdue(ctx context.Context, userID int64, now time.Time) (int, error) {
	overdue, err := m.ListOverdue(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	return len(overdue), nil
}

func stepOrder(t model.Task) int {
	if t.StepOrder == nil {
		return 0
	}
	return *t.StepOrder
}
