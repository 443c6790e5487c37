package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
)

// TaskRepo stores all tasks as one JSON array under model.KeyTasks.
// It satisfies the task store interface and is the offline fallback for
// the remote API.
type TaskRepo struct {
	db  *DB
	now func() time.Time
}

// NewTaskRepo creates a new task repository.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db, now: time.Now}
}

func (r *TaskRepo) load() (model.TaskList, error) {
	var list model.TaskList
	if err := r.db.Get(model.KeyTasks, &list); err != nil {
		if IsErrKeyNotFound(err) {
			return model.TaskList{}, nil
		}
		return nil, errors.NewSystemErrorWithOp("load tasks", "cannot read local tasks", err)
	}
	return list, nil
}

// modify applies fn to the stored list inside one transaction.
func (r *TaskRepo) modify(ctx context.Context, fn func(list *model.TaskList) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list := model.TaskList{}
	return r.db.Modify(&list, func(bool) error {
		return fn(&list)
	})
}

// List returns all tasks in insertion order.
func (r *TaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.load()
}

// Get returns the task with the given ID.
func (r *TaskRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := r.load()
	if err != nil {
		return nil, err
	}
	i := list.Find(id)
	if i < 0 {
		return nil, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	return list[i], nil
}

// Create appends a task, assigning an ID and defaults when missing.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	created := task.Clone()
	now := r.now()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if !created.Status.Valid() {
		created.Status = model.StatusTodo
	}
	if !created.Priority.Valid() {
		created.Priority = model.PriorityMedium
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	err := r.modify(ctx, func(list *model.TaskList) error {
		if list.Find(created.ID) >= 0 {
			created.ID = uuid.NewString()
		}
		*list = append(*list, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces the stored task, keeping its ID and creation time.
func (r *TaskRepo) Update(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	var updated *model.Task
	err := r.modify(ctx, func(list *model.TaskList) error {
		i := list.Find(id)
		if i < 0 {
			return errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
		}
		updated = task.Clone()
		updated.ID = id
		updated.CreatedAt = (*list)[i].CreatedAt
		updated.UpdatedAt = r.now()
		(*list)[i] = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task. It reports false if no such task existed.
func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.modify(ctx, func(list *model.TaskList) error {
		i := list.Find(id)
		if i < 0 {
			return nil
		}
		*list = append((*list)[:i], (*list)[i+1:]...)
		deleted = true
		return nil
	})
	return deleted, err
}

// StartTimer marks the task in progress and records when timing began.
func (r *TaskRepo) StartTimer(ctx context.Context, id string) (*model.Task, error) {
	return r.mutate(ctx, id, (*model.Task).StartTimer)
}

// StopTimer adds the time since StartTimer to TimeLogged and completes the
// task, matching the task API.
func (r *TaskRepo) StopTimer(ctx context.Context, id string) (*model.Task, error) {
	return r.mutate(ctx, id, (*model.Task).StopTimer)
}

// Assign records the user a task is assigned to.
func (r *TaskRepo) Assign(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.mutate(ctx, id, func(t *model.Task, _ time.Time) error {
		t.AssignedUser = userID
		return nil
	})
}

func (r *TaskRepo) mutate(ctx context.Context, id string, fn func(t *model.Task, now time.Time) error) (*model.Task, error) {
	var result *model.Task
	err := r.modify(ctx, func(list *model.TaskList) error {
		i := list.Find(id)
		if i < 0 {
			return errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
		}
		t := (*list)[i]
		now := r.now()
		if err := fn(t, now); err != nil {
			return err
		}
		t.UpdatedAt = now
		result = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Put inserts or replaces a single task as-is. Used to cache remote results.
func (r *TaskRepo) Put(ctx context.Context, task *model.Task) error {
	return r.modify(ctx, func(list *model.TaskList) error {
		if i := list.Find(task.ID); i >= 0 {
			(*list)[i] = task.Clone()
			return nil
		}
		*list = append(*list, task.Clone())
		return nil
	})
}

// Replace overwrites the whole list. keep selects existing tasks that
// survive the replacement, such as tasks created while offline.
func (r *TaskRepo) Replace(ctx context.Context, tasks []*model.Task, keep func(*model.Task) bool) error {
	return r.modify(ctx, func(list *model.TaskList) error {
		next := make(model.TaskList, 0, len(tasks))
		for _, t := range tasks {
			next = append(next, t.Clone())
		}
		if keep != nil {
			for _, t := range *list {
				if keep(t) && next.Find(t.ID) < 0 {
					next = append(next, t)
				}
			}
		}
		*list = next
		return nil
	})
}
