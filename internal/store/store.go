// Package store defines the task store used by the time-tracking owner and
// composes the remote task API with the local badger copy.
package store

import (
	"context"

	"github.com/manav03panchal/tasktime/internal/model"
)

// Store is the task store contract. It is satisfied by the API client, the
// local badger repository and the server repositories.
type Store interface {
	List(ctx context.Context) ([]*model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	Update(ctx context.Context, id string, task *model.Task) (*model.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	StartTimer(ctx context.Context, id string) (*model.Task, error)
	StopTimer(ctx context.Context, id string) (*model.Task, error)
	Assign(ctx context.Context, id, userID string) (*model.Task, error)
}

// Local is a Store that can also cache results of another store.
type Local interface {
	Store
	// Put inserts or replaces a task as-is.
	Put(ctx context.Context, task *model.Task) error
	// Replace overwrites all tasks, keeping existing ones selected by keep.
	Replace(ctx context.Context, tasks []*model.Task, keep func(*model.Task) bool) error
}

// Result is the outcome of a single-task operation. Offline is set when the
// task API could not be reached and only the local copy was used.
type Result struct {
	Task    *model.Task
	Offline bool
}

// ListResult is the outcome of listing tasks.
type ListResult struct {
	Tasks   []*model.Task
	Offline bool
}

// DeleteResult is the outcome of deleting a task.
type DeleteResult struct {
	Deleted bool
	Offline bool
}
