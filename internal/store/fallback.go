package store

import (
	"context"
	"time"

	"github.com/manav03panchal/tasktime/internal/api"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
)

// Warning messages sent on Fallback.Warnings.
const (
	WarnReadOffline  = "Task API unavailable, showing locally saved tasks"
	WarnWriteOffline = "Task API unavailable, change saved locally"
)

// Fallback reads and writes through the remote API and falls back to the
// local copy when the API is unreachable. Without a remote it is local-only.
type Fallback struct {
	remote Store
	local  Local

	warnings chan string
}

// NewFallback composes remote and local. remote may be nil.
func NewFallback(remote Store, local Local) *Fallback {
	return &Fallback{
		remote:   remote,
		local:    local,
		warnings: make(chan string, 8),
	}
}

// Remote reports whether a task API is configured.
func (f *Fallback) Remote() bool {
	return f.remote != nil
}

// Warnings delivers fallback warnings. Sends never block: warnings are
// dropped while the buffer is full.
func (f *Fallback) Warnings() <-chan string {
	return f.warnings
}

func (f *Fallback) warn(ctx context.Context, msg, op string, err error) {
	logging.FromContext(ctx).WarnContext(ctx, msg,
		logging.KeyOperation, op,
		logging.KeyError, err,
		logging.KeyCause, errors.RootCause(err))
	select {
	case f.warnings <- msg:
	default:
	}
}

// shouldFallback reports whether err means the API is unreachable, as
// opposed to a definitive answer such as not found.
func shouldFallback(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, errors.ErrAPIUnavailable) {
		return true
	}
	return errors.Classify(err) == errors.CategoryRecoverable
}

// localOnly selects tasks that were created offline and never reached the API.
func localOnly(t *model.Task) bool {
	return !api.IsRemoteID(t.ID)
}

// List returns all tasks. A successful remote read refreshes the local copy.
func (f *Fallback) List(ctx context.Context) (ListResult, error) {
	defer logging.LogOperation(ctx, "list_tasks", time.Now())

	if f.remote == nil {
		tasks, err := f.local.List(ctx)
		return ListResult{Tasks: tasks}, err
	}

	tasks, err := f.remote.List(ctx)
	if err != nil {
		if !shouldFallback(ctx, err) {
			return ListResult{}, err
		}
		f.warn(ctx, WarnReadOffline, "list_tasks", err)
		local, lerr := f.local.List(ctx)
		return ListResult{Tasks: local, Offline: true}, lerr
	}

	if err := f.local.Replace(ctx, tasks, localOnly); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "failed to refresh local tasks", logging.KeyError, err)
		return ListResult{Tasks: tasks}, nil
	}
	merged, err := f.local.List(ctx)
	if err != nil {
		return ListResult{Tasks: tasks}, nil
	}
	return ListResult{Tasks: merged}, nil
}

// Get returns one task.
func (f *Fallback) Get(ctx context.Context, id string) (Result, error) {
	if f.remote == nil || !api.IsRemoteID(id) {
		task, err := f.local.Get(ctx, id)
		return Result{Task: task, Offline: f.remote != nil}, err
	}

	task, err := f.remote.Get(ctx, id)
	if err != nil {
		if !shouldFallback(ctx, err) {
			return Result{}, err
		}
		f.warn(ctx, WarnReadOffline, "get_task", err)
		local, lerr := f.local.Get(ctx, id)
		return Result{Task: local, Offline: true}, lerr
	}
	f.cache(ctx, task)
	return Result{Task: task}, nil
}

// Create creates a task remotely, or locally when the API is unreachable.
func (f *Fallback) Create(ctx context.Context, task *model.Task) (Result, error) {
	return f.write(ctx, "create_task", "",
		func(s Store) (*model.Task, error) { return s.Create(ctx, task) },
	)
}

// Update replaces a task.
func (f *Fallback) Update(ctx context.Context, id string, task *model.Task) (Result, error) {
	return f.write(ctx, "update_task", id,
		func(s Store) (*model.Task, error) { return s.Update(ctx, id, task) },
	)
}

// StartTimer starts the stored timer of a task.
func (f *Fallback) StartTimer(ctx context.Context, id string) (Result, error) {
	return f.write(ctx, "start_timer", id,
		func(s Store) (*model.Task, error) { return s.StartTimer(ctx, id) },
	)
}

// StopTimer stops the stored timer of a task.
func (f *Fallback) StopTimer(ctx context.Context, id string) (Result, error) {
	return f.write(ctx, "stop_timer", id,
		func(s Store) (*model.Task, error) { return s.StopTimer(ctx, id) },
	)
}

// Assign assigns a task to a user.
func (f *Fallback) Assign(ctx context.Context, id, userID string) (Result, error) {
	return f.write(ctx, "assign_task", id,
		func(s Store) (*model.Task, error) { return s.Assign(ctx, id, userID) },
	)
}

// Delete removes a task from the API and the local copy.
func (f *Fallback) Delete(ctx context.Context, id string) (DeleteResult, error) {
	defer logging.LogOperation(ctx, "delete_task", time.Now(), logging.KeyTaskID, id)

	if f.remote == nil || !api.IsRemoteID(id) {
		ok, err := f.local.Delete(ctx, id)
		return DeleteResult{Deleted: ok, Offline: f.remote != nil}, err
	}

	ok, err := f.remote.Delete(ctx, id)
	if err != nil {
		if !shouldFallback(ctx, err) {
			return DeleteResult{}, err
		}
		f.warn(ctx, WarnWriteOffline, "delete_task", err)
		ok, err = f.local.Delete(ctx, id)
		return DeleteResult{Deleted: ok, Offline: true}, err
	}
	if _, lerr := f.local.Delete(ctx, id); lerr != nil {
		logging.FromContext(ctx).WarnContext(ctx, "failed to update local tasks", logging.KeyError, lerr)
	}
	return DeleteResult{Deleted: ok}, nil
}

// write runs op against the remote store and caches the result locally. On
// an unreachable API, or for tasks that only exist locally, op runs against
// the local store and the result is flagged Offline.
func (f *Fallback) write(ctx context.Context, name, id string, op func(Store) (*model.Task, error)) (Result, error) {
	defer logging.LogOperation(ctx, name, time.Now(), logging.KeyTaskID, id)

	if f.remote == nil {
		task, err := op(f.local)
		return Result{Task: task}, err
	}
	if id != "" && !api.IsRemoteID(id) {
		task, err := op(f.local)
		return Result{Task: task, Offline: true}, err
	}

	task, err := op(f.remote)
	if err != nil {
		if !shouldFallback(ctx, err) {
			return Result{}, err
		}
		f.warn(ctx, WarnWriteOffline, name, err)
		task, err = op(f.local)
		return Result{Task: task, Offline: true}, err
	}
	f.cache(ctx, task)
	return Result{Task: task}, nil
}

func (f *Fallback) cache(ctx context.Context, task *model.Task) {
	if task == nil {
		return
	}
	if err := f.local.Put(ctx, task); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "failed to update local tasks",
			logging.KeyTaskID, task.ID, logging.KeyError, err)
	}
}
