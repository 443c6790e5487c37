package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
)

const taskColumns = `id, title, description, priority, status, due_date,
	time_logged, started_at, assigned_user, created_at, updated_at`

// taskRow mirrors the tasks table. Instants are unix milliseconds.
type taskRow struct {
	ID           int64         `db:"id"`
	Title        string        `db:"title"`
	Description  string        `db:"description"`
	Priority     string        `db:"priority"`
	Status       string        `db:"status"`
	DueDate      string        `db:"due_date"`
	TimeLogged   int64         `db:"time_logged"`
	StartedAt    sql.NullInt64 `db:"started_at"`
	AssignedUser string        `db:"assigned_user"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

func (row taskRow) toTask() *model.Task {
	t := &model.Task{
		ID:           strconv.FormatInt(row.ID, 10),
		Title:        row.Title,
		Description:  row.Description,
		Priority:     model.Priority(row.Priority),
		Status:       model.Status(row.Status),
		DueDate:      row.DueDate,
		TimeLogged:   row.TimeLogged,
		AssignedUser: row.AssignedUser,
		CreatedAt:    time.UnixMilli(row.CreatedAt),
		UpdatedAt:    time.UnixMilli(row.UpdatedAt),
	}
	if row.StartedAt.Valid {
		started := time.UnixMilli(row.StartedAt.Int64)
		t.StartedAt = &started
	}
	return t
}

func fromTask(t *model.Task) taskRow {
	row := taskRow{
		Title:        t.Title,
		Description:  t.Description,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		DueDate:      t.DueDate,
		TimeLogged:   t.TimeLogged,
		AssignedUser: t.AssignedUser,
		CreatedAt:    t.CreatedAt.UnixMilli(),
		UpdatedAt:    t.UpdatedAt.UnixMilli(),
	}
	if t.StartedAt != nil {
		row.StartedAt = sql.NullInt64{Int64: t.StartedAt.UnixMilli(), Valid: true}
	}
	return row
}

// TaskRepo stores tasks in sqlite with numeric, auto-incremented IDs.
type TaskRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewTaskRepo creates a repository over an opened database.
func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db, now: time.Now}
}

// Ping checks the database connection.
func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	return n, nil
}

func notFound(id string) error {
	return errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
}

// List returns all tasks ordered by ID.
func (r *TaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+taskColumns+` FROM tasks ORDER BY id`); err != nil {
		return nil, errors.NewSystemErrorWithOp("list tasks", "cannot read tasks", err)
	}
	tasks := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

// Get returns one task.
func (r *TaskRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return get(ctx, r.db, n, id)
}

func get(ctx context.Context, q sqlx.QueryerContext, n int64, id string) (*model.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("get task", "cannot read task", err)
	}
	return row.toTask(), nil
}

// Create inserts a task and returns it with its new ID. Any ID on the input
// is ignored.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	created := task.Clone()
	now := r.now()
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

	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tasks (title, description, priority, status, due_date,
			time_logged, started_at, assigned_user, created_at, updated_at)
		VALUES (:title, :description, :priority, :status, :due_date,
			:time_logged, :started_at, :assigned_user, :created_at, :updated_at)`,
		fromTask(created))
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("create task", "cannot insert task", err)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("create task", "cannot read new task ID", err)
	}
	return get(ctx, r.db, n, strconv.FormatInt(n, 10))
}

// Update replaces a task, keeping its creation time.
func (r *TaskRepo) Update(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := fromTask(task)
	row.ID = n
	row.UpdatedAt = r.now().UnixMilli()

	res, err := r.db.NamedExecContext(ctx, `
		UPDATE tasks SET title = :title, description = :description,
			priority = :priority, status = :status, due_date = :due_date,
			time_logged = :time_logged, started_at = :started_at,
			assigned_user = :assigned_user, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("update task", "cannot update task", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, notFound(id)
	}
	return get(ctx, r.db, n, id)
}

// Delete removes a task. It reports false if no such task existed.
func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, n)
	if err != nil {
		return false, errors.NewSystemErrorWithOp("delete task", "cannot delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewSystemErrorWithOp("delete task", "cannot delete task", err)
	}
	return affected > 0, nil
}

// StartTimer starts the stored timer and marks the task in progress.
func (r *TaskRepo) StartTimer(ctx context.Context, id string) (*model.Task, error) {
	return r.mutate(ctx, id, (*model.Task).StartTimer)
}

// StopTimer folds the running session into the logged time and completes
// the task.
func (r *TaskRepo) StopTimer(ctx context.Context, id string) (*model.Task, error) {
	return r.mutate(ctx, id, (*model.Task).StopTimer)
}

// Assign records the assignee.
func (r *TaskRepo) Assign(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.mutate(ctx, id, func(t *model.Task, _ time.Time) error {
		t.AssignedUser = userID
		return nil
	})
}

// mutate applies fn to one task inside a transaction.
func (r *TaskRepo) mutate(ctx context.Context, id string, fn func(t *model.Task, now time.Time) error) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("update task", "cannot begin transaction", err)
	}
	defer tx.Rollback()

	t, err := get(ctx, tx, n, id)
	if err != nil {
		return nil, err
	}
	now := r.now()
	if err := fn(t, now); err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	row := fromTask(t)
	row.ID = n
	if _, err := tx.NamedExecContext(ctx, `
		UPDATE tasks SET status = :status, time_logged = :time_logged,
			started_at = :started_at, assigned_user = :assigned_user,
			updated_at = :updated_at
		WHERE id = :id`, row); err != nil {
		return nil, errors.NewSystemErrorWithOp("update task", "cannot update task", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewSystemErrorWithOp("update task", "cannot commit", err)
	}
	return t, nil
}
