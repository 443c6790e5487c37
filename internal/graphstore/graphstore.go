// Package graphstore keeps server tasks in Neo4j. Tasks are (:Task) nodes
// with numeric ids from a (:Counter) node; assignees are (:User) nodes
// linked by [:ASSIGNED_TO].
package graphstore

import (
	"context"
	"strconv"
	"time"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const taskReturn = "OPTIONAL MATCH (t)-[:ASSIGNED_TO]->(u:User) " +
	"RETURN t.id AS id, t.title AS title, t.description AS description, " +
	"t.priority AS priority, t.status AS status, t.dueDate AS dueDate, " +
	"t.timeLogged AS timeLogged, t.startedAt AS startedAt, u.id AS assignee, " +
	"t.createdAt AS createdAt, t.updatedAt AS updatedAt"

// Connect opens a driver from the server configuration and verifies it.
func Connect(ctx context.Context, cfg config.ServerConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("connect neo4j", "cannot create driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.Wrap(errors.ErrAPIUnavailable, "neo4j: "+err.Error())
	}
	return driver, nil
}

// TaskRepo stores tasks in Neo4j.
type TaskRepo struct {
	driver neo4j.DriverWithContext
	now    func() time.Time
}

// NewTaskRepo creates a repository over driver.
func NewTaskRepo(driver neo4j.DriverWithContext) *TaskRepo {
	return &TaskRepo{driver: driver, now: time.Now}
}

// Init creates the uniqueness constraint on task ids.
func (r *TaskRepo) Init(ctx context.Context) error {
	_, err := r.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE", nil)
		return nil, err
	})
	return err
}

// Ping checks the connection.
func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *TaskRepo) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (r *TaskRepo) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// List returns all tasks ordered by id.
func (r *TaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	result, err := r.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task) "+taskReturn+" ORDER BY id", nil)
		if err != nil {
			return nil, err
		}
		tasks := []*model.Task{}
		for res.Next(ctx) {
			tasks = append(tasks, recordToTask(res.Record()))
		}
		return tasks, res.Err()
	})
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("list tasks", "cannot read tasks", err)
	}
	return result.([]*model.Task), nil
}

// Get returns one task.
func (r *TaskRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	result, err := r.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return getTask(ctx, tx, n)
	})
	if err != nil {
		return nil, wrap("get task", err)
	}
	return result.(*model.Task), nil
}

// Create stores a new task under the next id.
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

	result, err := r.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MERGE (c:Counter {name: 'task'}) ON CREATE SET c.value = 0 "+
				"SET c.value = c.value + 1 RETURN c.value AS id", nil)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := rec.Values[0].(int64)

		params := taskParams(created)
		params["id"] = n
		if _, err := tx.Run(ctx, "CREATE (t:Task {id: $id}) SET t += $props", params); err != nil {
			return nil, err
		}
		if err := setAssignee(ctx, tx, n, created.AssignedUser); err != nil {
			return nil, err
		}
		return getTask(ctx, tx, n)
	})
	if err != nil {
		return nil, wrap("create task", err)
	}
	return result.(*model.Task), nil
}

// Update replaces a task, keeping its creation time.
func (r *TaskRepo) Update(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	updated := task.Clone()
	updated.UpdatedAt = r.now()

	result, err := r.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := getTask(ctx, tx, n)
		if err != nil {
			return nil, err
		}
		updated.CreatedAt = existing.CreatedAt
		return saveTask(ctx, tx, n, updated)
	})
	if err != nil {
		return nil, wrap("update task", err)
	}
	return result.(*model.Task), nil
}

// Delete removes a task. It reports false if no such task existed.
func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, nil
	}
	result, err := r.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) DETACH DELETE t RETURN count(*) AS deleted",
			map[string]any{"id": n})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		deleted, _ := rec.Values[0].(int64)
		return deleted > 0, nil
	})
	if err != nil {
		return false, errors.NewSystemErrorWithOp("delete task", "cannot delete task", err)
	}
	return result.(bool), nil
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

// Assign links the task to the user node, creating it when needed.
func (r *TaskRepo) Assign(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.mutate(ctx, id, func(t *model.Task, _ time.Time) error {
		t.AssignedUser = userID
		return nil
	})
}

func (r *TaskRepo) mutate(ctx context.Context, id string, fn func(t *model.Task, now time.Time) error) (*model.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	result, err := r.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		t, err := getTask(ctx, tx, n)
		if err != nil {
			return nil, err
		}
		now := r.now()
		if err := fn(t, now); err != nil {
			return nil, err
		}
		t.UpdatedAt = now
		return saveTask(ctx, tx, n, t)
	})
	if err != nil {
		return nil, wrap("update task", err)
	}
	return result.(*model.Task), nil
}

func getTask(ctx context.Context, tx neo4j.ManagedTransaction, n int64) (*model.Task, error) {
	res, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) "+taskReturn, map[string]any{"id": n})
	if err != nil {
		return nil, err
	}
	if res.Next(ctx) {
		return recordToTask(res.Record()), nil
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return nil, errors.Wrapf(errors.ErrTaskNotFound, "task %d", n)
}

func saveTask(ctx context.Context, tx neo4j.ManagedTransaction, n int64, t *model.Task) (*model.Task, error) {
	params := taskParams(t)
	params["id"] = n
	if _, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) SET t += $props", params); err != nil {
		return nil, err
	}
	if err := setAssignee(ctx, tx, n, t.AssignedUser); err != nil {
		return nil, err
	}
	return getTask(ctx, tx, n)
}

// setAssignee replaces the ASSIGNED_TO link. An empty userID unassigns.
func setAssignee(ctx context.Context, tx neo4j.ManagedTransaction, n int64, userID string) error {
	params := map[string]any{"id": n, "user": userID}
	if _, err := tx.Run(ctx,
		"MATCH (t:Task {id: $id})-[a:ASSIGNED_TO]->(u:User) WHERE u.id <> $user DELETE a", params); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	_, err := tx.Run(ctx,
		"MATCH (t:Task {id: $id}) MERGE (u:User {id: $user}) MERGE (t)-[:ASSIGNED_TO]->(u)", params)
	return err
}

// taskParams holds the node properties of t. Instants are unix milliseconds;
// a nil startedAt removes the property.
func taskParams(t *model.Task) map[string]any {
	props := map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"priority":    string(t.Priority),
		"status":      string(t.Status),
		"dueDate":     t.DueDate,
		"timeLogged":  t.TimeLogged,
		"startedAt":   nil,
		"createdAt":   t.CreatedAt.UnixMilli(),
		"updatedAt":   t.UpdatedAt.UnixMilli(),
	}
	if t.StartedAt != nil {
		props["startedAt"] = t.StartedAt.UnixMilli()
	}
	return map[string]any{"props": props}
}

func recordToTask(rec *neo4j.Record) *model.Task {
	t := &model.Task{
		ID:           strconv.FormatInt(integer(rec, "id"), 10),
		Title:        str(rec, "title"),
		Description:  str(rec, "description"),
		Priority:     model.Priority(str(rec, "priority")),
		Status:       model.Status(str(rec, "status")),
		DueDate:      str(rec, "dueDate"),
		TimeLogged:   integer(rec, "timeLogged"),
		AssignedUser: str(rec, "assignee"),
		CreatedAt:    time.UnixMilli(integer(rec, "createdAt")),
		UpdatedAt:    time.UnixMilli(integer(rec, "updatedAt")),
	}
	if v, ok := rec.Get("startedAt"); ok && v != nil {
		if ms, ok := v.(int64); ok {
			started := time.UnixMilli(ms)
			t.StartedAt = &started
		}
	}
	return t
}

func str(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func integer(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return n
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	return n, nil
}

// wrap passes domain errors through and marks the rest as database failures.
func wrap(op string, err error) error {
	if errors.Is(err, errors.ErrTaskNotFound) ||
		errors.Is(err, errors.ErrTimerRunning) ||
		errors.Is(err, errors.ErrTimerNotRunning) {
		return err
	}
	return errors.NewSystemErrorWithOp(op, "neo4j request failed", err)
}
