package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TaskRepoSuite struct {
	suite.Suite
	ctx  context.Context
	repo *TaskRepo
	now  time.Time
}

func (s *TaskRepoSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := Open(s.ctx, MemoryPath)
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })

	s.now = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s.repo = NewTaskRepo(db)
	s.repo.now = func() time.Time { return s.now }
}

func (s *TaskRepoSuite) create(title string) *model.Task {
	t, err := s.repo.Create(s.ctx, &model.Task{Title: title})
	s.Require().NoError(err)
	return t
}

func TestTaskRepoSuite(t *testing.T) {
	suite.Run(t, new(TaskRepoSuite))
}

func (s *TaskRepoSuite) TestCreateAssignsNumericIDsAndDefaults() {
	first := s.create("first")
	second, err := s.repo.Create(s.ctx, &model.Task{
		ID:       "ignored",
		Title:    "second",
		Priority: model.PriorityHigh,
		DueDate:  "Oct 20, 2026",
	})
	s.Require().NoError(err)

	s.Equal("1", first.ID)
	s.Equal("2", second.ID)
	s.Equal(model.StatusTodo, first.Status)
	s.Equal(model.PriorityMedium, first.Priority)
	s.Equal(model.PriorityHigh, second.Priority)
	s.Equal("Oct 20, 2026", second.DueDate)
	s.True(first.CreatedAt.Equal(s.now))
	s.Nil(first.StartedAt)
}

func (s *TaskRepoSuite) TestListOrderedByID() {
	s.create("a")
	s.create("b")
	s.create("c")

	tasks, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	s.Equal([]string{"a", "b", "c"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
}

func (s *TaskRepoSuite) TestListEmpty() {
	tasks, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(tasks)
	s.Empty(tasks)
}

func (s *TaskRepoSuite) TestGetNotFound() {
	for _, id := range []string{"99", "abc", "0", ""} {
		_, err := s.repo.Get(s.ctx, id)
		s.ErrorIs(err, errors.ErrTaskNotFound, id)
	}
}

func (s *TaskRepoSuite) TestUpdateKeepsCreatedAt() {
	created := s.create("draft")
	s.now = s.now.Add(time.Hour)

	edit := created.Clone()
	edit.Title = "final"
	edit.Status = model.StatusCompleted
	edit.TimeLogged = 90
	edit.CreatedAt = time.Time{}

	updated, err := s.repo.Update(s.ctx, created.ID, edit)
	s.Require().NoError(err)
	s.Equal("final", updated.Title)
	s.Equal(model.StatusCompleted, updated.Status)
	s.Equal(int64(90), updated.TimeLogged)
	s.True(updated.CreatedAt.Equal(created.CreatedAt))
	s.True(updated.UpdatedAt.Equal(s.now))

	_, err = s.repo.Update(s.ctx, "42", edit)
	s.ErrorIs(err, errors.ErrTaskNotFound)
}

func (s *TaskRepoSuite) TestDelete() {
	created := s.create("gone")

	ok, err := s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.repo.Delete(s.ctx, "not-a-number")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *TaskRepoSuite) TestTimerLifecycle() {
	created := s.create("timed")

	started, err := s.repo.StartTimer(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusInProgress, started.Status)
	s.Require().NotNil(started.StartedAt)
	s.True(started.StartedAt.Equal(s.now))

	_, err = s.repo.StartTimer(s.ctx, created.ID)
	s.ErrorIs(err, errors.ErrTimerRunning)

	s.now = s.now.Add(2*time.Minute + 5*time.Second)
	stopped, err := s.repo.StopTimer(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusCompleted, stopped.Status)
	s.Equal(int64(125), stopped.TimeLogged)
	s.Nil(stopped.StartedAt)

	_, err = s.repo.StopTimer(s.ctx, created.ID)
	s.ErrorIs(err, errors.ErrTimerNotRunning)

	stored, err := s.repo.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(125), stored.TimeLogged)
	s.Nil(stored.StartedAt)
}

func (s *TaskRepoSuite) TestAssign() {
	created := s.create("shared")

	assigned, err := s.repo.Assign(s.ctx, created.ID, "7")
	s.Require().NoError(err)
	s.Equal("7", assigned.AssignedUser)

	_, err = s.repo.Assign(s.ctx, "404", "7")
	s.ErrorIs(err, errors.ErrTaskNotFound)
}

func TestOpenOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "server.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = NewTaskRepo(db).Create(ctx, &model.Task{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)
	require.NoError(t, repo.Ping(ctx))

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Title)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrNotConfigured)
}
