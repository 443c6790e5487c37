package runtime

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/output"
	"github.com/manav03panchal/tasktime/internal/parser"
)

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Same(t, config.Global, opts.Config)
	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNewLocalOnly(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	ctx, err := New(Options{Config: cfg, InMemory: true})
	require.NoError(t, err)
	defer ctx.Close()

	assert.NotNil(t, ctx.DB)
	assert.NotNil(t, ctx.Local)
	assert.NotNil(t, ctx.Calendar)
	assert.Nil(t, ctx.Remote)
	assert.False(t, ctx.Store.Remote())
	assert.Equal(t, output.FormatCLI, ctx.Formatter.Format)
}

func TestNewWithRemote(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	cfg.API.URL = "http://localhost:8080/api"

	ctx, err := New(Options{Config: cfg, DBPath: ":memory:"})
	require.NoError(t, err)
	defer ctx.Close()

	require.NotNil(t, ctx.Remote)
	assert.Equal(t, "http://localhost:8080/api", ctx.Remote.BaseURL())
	assert.True(t, ctx.Store.Remote())
}

func TestNewInvalidRemote(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	cfg.API.URL = "ftp://example.com"

	_, err := New(Options{Config: cfg, InMemory: true})
	assert.ErrorIs(t, err, errors.ErrInvalidURL)
	assert.NotEmpty(t, errors.GetStack(err))
}

func TestNewOnDisk(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	cfg.Storage.MinFreeSpace = 0
	path := filepath.Join(t.TempDir(), "db")

	ctx, err := New(Options{Config: cfg, DBPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, ctx.DB.Path())
	assert.NoError(t, ctx.Close())
	assert.NoError(t, ctx.Close(), "second close is a no-op")
	assert.Nil(t, ctx.DB)
}

func TestNewWithOptions(t *testing.T) {
	ctx, err := New(Options{
		Config:    config.DefaultRuntimeConfig(),
		InMemory:  true,
		Format:    output.FormatJSON,
		ColorMode: output.ColorNever,
		Debug:     true,
	})
	require.NoError(t, err)
	defer ctx.Close()

	assert.True(t, ctx.IsJSON())
	assert.Equal(t, output.ColorNever, ctx.Formatter.ColorMode)
	assert.True(t, ctx.Debug)
	assert.NotNil(t, ctx.CLIFormatter())
	assert.NotNil(t, ctx.JSONFormatter())
}

func TestContextDebugf(t *testing.T) {
	ctx, err := New(Options{Config: config.DefaultRuntimeConfig(), InMemory: true})
	require.NoError(t, err)
	defer ctx.Close()

	var buf bytes.Buffer
	ctx.Formatter.Writer = &buf

	ctx.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	ctx.Debug = true
	ctx.Debugf("shown %d", 2)
	assert.Equal(t, "[DEBUG] shown 2\n", buf.String())
}

func TestContextTracker(t *testing.T) {
	ctx, err := New(Options{Config: config.DefaultRuntimeConfig(), InMemory: true})
	require.NoError(t, err)
	defer ctx.Close()

	created, err := ctx.Store.Create(context.Background(), model.NewTask("Write report", model.PriorityHigh))
	require.NoError(t, err)

	tr := ctx.NewTracker()
	defer tr.Close()
	res, err := tr.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, created.Task.ID, res.Tasks[0].ID)
}

func TestDrainWarnings(t *testing.T) {
	ctx, err := New(Options{Config: config.DefaultRuntimeConfig(), InMemory: true})
	require.NoError(t, err)
	defer ctx.Close()

	assert.Empty(t, ctx.DrainWarnings())
}

// =============================================================================
// ResolveID Tests
// =============================================================================

func TestResolveID(t *testing.T) {
	tasks := []*model.Task{
		{ID: "12", Title: "remote"},
		{ID: "3f2a9c1e-0000-4000-8000-000000000001", Title: "local a"},
		{ID: "3f2b0000-0000-4000-8000-000000000002", Title: "local b"},
	}

	t.Run("exact", func(t *testing.T) {
		got, err := ResolveID(tasks, "12")
		require.NoError(t, err)
		assert.Equal(t, "remote", got.Title)
	})

	t.Run("unique_prefix", func(t *testing.T) {
		got, err := ResolveID(tasks, "3F2A")
		require.NoError(t, err)
		assert.Equal(t, "local a", got.Title)
	})

	t.Run("ambiguous_prefix", func(t *testing.T) {
		_, err := ResolveID(tasks, "3f2")
		assert.ErrorIs(t, err, errors.ErrTaskNotFound, "short prefixes are not matched")

		tasks := append(tasks, &model.Task{ID: "3f2a9c1e-1111-4000-8000-000000000003"})
		_, err = ResolveID(tasks, "3f2a")
		assert.ErrorIs(t, err, errors.ErrInvalidTaskID)
		ue, ok := errors.AsUserError(err)
		require.True(t, ok)
		assert.Contains(t, ue.Suggestion, "3f2a9c1e-0000")
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := ResolveID(tasks, "99")
		assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ResolveID(tasks, " ")
		assert.ErrorIs(t, err, errors.ErrInvalidTaskID)
	})
}

func TestFormatError(t *testing.T) {
	err := errors.Wrapf(errors.ErrTaskNotFound, "task %s", "9")

	user := FormatError(err, false)
	assert.Contains(t, user, "task 9: task not found")
	assert.Contains(t, user, "tasktime task list")
	assert.NotContains(t, user, "Category")

	debug := FormatError(err, true)
	assert.Contains(t, debug, "Error chain")
	assert.Contains(t, debug, "Category")
}

func TestFormatParseError(t *testing.T) {
	_, perr := parser.ParseDuration("soon")
	require.Error(t, perr)

	msg := FormatError(errors.Wrap(perr, "edit"), false)
	assert.Contains(t, msg, "Valid examples:")
	assert.Contains(t, msg, "1h30m")
}

// =============================================================================
// Disk Full Tests
// =============================================================================

func TestDiskFullError(t *testing.T) {
	cause := fmt.Errorf("write: %w", syscall.ENOSPC)

	err := NewDiskFullError("write", "/data/db", cause)
	assert.Contains(t, err.Error(), "disk full during write on /data/db")
	assert.ErrorIs(t, err, errors.ErrDiskFull)

	err = NewDiskFullError("sync", "", cause)
	assert.Equal(t, "disk full during sync: write: no space left on device", err.Error())
}

func TestIsDiskFullError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", errors.ErrDiskFull, true},
		{"wrapped_sentinel", errors.NewSystemError("write failed", errors.ErrDiskFull), true},
		{"enospc", fmt.Errorf("write: %w", syscall.ENOSPC), true},
		{"message", errors.New("Insufficient disk space for value log"), true},
		{"other", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiskFullError(tt.err))
		})
	}
}

func TestWrapDiskFullError(t *testing.T) {
	assert.NoError(t, WrapDiskFullError(nil, "open", "/x"))

	other := errors.New("boom")
	assert.Same(t, other, WrapDiskFullError(other, "open", "/x"))

	wrapped := WrapDiskFullError(syscall.ENOSPC, "open", "/x")
	var dfe *DiskFullError
	require.True(t, errors.As(wrapped, &dfe))
	assert.Equal(t, "open", dfe.Op)
	assert.Same(t, wrapped, WrapDiskFullError(wrapped, "again", "/y"))
}
