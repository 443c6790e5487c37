// Package runtime provides application runtime context for Tasktime.
package runtime

import (
	"github.com/manav03panchal/tasktime/internal/api"
	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/output"
	"github.com/manav03panchal/tasktime/internal/storage"
	"github.com/manav03panchal/tasktime/internal/store"
	"github.com/manav03panchal/tasktime/internal/tracker"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	DB        *storage.DB
	Formatter *output.Formatter

	// Repositories
	Local    *storage.TaskRepo
	Calendar *storage.CalendarRepo

	// Remote is nil in local-only mode.
	Remote *api.Client
	Store  *store.Fallback

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	// Config defaults to config.Global.
	Config *config.RuntimeConfig
	// DBPath overrides Config.Storage.Database when set.
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Config:    config.Global,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a new runtime context: it opens the local database and, when
// an API URL is configured, the API client in front of it.
func New(opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global
	}
	path := opts.DBPath
	if path == "" {
		path = cfg.Storage.Database
	}

	db, err := storage.Open(storage.Options{
		Path:         path,
		InMemory:     opts.InMemory,
		MinFreeSpace: cfg.Storage.MinFreeSpace,
	})
	if err != nil {
		return nil, WrapDiskFullError(err, "open", path)
	}

	var remote *api.Client
	if cfg.RemoteEnabled() {
		remote, err = api.NewClientFromConfig(cfg)
		if err != nil {
			db.Close()
			return nil, errors.WithStack(err, "configure task API")
		}
	}

	local := storage.NewTaskRepo(db)
	var fallback *store.Fallback
	if remote != nil {
		fallback = store.NewFallback(remote, local)
	} else {
		fallback = store.NewFallback(nil, local)
	}

	formatter := output.NewFormatter()
	if opts.Format != "" {
		formatter.Format = opts.Format
	}
	if opts.ColorMode != "" {
		formatter.ColorMode = opts.ColorMode
	}

	return &Context{
		Config:    cfg,
		DB:        db,
		Formatter: formatter,
		Local:     local,
		Calendar:  storage.NewCalendarRepo(db),
		Remote:    remote,
		Store:     fallback,
		Debug:     opts.Debug,
	}, nil
}

// Close closes the runtime context. Closing twice is a no-op.
func (c *Context) Close() error {
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.DB = nil
	return err
}

// NewTracker creates a time-tracking owner over the context's store. The
// caller loads it and closes it.
func (c *Context) NewTracker() *tracker.Tracker {
	return tracker.New(c.Store, tracker.Options{Interval: c.Config.Timer.TickInterval})
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...any) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// DrainWarnings returns the fallback warnings queued so far without waiting.
func (c *Context) DrainWarnings() []string {
	var out []string
	for {
		select {
		case w := <-c.Store.Warnings():
			out = append(out, w)
		default:
			return out
		}
	}
}
