package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/graphstore"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/scheduler"
	"github.com/manav03panchal/tasktime/internal/server"
	"github.com/manav03panchal/tasktime/internal/sqlstore"
	"github.com/manav03panchal/tasktime/internal/store"
)

// Server backends.
const (
	backendSQLite = "sqlite"
	backendNeo4j  = "neo4j"
)

// Serve command flags.
var (
	serveFlagAddr    string
	serveFlagBackend string
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task API server",
	Long: `Run the REST task API that 'tasktime' talks to when TASKTIME_API_URL is
set. Tasks are stored in sqlite (default) or Neo4j. Pending assigned tasks
get reminders on TASKTIME_REMINDER_SCHEDULE, and status changes and
assignments are posted to TASKTIME_WEBHOOK_URL when it is set.

Endpoints:
  GET    /api/tasks?page=0&size=10
  GET    /api/tasks/{id}
  POST   /api/tasks
  PUT    /api/tasks/{id}
  DELETE /api/tasks/{id}
  PUT    /api/tasks/{id}/start
  PUT    /api/tasks/{id}/stop
  PUT    /api/tasks/{id}/assign
  GET    /api/health
  GET    /api/metrics

Examples:
  tasktime serve
  tasktime serve --addr :9090
  TASKTIME_NEO4J_URI=neo4j://localhost:7687 tasktime serve --backend neo4j`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default from TASKTIME_SERVER_ADDR)")
	serveCmd.Flags().StringVar(&serveFlagBackend, "backend", "", "Storage backend: sqlite, neo4j (default from TASKTIME_SERVER_BACKEND)")
	_ = serveCmd.RegisterFlagCompletionFunc("backend", completeValues(backendSQLite, backendNeo4j))
	rootCmd.AddCommand(serveCmd)
}

// serverRepo is a task repository the server can health-check.
type serverRepo interface {
	store.Store
	Ping(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	if !flagDebug {
		logging.Init(withLogLevel(logging.ServerConfig()))
	}
	cfg := config.Global.Server
	if serveFlagAddr != "" {
		cfg.Addr = serveFlagAddr
	}
	if serveFlagBackend != "" {
		cfg.Backend = serveFlagBackend
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openServerRepo(sigCtx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	dispatcher, err := newDispatcher(config.Global.Notify)
	if err != nil {
		return err
	}
	var notifier server.Notifier
	if dispatcher.Enabled() {
		notifier = dispatcher
	}

	srv := server.New(repo, server.Options{Notifier: notifier, Version: Version})
	srv.Health().AddCheck(cfg.Backend, repo.Ping)

	if notifier != nil {
		checker := scheduler.NewReminderChecker(repo, dispatcher)
		checker.OnCheck(func(sent int) {
			srv.Metrics().RecordReminderCheck()
			logging.DebugLog("reminder pass", "sent", sent)
		})
		sched := scheduler.NewScheduler(cfg.ReminderSchedule)
		sched.SetReminderChecker(checker)
		if err := sched.Start(sigCtx); err != nil {
			return err
		}
		defer sched.Stop()
		logging.Info("reminders scheduled", "next", sched.NextRun())
	} else {
		logging.Info("notifications disabled; reminders not scheduled")
	}

	logging.Info("starting task API", "backend", cfg.Backend, "version", Version)
	return srv.Serve(sigCtx, cfg.Addr, cfg.ShutdownTimeout)
}

// openServerRepo opens the configured backend and returns it with its
// close function.
func openServerRepo(ctx context.Context, cfg config.ServerConfig) (serverRepo, func(), error) {
	switch cfg.Backend {
	case "", backendSQLite:
		db, err := sqlstore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info("opened sqlite", "path", cfg.SQLitePath)
		return sqlstore.NewTaskRepo(db), func() { db.Close() }, nil

	case backendNeo4j:
		driver, err := graphstore.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeDriver := func() { driver.Close(context.Background()) }
		repo := graphstore.NewTaskRepo(driver)
		if err := repo.Init(ctx); err != nil {
			closeDriver()
			return nil, nil, err
		}
		logging.Info("connected to neo4j", "uri", logging.MaskURL(cfg.Neo4jURI))
		return repo, closeDriver, nil
	}
	return nil, nil, errors.NewUserErrorWithField("backend", cfg.Backend,
		"Unknown server backend", "Use --backend sqlite or --backend neo4j.")
}
