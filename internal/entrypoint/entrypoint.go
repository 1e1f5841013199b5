package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docconv/internal/audit"
	"github.com/mrlokans/docconv/internal/config"
	"github.com/mrlokans/docconv/internal/database"
	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/database/runs"
	"github.com/mrlokans/docconv/internal/entities"
	http_controllers "github.com/mrlokans/docconv/internal/http"
	"github.com/mrlokans/docconv/internal/pipeline"
	"github.com/mrlokans/docconv/internal/scheduler"
	"github.com/mrlokans/docconv/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	log.Printf("Checking output directory: %s\n", cfg.Output.Dir)

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Output directory %s cannot be created: %v", cfg.Output.Dir, err)
	}

	// Check output dir is writable by touching and removing an empty file
	probe := filepath.Join(cfg.Output.Dir, ".docconv")
	f, err := os.Create(probe)
	if err != nil {
		log.Fatalf("Output directory %s is not writable", cfg.Output.Dir)
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		log.Fatalf("Could not remove the test file from the output directory %s", cfg.Output.Dir)
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop producers (scheduler, task queue) before the server
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting docconv v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	docs := documents.NewRepository(db.DB)
	auditService := audit.NewService(runs.NewRepository(db.DB))

	setup := pipeline.Setup{
		DefinitionsFile: cfg.Pipelines.DefinitionsFile,
		Sources:         cfg.Pipelines.Sources(),
		DuplicatePolicy: cfg.Pipelines.DuplicatePolicy,
		OutputDir:       cfg.Output.Dir,
		Recorder:        auditService,
	}
	if cfg.Pipelines.StoreEnabled {
		setup.Store = docs
	} else {
		log.Printf("Document store loading disabled (STORE_ENABLED=false)")
	}

	runner, err := pipeline.Build(setup)
	if err != nil {
		log.Fatalf("Failed to configure pipelines: %v", err)
	}
	for _, def := range runner.Registry().All() {
		log.Printf("Pipeline %s: %s -> %s (source: %s)", def.Name, def.Parent.Collection, def.Child.Collection, def.Source)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewConvertPipelineQueue(runner),
			tasks.NewCleanupRunsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	regen := scheduler.NewRegenerationScheduler(scheduler.Config{
		Enabled:   cfg.Schedule.Enabled,
		Schedule:  cfg.Schedule.Schedule,
		Pipelines: runner.Sourced,
		Cleanup:   newCleanup(taskClient, auditService, cfg.Runs.RetentionDays),
	}, newDispatcher(taskClient, runner))

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := regen.Start(schedCtx); err != nil {
		log.Fatalf("Failed to start regeneration scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:  db,
		Version:   version,
		Pipelines: runner,
		Documents: docs,
		Runs:      auditService,
		Metrics:   true,
	}
	// A nil *tasks.Client must not become a non-nil interface.
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		regen.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// newDispatcher enqueues scheduled runs when a task queue is available and
// runs them inline otherwise.
func newDispatcher(taskClient *tasks.Client, runner *pipeline.Pipeline) scheduler.Dispatcher {
	if taskClient != nil {
		return func(_ context.Context, name string) error {
			id, err := taskClient.Enqueue(tasks.ConvertPipelineTask{
				Pipeline: name,
				Trigger:  entities.RunTriggerScheduler,
			})
			if err == nil {
				log.Printf("Scheduled run of %s enqueued as task %s", name, id)
			}
			return err
		}
	}
	return func(ctx context.Context, name string) error {
		_, err := runner.Run(ctx, pipeline.Request{Pipeline: name, Trigger: entities.RunTriggerScheduler})
		return err
	}
}

func newCleanup(taskClient *tasks.Client, cleaner tasks.RunCleaner, retentionDays int) func(context.Context) error {
	if taskClient != nil {
		return func(context.Context) error {
			_, err := taskClient.Enqueue(tasks.CleanupRunsTask{RetentionDays: retentionDays})
			return err
		}
	}
	return func(ctx context.Context) error {
		if retentionDays <= 0 {
			return nil
		}
		_, err := cleaner.DeleteOldRuns(ctx, time.Duration(retentionDays)*24*time.Hour)
		return err
	}
}
