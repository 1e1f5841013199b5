package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Output
		Pipelines
		Schedule
		Runs
		Watch
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Output struct {
		Dir string
	}
	Pipelines struct {
		DefinitionsFile string // Optional YAML file with extra pipeline definitions
		DuplicatePolicy string // first, last or strict
		HotelsSource    string // Overrides the built-in hotels source path
		BankSource      string // Overrides the built-in bank source path
		StoreEnabled    bool   // Load results into the document store
	}
	Schedule struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Runs struct {
		RetentionDays int // Days to keep conversion run history (default: 30)
	}
	Watch struct {
		Debounce time.Duration
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// Sources returns the configured source overrides keyed by pipeline name.
func (p Pipelines) Sources() map[string]string {
	sources := make(map[string]string)
	if p.HotelsSource != "" {
		sources["hotels"] = p.HotelsSource
	}
	if p.BankSource != "" {
		sources["bank"] = p.BankSource
	}
	return sources
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("output_dir", DefaultOutputDir)

	// Pipeline defaults
	v.SetDefault("definitions_file", "")
	v.SetDefault("duplicate_policy", "first")
	v.SetDefault("hotels_source", "")
	v.SetDefault("bank_source", "")
	v.SetDefault("store_enabled", true)

	v.SetDefault("schedule_enabled", false)
	v.SetDefault("schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("run_retention_days", 30)
	v.SetDefault("watch_debounce", "500ms")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "30m")
	v.SetDefault("task_release_after", "45m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Output: Output{
			Dir: v.GetString("OUTPUT_DIR"),
		},
		Pipelines: Pipelines{
			DefinitionsFile: v.GetString("DEFINITIONS_FILE"),
			DuplicatePolicy: v.GetString("DUPLICATE_POLICY"),
			HotelsSource:    v.GetString("HOTELS_SOURCE"),
			BankSource:      v.GetString("BANK_SOURCE"),
			StoreEnabled:    v.GetBool("STORE_ENABLED"),
		},
		Schedule: Schedule{
			Enabled:  v.GetBool("SCHEDULE_ENABLED"),
			Schedule: v.GetString("SCHEDULE"),
		},
		Runs: Runs{
			RetentionDays: v.GetInt("RUN_RETENTION_DAYS"),
		},
		Watch: Watch{
			Debounce: v.GetDuration("WATCH_DEBOUNCE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
