package entities

import "time"

type RunTrigger string

const (
	RunTriggerCLI       RunTrigger = "cli"
	RunTriggerAPI       RunTrigger = "api"
	RunTriggerTask      RunTrigger = "task"
	RunTriggerScheduler RunTrigger = "scheduler"
	RunTriggerWatcher   RunTrigger = "watcher"
)

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ConversionRun records one execution of a pipeline.
type ConversionRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RunID      string     `gorm:"uniqueIndex;size:36" json:"run_id"`
	Pipeline   string     `gorm:"index;size:100" json:"pipeline"`
	Trigger    RunTrigger `gorm:"size:20" json:"trigger"`
	Status     RunStatus  `gorm:"index;size:20" json:"status"`
	SourcePath string     `gorm:"size:500" json:"source_path"`
	OutputDir  string     `gorm:"size:500" json:"output_dir,omitempty"`
	RowsRead   int        `json:"rows_read"`
	Parents    int        `json:"parents"`
	Children   int        `json:"children"`
	ErrorMsg   string     `gorm:"size:500" json:"error_msg,omitempty"`
	StartedAt  time.Time  `gorm:"index" json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (ConversionRun) TableName() string {
	return "conversion_runs"
}

func (r ConversionRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
