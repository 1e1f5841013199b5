package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/database/runs"
	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/pipeline"
	"github.com/mrlokans/docconv/internal/tasks"
)

// PipelinesController lists definitions and triggers runs.
type PipelinesController struct {
	runner  PipelineRunner
	queue   TaskQueue
	history RunStore
}

// NewPipelinesController creates a controller. queue may be nil, in which
// case runs execute within the request. history may be nil, in which case
// pipelines are listed without their last successful run.
func NewPipelinesController(runner PipelineRunner, queue TaskQueue, history RunStore) *PipelinesController {
	return &PipelinesController{runner: runner, queue: queue, history: history}
}

const maxRunRequestBytes = 64 << 10

// PipelineInfo describes a registered pipeline.
type PipelineInfo struct {
	Name             string `json:"name"`
	Source           string `json:"source,omitempty"`
	ParentCollection string `json:"parent_collection"`
	ChildCollection  string `json:"child_collection"`
	Reference        string `json:"reference"`

	LastSuccessAt    *time.Time `json:"last_success_at,omitempty"`
	LastSuccessRunID string     `json:"last_success_run_id,omitempty"`
}

// RunRequest is the optional body of a run request. Runs always read the
// pipeline's configured source; unknown fields are rejected.
type RunRequest struct {
	DryRun bool `json:"dry_run"`
}

// List handles GET /api/pipelines
func (pc *PipelinesController) List(c *gin.Context) {
	defs := pc.runner.Registry().All()
	infos := make([]PipelineInfo, 0, len(defs))
	for _, d := range defs {
		info := PipelineInfo{
			Name:             d.Name,
			Source:           d.Source,
			ParentCollection: d.Parent.Collection,
			ChildCollection:  d.Child.Collection,
			Reference:        d.Child.Reference,
		}
		if pc.history != nil {
			last, err := pc.history.LastSuccessful(c.Request.Context(), d.Name)
			switch {
			case errors.Is(err, runs.ErrNotFound):
			case err != nil:
				respondInternalError(c, err, "load last run")
				return
			default:
				finished := last.FinishedAt
				info.LastSuccessAt = &finished
				info.LastSuccessRunID = last.RunID
			}
		}
		infos = append(infos, info)
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": infos})
}

// Run handles POST /api/pipelines/:name/run
// With a task queue the run is enqueued and 202 returned with the task ID.
// Dry runs and servers without a queue run inline and return the summary.
func (pc *PipelinesController) Run(c *gin.Context) {
	name := c.Param("name")
	if _, err := pc.runner.Registry().Get(name); err != nil {
		respondNotFound(c, "pipeline "+name)
		return
	}

	req, err := decodeRunRequest(c)
	if err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if pc.queue != nil && !req.DryRun {
		taskID, err := pc.queue.Enqueue(tasks.ConvertPipelineTask{
			Pipeline: name,
			Trigger:  entities.RunTriggerAPI,
		})
		if err != nil {
			respondInternalError(c, err, "enqueue pipeline run")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"task_id":  taskID,
			"pipeline": name,
			"message":  "run enqueued",
		})
		return
	}

	summary, err := pc.runner.Run(c.Request.Context(), pipeline.Request{
		Pipeline: name,
		Trigger:  entities.RunTriggerAPI,
		DryRun:   req.DryRun,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, converter.ErrUnknownPipeline) {
			status = http.StatusNotFound
		}
		resp := ErrorResponse{Error: err.Error()}
		if summary != nil {
			resp.Details = summary
		}
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// decodeRunRequest reads an optional JSON body, including chunked bodies
// without a Content-Length. An empty body is a default request.
func decodeRunRequest(c *gin.Context) (RunRequest, error) {
	var req RunRequest
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return req, nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxRunRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}
