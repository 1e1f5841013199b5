package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docconv/internal/database/runs"
)

// RunsController lists the conversion run history.
type RunsController struct {
	runs RunStore
}

func NewRunsController(runs RunStore) *RunsController {
	return &RunsController{runs: runs}
}

// List handles GET /api/runs?pipeline=&limit=&offset=
func (rc *RunsController) List(c *gin.Context) {
	limit, offset, ok := parsePaging(c, "offset")
	if !ok {
		return
	}

	history, total, err := rc.runs.GetRuns(c.Request.Context(), c.Query("pipeline"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list runs")
		return
	}

	c.JSON(http.StatusOK, newPage(history, total, limit, offset))
}

// Get handles GET /api/runs/:id
func (rc *RunsController) Get(c *gin.Context) {
	run, err := rc.runs.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, runs.ErrNotFound) {
		respondNotFound(c, "run")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get run")
		return
	}
	c.JSON(http.StatusOK, run)
}
