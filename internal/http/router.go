package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	var db Pinger
	if cfg.Database != nil {
		db = cfg.Database
	}
	health := NewHealthController(db, cfg.Version, cfg.TaskClient != nil)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")

	if cfg.Pipelines != nil {
		pipelines := NewPipelinesController(cfg.Pipelines, cfg.TaskClient, cfg.Runs)
		api.GET("/pipelines", pipelines.List)
		api.POST("/pipelines/:name/run", pipelines.Run)
	}

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	if cfg.Runs != nil {
		runs := NewRunsController(cfg.Runs)
		api.GET("/runs", runs.List)
		api.GET("/runs/:id", runs.Get)
	}

	if cfg.Documents != nil {
		docs := NewDocumentsController(cfg.Documents)
		api.GET("/collections", docs.ListCollections)
		api.GET("/collections/:collection/documents", docs.Find)
		api.POST("/collections/:collection/documents", docs.Insert)
		api.GET("/collections/:collection/documents/:id", docs.Get)
		api.PATCH("/collections/:collection/documents/:id", docs.Update)
		api.DELETE("/collections/:collection/documents/:id", docs.Delete)
		api.GET("/collections/:collection/distinct", docs.Distinct)
	}

	return router
}
