package server

import (
	"log"

	"github.com/gin-gonic/gin"
)

// NewRouter registers the dashboard API.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))

	api := router.Group("/api")
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/in-progress", h.ListInProgress)
	api.GET("/summary", h.GetSummary)
	api.GET("/filters", h.GetFilterOptions)
	api.GET("/details", h.GetDetails)
	api.GET("/status", h.GetStatus)
	api.GET("/export.xlsx", h.ExportXLSX)
	api.POST("/refresh", h.Refresh)
	api.POST("/scheduler/start", h.StartScheduler)
	api.POST("/scheduler/stop", h.StopScheduler)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	return router
}
