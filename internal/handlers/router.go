package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SAP-F-2025/marking-service/internal/services"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

type HandlerManager struct {
	serviceManager services.ServiceManager
	schemeHandler  *SchemeHandler
	gradingHandler *GradingHandler
	reportHandler  *ReportHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		schemeHandler:  NewSchemeHandler(serviceManager.MarkingScheme(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
		reportHandler:  NewReportHandler(serviceManager.Report(), serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		schemes := v1.Group("/schemes")
		{
			schemes.POST("", hm.schemeHandler.CreateScheme)
			schemes.GET("/:id", hm.schemeHandler.GetScheme)
			schemes.PUT("/:id", hm.schemeHandler.UpdateScheme)
			schemes.DELETE("/:id", hm.schemeHandler.DeleteScheme)

			// Question mutations
			schemes.POST("/:id/questions/:index/insert-after", hm.schemeHandler.InsertQuestionAfter)
			schemes.DELETE("/:id/questions/:index", hm.schemeHandler.DeleteQuestion)
			schemes.PUT("/:id/questions/:index/grading-type", hm.schemeHandler.ChangeGradingType)
		}

		v1.GET("/assignments/:assignment_id/schemes", hm.schemeHandler.ListAssignmentSchemes)

		grading := v1.Group("/grading")
		{
			grading.POST("/batches", hm.gradingHandler.StartBatch)
			grading.GET("/batches/:id", hm.gradingHandler.GetBatch)
			grading.GET("/batches/:id/stats", hm.gradingHandler.GetBatchStats)
			grading.POST("/batches/:id/cancel", hm.gradingHandler.CancelBatch)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/assignments/:assignment_id", hm.reportHandler.GetAssignmentReport)
			reports.GET("/assignments/:assignment_id/export", hm.reportHandler.ExportAssignmentReport)
		}
	}
}

// HealthCheck reports whether the database and redis are reachable.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "marking-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marking-service",
	})
}
