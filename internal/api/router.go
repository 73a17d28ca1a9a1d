package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the API routes onto the gin engine
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/cases", h.CreateCase)
		v1.GET("/cases", h.ListCases)
		v1.GET("/cases/:id", h.GetCase)
		v1.PATCH("/cases/:id", h.UpdateCase)
		v1.POST("/cases/:id/trigger", h.FireTrigger)
		v1.GET("/cases/:id/triggers", h.GetPermittedTriggers)
		v1.POST("/cases/:id/validate", h.ValidateTransition)
		v1.GET("/cases/:id/history", h.GetCaseHistory)
		v1.GET("/cases/:id/history/export", h.ExportCaseHistory)
		v1.GET("/authorities", h.GetAuthority)
	}
}
