package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"resumerag/internal/middleware"
)

type RouterDeps struct {
	Resumes *ResumeHandler
	Search  *SearchHandler
	Status  *StatusHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/upload", middleware.RateLimit(time.Second), deps.Resumes.Upload)
	api.POST("/resumes", deps.Resumes.Add)
	api.GET("/resumes", deps.Resumes.List)
	api.DELETE("/resumes/:id", deps.Resumes.Delete)

	api.POST("/search", deps.Search.Search)

	api.GET("/status", deps.Status.Status)
	api.GET("/health", deps.Status.Health)
	api.GET("/models", deps.Status.Models)
}
