package handler

import (
	"github.com/gin-gonic/gin"

	"resumerag/internal/pkg/response"
	"resumerag/internal/service"
)

type StatusHandler struct {
	rag *service.RAGService
}

func NewStatusHandler(rag *service.RAGService) *StatusHandler {
	return &StatusHandler{rag: rag}
}

func (h *StatusHandler) Status(c *gin.Context) {
	status := h.rag.Status(c.Request.Context())
	response.Success(c, gin.H{
		"service":            "resumerag",
		"status":             "running",
		"total_resumes":      status.TotalResumes,
		"embedding_model":    status.EmbeddingModel,
		"llm_model":          status.GenerativeModel,
		"provider_reachable": status.GenerativeReachable,
	})
}

func (h *StatusHandler) Health(c *gin.Context) {
	status := h.rag.Status(c.Request.Context())
	response.Success(c, gin.H{
		"status":             "healthy",
		"resumes_loaded":     status.TotalResumes,
		"embedding_model":    status.EmbeddingModel,
		"llm_model":          status.GenerativeModel,
		"provider_reachable": status.GenerativeReachable,
	})
}

func (h *StatusHandler) Models(c *gin.Context) {
	status := h.rag.Status(c.Request.Context())
	response.Success(c, gin.H{
		"current_model":    status.GenerativeModel,
		"available_models": h.rag.ListModels(c.Request.Context()),
	})
}
