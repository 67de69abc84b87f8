package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"resumerag/internal/pkg/errcode"
	"resumerag/internal/pkg/response"
	"resumerag/internal/service"
)

const (
	defaultTopK = 3
	maxTopK     = 10
)

type SearchHandler struct {
	rag *service.RAGService
}

func NewSearchHandler(rag *service.RAGService) *SearchHandler {
	return &SearchHandler{rag: rag}
}

type searchRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	GenerateAnswer *bool  `json:"generate_answer"`
}

type searchResultItem struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		response.Error(c, errcode.ErrInvalid, "top_k must be between 1 and 10")
		return
	}
	wantAnswer := true
	if req.GenerateAnswer != nil {
		wantAnswer = *req.GenerateAnswer
	}

	out, err := h.rag.Search(c.Request.Context(), req.Query, req.TopK, wantAnswer)
	if err != nil {
		handleError(c, err)
		return
	}
	results := make([]searchResultItem, 0, len(out.Matches))
	for _, m := range out.Matches {
		results = append(results, searchResultItem{
			ID:       m.Resume.ID,
			Filename: m.Resume.Filename,
			Score:    m.Score,
			Content:  m.Resume.Content,
		})
	}
	body := gin.H{
		"query":         req.Query,
		"results":       results,
		"total_resumes": out.Total,
	}
	if out.Answer != nil {
		body["answer"] = out.Answer.Text
		body["answer_state"] = string(out.Answer.State)
	}
	response.Success(c, body)
}
