package handler

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resumerag/internal/filestore"
	"resumerag/internal/pkg/errcode"
	"resumerag/internal/pkg/response"
	"resumerag/internal/service"
)

const maxUploadBytes = 5 << 20

type ResumeHandler struct {
	rag     *service.RAGService
	uploads filestore.Store
}

func NewResumeHandler(rag *service.RAGService, uploads filestore.Store) *ResumeHandler {
	return &ResumeHandler{rag: rag, uploads: uploads}
}

type addResumeRequest struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Upload accepts a multipart .txt file, keeps the raw bytes in the upload
// store and indexes the text under a fresh uuid.
func (h *ResumeHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".txt") {
		response.Error(c, errcode.ErrInvalidFile, "only .txt files are allowed")
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	if !utf8.Valid(data) {
		response.Error(c, errcode.ErrInvalidFile, "file is not valid utf-8 text")
		return
	}

	resumeID := uuid.NewString()
	if _, err := opened.Seek(0, io.SeekStart); err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to read file")
		return
	}
	key := resumeID + "_" + file.Filename
	if err := h.uploads.Save(c.Request.Context(), key, opened, file.Size); err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to store file")
		return
	}

	durable, err := h.rag.AddResume(c.Request.Context(), resumeID, file.Filename, string(data))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":       resumeID,
		"filename": file.Filename,
		"durable":  durable,
		"message":  "resume uploaded and indexed successfully",
	})
}

// Add indexes a resume passed directly as JSON. The caller may bring its own
// id; without one a uuid is minted.
func (h *ResumeHandler) Add(c *gin.Context) {
	var req addResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(c, errcode.ErrInvalid, "content is required")
		return
	}
	resumeID := strings.TrimSpace(req.ID)
	if resumeID == "" {
		resumeID = uuid.NewString()
	}
	durable, err := h.rag.AddResume(c.Request.Context(), resumeID, req.Filename, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":       resumeID,
		"filename": req.Filename,
		"durable":  durable,
		"message":  "resume indexed successfully",
	})
}

func (h *ResumeHandler) List(c *gin.Context) {
	resumes := h.rag.ListResumes(c.Request.Context())
	items := make([]gin.H, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, gin.H{"id": r.ID, "filename": r.Filename})
	}
	response.Success(c, gin.H{
		"total": len(resumes),
		"items": items,
	})
}

func (h *ResumeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	found, durable := h.rag.DeleteResume(c.Request.Context(), id)
	if !found {
		response.Error(c, errcode.ErrNotFound, "resume not found")
		return
	}
	response.Success(c, gin.H{
		"message":   "resume deleted successfully",
		"remaining": len(h.rag.ListResumes(c.Request.Context())),
		"durable":   durable,
	})
}
