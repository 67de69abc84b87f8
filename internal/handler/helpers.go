package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"resumerag/internal/ai"
	"resumerag/internal/pkg/errcode"
	appErr "resumerag/internal/pkg/errors"
	"resumerag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrEmbedUnavailable, "embedding provider unavailable, retry later")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "resume id already exists")
	case errors.Is(err, appErr.ErrDimension):
		response.Error(c, errcode.ErrInvalid, "embedding dimension mismatch")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
