package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nerdneilsfield/go-translator-workbench/internal/corpus"
	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/internal/preferences"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/store"
)

// Response 标准 API 响应格式
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: err.Error()})
}

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, preferences.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, project.ErrSegmentIndex),
		errors.Is(err, project.ErrInvalidProject),
		errors.Is(err, corpus.ErrUnsupportedCorpus),
		errors.Is(err, preferences.ErrNoTokens):
		return http.StatusBadRequest
	case errors.Is(err, preferences.ErrDefaultImmutable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func failErr(c *gin.Context, err error) {
	fail(c, statusFor(err), err)
}
