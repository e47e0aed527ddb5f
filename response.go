package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// error codes carried in Response.Error.Code
const (
	_INVALID_REQUEST    = "INVALID_REQUEST"
	_COMPLETION_FAILURE = "COMPLETION_FAILURE"
	_HISTORY_DISABLED   = "HISTORY_DISABLED"
	_INTERNAL_ERROR     = "INTERNAL_ERROR"
)

// Response is the envelope every /api/v1 endpoint answers with
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *MetaInfo  `json:"meta"`
}

// ErrorInfo says why a request failed; Code is one of the constants above
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo ties a response back to the request that produced it
type MetaInfo struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// newMeta reuses the id set by requestID() so X-Request-ID and the body agree
func newMeta(ctx *gin.Context) *MetaInfo {
	request_id := ctx.GetString("request_id")
	if request_id == "" {
		request_id = uuid.New().String()
	}
	return &MetaInfo{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: request_id,
	}
}

func respondSuccess(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, Response{Success: true, Data: data, Meta: newMeta(ctx)})
}

func respondError(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
		Meta:    newMeta(ctx),
	})
}
