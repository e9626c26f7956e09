package router

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   model.ErrorKind `json:"error"`
	Message string          `json:"message"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindInvalidFormat:        http.StatusBadRequest,
	model.KindInvalidArgument:      http.StatusBadRequest,
	model.KindNoActiveSubscription: http.StatusForbidden,
	model.KindAlreadyTracked:       http.StatusConflict,
	model.KindAttemptInProgress:    http.StatusConflict,
	model.KindNotFound:             http.StatusNotFound,
	model.KindTimeout:              http.StatusGatewayTimeout,
	model.KindNetworkUnavailable:   http.StatusBadGateway,
	model.KindInvalidRequest:       http.StatusBadGateway,
	model.KindUnauthorized:         http.StatusBadGateway,
	model.KindServerError:          http.StatusBadGateway,
	model.KindPersistenceError:     http.StatusInternalServerError,
	model.KindUnknown:              http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind model.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Unclassified errors are logged and
// reported as Unknown without leaking their text.
func writeError(c *gin.Context, err error) {
	var te *model.TrackingError
	if !errors.As(err, &te) {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   model.KindUnknown,
			Message: "Internal server error",
		})
		return
	}

	status := StatusFor(te.Kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", te.Kind,
			"error", err)
	}
	c.JSON(status, ErrorResponse{Error: te.Kind, Message: te.UserMessage()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: model.KindInvalidArgument, Message: message})
}

// sessionFrom builds the workflow session for the authenticated caller. RequireAuth
// guarantees the auth context is present on every tracker route.
func sessionFrom(c *gin.Context) (*service.Session, *auth.AuthContext, bool) {
	authCtx := auth.GetAuthContext(c.Request.Context())
	if authCtx == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "UNAUTHORIZED",
			Message: "authentication required",
		})
		return nil, nil, false
	}
	return &service.Session{UserID: authCtx.UserID}, authCtx, true
}
