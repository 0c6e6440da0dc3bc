package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gma-backend/internal/http/response"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/apierr"
	"github.com/yungbote/gma-backend/internal/platform/identity"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

var errInternal = errors.New("internal server error")

// respondServiceError is the single place service errors become HTTP
// statuses. Unclassified errors are logged and hidden from the client.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	status, code, clientErr := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
		_ = c.Error(err)
	}
	response.RespondError(c, status, code, clientErr)
}

func classify(err error) (int, string, error) {
	var (
		api      *apierr.Error
		tooLarge *services.UploadTooLargeError
		writeErr *services.UploadWriteError
		scoreErr *services.ScoringError
	)
	switch {
	case errors.As(err, &api):
		return api.Status, api.Code, api
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large", tooLarge
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest, "validation", trimSentinel(err, apperrors.ErrInvalidArgument)
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found", trimSentinel(err, apperrors.ErrNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, identity.ErrMissingToken),
		errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized", err
	case errors.As(err, &writeErr):
		return http.StatusInternalServerError, "io_error", writeErr
	case errors.As(err, &scoreErr):
		return http.StatusInternalServerError, "scoring_failed", scoreErr
	default:
		return http.StatusInternalServerError, "internal", errInternal
	}
}

// trimSentinel drops a leading "<sentinel>: " so clients see the detail only.
func trimSentinel(err, sentinel error) error {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		msg = msg[:i] + msg[i+len(sentinel.Error())+2:]
	}
	return errors.New(msg)
}

func badRequest(c *gin.Context, err error) {
	response.RespondError(c, http.StatusBadRequest, "validation", err)
}
