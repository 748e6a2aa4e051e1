package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/queries"
	"babiloc/internal/domain/shared/failure"
)

var statusByKind = map[failure.Kind]int{
	failure.KindValidation:        http.StatusBadRequest,
	failure.KindConflict:          http.StatusConflict,
	failure.KindPricing:           http.StatusUnprocessableEntity,
	failure.KindInvalidTransition: http.StatusConflict,
	failure.KindPermission:        http.StatusForbidden,
	failure.KindEligibility:       http.StatusUnprocessableEntity,
	failure.KindNotFound:          http.StatusNotFound,
}

type errorBody struct {
	Kind          string `json:"kind"`
	Error         string `json:"error"`
	Detail        string `json:"detail,omitempty"`
	Date          string `json:"date,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}

// writeError renders a business failure with its mapped status. Anything else is an
// internal error whose text is logged, never returned.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	if fe, ok := failure.As(err); ok {
		status, known := statusByKind[fe.Kind]
		if !known {
			status = http.StatusBadRequest
		}
		body := errorBody{Kind: string(fe.Kind), Error: fe.Code, Detail: fe.Detail, ReservationID: fe.ReservationID}
		if body.Error == "" {
			body.Error = string(fe.Kind)
		}
		if fe.Date != nil {
			body.Date = fe.Date.Format(time.DateOnly)
		}
		c.JSON(status, body)
		return
	}
	if errors.Is(err, commands.ErrHandlerNotFound) || errors.Is(err, queries.ErrHandlerNotFound) {
		c.JSON(http.StatusNotImplemented, errorBody{Kind: "internal", Error: "not_implemented"})
		return
	}
	if logger != nil {
		logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(http.StatusInternalServerError, errorBody{Kind: "internal", Error: "internal_error"})
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, errorBody{Kind: string(failure.KindValidation), Error: failure.CodeInvalidInput, Detail: detail})
}
