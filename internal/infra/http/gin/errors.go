package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/queries"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

var errBusUnavailable = errors.New("bus unavailable")

// Responder carries what every handler needs to parse input and report failures.
type Responder struct {
	Logger   *slog.Logger
	Location *time.Location
}

type errorBody struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind"`
	Field    string        `json:"field,omitempty"`
	Conflict *dto.Conflict `json:"conflict,omitempty"`
}

func (r Responder) handleError(c *gin.Context, err error) {
	var (
		validation *scheduling.ValidationError
		conflict   *scheduling.ConflictError
	)
	switch {
	case errors.As(err, &conflict):
		body := dto.MapConflict(conflict.Result)
		r.respond(c, http.StatusConflict, errorBody{Error: err.Error(), Kind: "conflict", Conflict: &body}, err)
	case errors.Is(err, reservation.ErrConcurrentUpdate):
		r.respond(c, http.StatusConflict, errorBody{Error: err.Error(), Kind: "concurrent_update"}, err)
	case errors.As(err, &validation):
		r.respond(c, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "validation", Field: validation.Field}, err)
	case errors.Is(err, scheduling.ErrValidation):
		r.respond(c, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "validation"}, err)
	case errors.Is(err, scheduling.ErrNotFound):
		r.respond(c, http.StatusNotFound, errorBody{Error: err.Error(), Kind: "not_found"}, err)
	case errors.Is(err, commands.ErrHandlerNotFound), errors.Is(err, queries.ErrHandlerNotFound), errors.Is(err, errBusUnavailable):
		r.respond(c, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Kind: "unavailable"}, err)
	case errors.Is(err, scheduling.ErrInvariant):
		r.respond(c, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: "invariant"}, err)
	default:
		r.respond(c, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"}, err)
	}
}

func (r Responder) badRequest(c *gin.Context, field string, err error) {
	r.respond(c, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "validation", Field: field}, err)
}

func (r Responder) respond(c *gin.Context, status int, body errorBody, err error) {
	if r.Logger != nil && status >= http.StatusInternalServerError {
		r.Logger.Error("request failed", "status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
	}
	c.AbortWithStatusJSON(status, body)
}

// day parses a calendar day ("2006-01-02") in the property timezone. RFC 3339 timestamps
// are accepted and moved into that timezone. Empty input yields the zero time.
func (r Responder) day(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("expected a date like 2006-01-02")
	}
	return t.In(loc), nil
}

func (r Responder) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		r.badRequest(c, "body", err)
		return false
	}
	return true
}
