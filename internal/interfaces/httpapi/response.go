package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/usecase"
)

const (
	codeSuccess = "00"
	codeFailed  = "99"
)

// responseEnvelope is the platform-wide response shape. Code "99" reports a
// domain failure regardless of HTTP status, so web and mobile clients branch
// on the code, not the status line.
type responseEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, responseEnvelope{
		Code:    codeSuccess,
		Message: "success",
		Data:    data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	writeJSON(ctx, w, httpStatusFor(ctx, err), responseEnvelope{
		Code:    codeFailed,
		Message: err.Error(),
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, responseEnvelope{
		Code:    codeFailed,
		Message: "internal server error",
	})
}

func httpStatusFor(ctx context.Context, err error) int {
	ctx, span := startSpan(ctx, "httpapi.httpStatusFor")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, matchevent.ErrInvalidEvent),
		errors.Is(err, matchevent.ErrUnknownPlayer),
		errors.Is(err, matchevent.ErrInvalidSubstitution),
		errors.Is(err, matchevent.ErrInconsistentCardHistory),
		errors.Is(err, lineup.ErrInvalidLineup),
		errors.Is(err, lineup.ErrInvalidSubstitution):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrDependencyUnavailable),
		errors.Is(err, usecase.ErrPersistFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
