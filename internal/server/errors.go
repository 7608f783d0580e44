package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/timelineai/internal/generator"
	"github.com/user/timelineai/internal/stream"
)

// Fixed response messages.
const (
	msgQueryRequired = "Query is required"
	msgInvalidBody   = "Invalid request body"
	msgGenerated     = "Timeline generated successfully"
	msgAnswered      = "Chat response generated successfully"
	msgSoftFailure   = "Could not generate a timeline"
	msgInternal      = "Internal server error"
)

// apology is the payload of a request whose generation failed.
const apology = "Sorry, couldn't generate timeline data. Please try again."

// mapError maps pipeline errors to an HTTP status and response. gone is
// true when the client disconnected and nothing should be written.
func mapError(err error) (status int, resp envelope, gone bool) {
	var validErr *generator.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, failure("Invalid query: " + validErr.Message), false
	}
	if errors.Is(err, stream.ErrConsumerGone) || errors.Is(err, context.Canceled) {
		return 0, envelope{}, true
	}
	if generator.IsFailure(err) {
		return http.StatusOK, success(apology, msgSoftFailure), false
	}

	// Unexpected error
	slog.Error("unexpected pipeline error", "error", err)
	return http.StatusInternalServerError, failure(msgInternal), false
}
