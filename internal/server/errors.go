package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/engine"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/store"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *store.NotFoundError
		stale      *store.StaleWriteError
		closed     *engine.SessionClosedError
		transition *engine.InvalidTransitionError
		transient  *llm.TransientError
		fatal      *llm.FatalError
		validation *ErrValidation
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &stale), errors.As(err, &closed):
		return http.StatusConflict
	case errors.As(err, &transition):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable
	case errors.As(err, &fatal):
		return http.StatusBadGateway
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
