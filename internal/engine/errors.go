package engine

import (
	"fmt"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// SessionClosedError indicates an operation on a completed or abandoned
// session. It is not retryable.
type SessionClosedError struct {
	ID     string
	Status types.Status
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session %s is %s", e.ID, e.Status)
}

// InvalidTransitionError indicates an attempted advancement from the terminal
// stage or to a non-declared successor. It is a programming or integration
// error, never retried.
type InvalidTransitionError struct {
	ID   string
	From types.Stage
	To   types.Stage
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("session %s: cannot advance from stage %q", e.ID, e.From)
	}
	return fmt.Sprintf("session %s: stage %q does not declare %q as a successor", e.ID, e.From, e.To)
}
