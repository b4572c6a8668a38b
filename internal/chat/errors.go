package chat

import (
	"errors"

	"github.com/matheus3301/melo/internal/domain"
)

var (
	ErrEmptyMessage     = domain.NewValidationError("message is empty")
	ErrMessageTooLong   = domain.NewValidationError("message is too long")
	ErrNotAuthenticated = domain.NewAuthError("not signed in", 0)
	ErrSendInFlight     = errors.New("a message is already being sent")
	ErrCancelled        = errors.New("cancelled")
)

// FallbackReply is shown in place of a bot reply when a send fails.
const FallbackReply = "Sorry, something went wrong. Please try again."
