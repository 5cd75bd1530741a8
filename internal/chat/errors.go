package chat

import "errors"

var (
	// ErrRateLimited is returned when a user exceeded their request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnavailable is returned while the generation engine has not been
	// reachable yet.
	ErrUnavailable = errors.New("chatbot service is currently unavailable")

	// ErrEmptyMessage is returned for a blank input message.
	ErrEmptyMessage = errors.New("empty message")

	// ErrMessageTooLong is returned when the input exceeds the configured
	// maximum message length.
	ErrMessageTooLong = errors.New("message exceeds maximum length")
)
