package handlers

import "github.com/danielgtaylor/huma/v2"

// ErrorResponse is the wire shape of every non-2xx reply:
// {"status":"error","message":"..."}.
type ErrorResponse struct {
	code    int
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

func (e *ErrorResponse) GetStatus() int {
	return e.code
}

// ContentType keeps error bodies as plain JSON instead of problem+json.
func (e *ErrorResponse) ContentType(_ string) string {
	return "application/json"
}

func init() {
	huma.NewError = func(status int, message string, _ ...error) huma.StatusError {
		return &ErrorResponse{
			code:    status,
			Status:  "error",
			Message: message,
		}
	}
}
