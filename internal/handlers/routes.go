package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the chat API routes.
func RegisterRoutes(api huma.API, h *ChatHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "predict",
		Method:      http.MethodPost,
		Path:        "/predict",
		Summary:     "Generate a chat reply",
		Description: "Answers a user message, using cached replies for repeated identical requests and deterministic fallbacks when generation fails.",
		Tags:        []string{"Chat"},
	}, h.Predict)

	huma.Register(api, huma.Operation{
		OperationID: "get-conversation-history",
		Method:      http.MethodGet,
		Path:        "/conversation/history",
		Summary:     "Get conversation history",
		Description: "Returns the stored turns for a user/bot conversation, oldest first.",
		Tags:        []string{"Chat"},
	}, h.History)

	huma.Register(api, huma.Operation{
		OperationID: "clear-conversation",
		Method:      http.MethodPost,
		Path:        "/conversation/clear",
		Summary:     "Clear conversation memory",
		Description: "Clears one conversation when both user_id and bot_id are given, otherwise clears all memory and the response cache.",
		Tags:        []string{"Chat"},
	}, h.Clear)

	huma.Register(api, huma.Operation{
		OperationID: "model-info",
		Method:      http.MethodGet,
		Path:        "/model/info",
		Summary:     "Model and server information",
		Tags:        []string{"Operations"},
	}, h.ModelInfo)
}
