package handlers

import (
	"time"

	"github.com/21ahmud/botlyra-backend/internal/chat"
	"github.com/21ahmud/botlyra-backend/internal/engine"
)

// TurnPayload is the wire form of a conversation turn.
type TurnPayload struct {
	Sender    string    `doc:"Who sent the message (user or bot)" enum:"user,bot" json:"sender"`
	Message   string    `doc:"Message text"                       json:"message"`
	Timestamp time.Time `doc:"When the turn was recorded"         json:"timestamp,omitempty"`
}

func toTurns(payload []TurnPayload) []chat.Turn {
	if len(payload) == 0 {
		return nil
	}

	turns := make([]chat.Turn, 0, len(payload))
	for _, p := range payload {
		turns = append(turns, chat.Turn{
			Sender:    chat.Sender(p.Sender),
			Message:   p.Message,
			Timestamp: p.Timestamp,
		})
	}

	return turns
}

func fromTurns(turns []chat.Turn) []TurnPayload {
	payload := make([]TurnPayload, 0, len(turns))
	for _, t := range turns {
		payload = append(payload, TurnPayload{
			Sender:    string(t.Sender),
			Message:   t.Message,
			Timestamp: t.Timestamp,
		})
	}

	return payload
}

// PredictRequest is the request body for generating a chat reply. All fields
// except message are optional; validation happens in the handler so the
// error codes match the API contract.
type PredictRequest struct {
	Body struct {
		Message             string         `doc:"User message to answer"                      example:"hello"     json:"message,omitempty"`
		UserID              string         `doc:"Identifier of the requesting user"           example:"u1"        json:"user_id,omitempty"`
		BotID               string         `doc:"Identifier of the bot persona"               example:"default"   json:"bot_id,omitempty"`
		BotContext          map[string]any `doc:"Opaque bot context stored with the conversation" json:"bot_context,omitempty"`
		ConversationHistory []TurnPayload  `doc:"Caller-supplied history overriding stored memory" json:"conversation_history,omitempty"`
	}
}

// PredictResponse is the reply for a successfully answered message.
type PredictResponse struct {
	Body struct {
		Status         string    `doc:"Always success"                     json:"status"`
		Response       string    `doc:"Generated reply"                    json:"response"`
		ProcessingTime float64   `doc:"Server-side processing time in seconds" json:"processing_time"`
		Timestamp      time.Time `doc:"When the reply was produced"        json:"timestamp"`
		ModelType      string    `doc:"Type of the model that answered"    json:"model_type"`
	}
}

// HistoryRequest is the query for fetching a conversation's stored turns.
type HistoryRequest struct {
	UserID string `doc:"Identifier of the user" query:"user_id" required:"false"`
	BotID  string `doc:"Identifier of the bot"  query:"bot_id"  required:"false"`
}

// HistoryResponse returns a conversation's stored turns, oldest first.
type HistoryResponse struct {
	Body struct {
		Status        string        `json:"status"`
		History       []TurnPayload `json:"history"`
		TotalMessages int           `json:"total_messages"`
	}
}

// ClearScope names the conversation to clear.
type ClearScope struct {
	UserID string `doc:"Identifier of the user" json:"user_id,omitempty"`
	BotID  string `doc:"Identifier of the bot"  json:"bot_id,omitempty"`
}

// ClearRequest optionally names one conversation; with the body absent or
// either ID missing, all conversation memory and the response cache are
// cleared.
type ClearRequest struct {
	Body *ClearScope `required:"false"`
}

// ClearResponse reports what was cleared.
type ClearResponse struct {
	Body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
}

// ModelInfoResponse describes the serving model and live server stats.
type ModelInfoResponse struct {
	Body struct {
		Status     string      `json:"status"`
		ModelInfo  engine.Info `json:"model_info"`
		ServerInfo struct {
			ActiveConversations int   `json:"active_conversations"`
			CachedResponses     int64 `json:"cached_responses"`
			ModelLoaded         bool  `json:"model_loaded"`
		} `json:"server_info"`
	}
}
