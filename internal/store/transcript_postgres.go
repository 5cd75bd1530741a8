package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
)

// TranscriptPostgresStore is a PostgreSQL implementation of analytics.Store.
// It archives every answered exchange and honors clear events by deleting
// the archived rows for the conversation.
type TranscriptPostgresStore struct {
	pool *pgxpool.Pool
}

// NewTranscriptPostgresStore creates a new PostgreSQL-backed transcript store.
func NewTranscriptPostgresStore(pool *pgxpool.Pool) *TranscriptPostgresStore {
	return &TranscriptPostgresStore{pool: pool}
}

func (s *TranscriptPostgresStore) SaveExchange(ctx context.Context, event *analytics.ExchangeRecordedEvent) error {
	query := `
		INSERT INTO chat_exchanges (
			id, user_id, bot_id, message, response, source,
			model_type, processing_ms, client_ip, user_agent, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.BotID,
		event.Message,
		event.Response,
		event.Source,
		event.ModelType,
		event.ProcessingMS,
		event.ClientIP,
		event.UserAgent,
		event.CreatedAt,
	)

	return err
}

func (s *TranscriptPostgresStore) DeleteConversation(ctx context.Context, event *analytics.ConversationClearedEvent) error {
	if event.All {
		_, err := s.pool.Exec(ctx, `DELETE FROM chat_exchanges`)

		return err
	}

	_, err := s.pool.Exec(ctx,
		`DELETE FROM chat_exchanges WHERE user_id = $1 AND bot_id = $2`,
		event.UserID, event.BotID,
	)

	return err
}

// Shutdown closes the underlying connection pool.
func (s *TranscriptPostgresStore) Shutdown() error {
	s.pool.Close()

	return nil
}

// Compile-time check.
var _ analytics.Store = (*TranscriptPostgresStore)(nil)
