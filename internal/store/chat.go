package store

import (
	"context"
	"fmt"
	"time"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const chatTableName = "vitalflow.chat_messages"

var chatColumns = utils.StructTagValues(types.ChatMessage{})

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// History returns the sender's messages oldest first. When contextOnly is set,
// messages removed from the assistant's context are skipped.
func (r *ChatRepository) History(ctx context.Context, senderID string, contextOnly bool) ([]*types.ChatMessage, error) {
	pred := sq.Eq{"sender_id": senderID}
	if contextOnly {
		pred["consider_context"] = true
	}

	query, args, err := psql().
		Select(chatColumns...).
		From(chatTableName).
		Where(pred).
		OrderBy("created_at asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chat history query: %w", err)
	}

	var messages = make([]*types.ChatMessage, 0)
	err = pgxscan.Select(ctx, r.pool, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	return messages, nil
}

func (r *ChatRepository) InsertMany(ctx context.Context, messages []*types.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	query, args, err := insertMessagesQuery(messages)
	if err != nil {
		return fmt.Errorf("failed to generate insert chat messages query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert chat messages: %w", err)
	}

	return nil
}

func insertMessagesQuery(messages []*types.ChatMessage) (string, []any, error) {
	b := psql().Insert(chatTableName).Columns(chatColumns...)
	for _, m := range messages {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		b = b.Values(m.ID, m.SenderID, m.Role, m.Message, m.ConsiderContext, m.CreatedAt)
	}
	return b.ToSql()
}

func (r *ChatRepository) ClearContext(ctx context.Context, senderID string) error {
	query, args, err := psql().
		Update(chatTableName).
		Set("consider_context", false).
		Where(sq.Eq{"sender_id": senderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate clear chat context query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to clear chat context: %w", err)
	}

	return nil
}
