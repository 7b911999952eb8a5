package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/text"
)

// MessagesBetween reads the ordered message window for one chat, inclusive of
// both bounds (epoch seconds).
func (s *Store) MessagesBetween(ctx context.Context, chatID string, from, to int64) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sender, body, ts
		FROM messages
		WHERE chat_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`,
		chatID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("read message window: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.Sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return msgs, nil
}

// SearchMessages finds recent messages in a chat matching any query token,
// newest first. A query with no qualifying tokens matches nothing.
func (s *Store) SearchMessages(ctx context.Context, chatID, query string, limit int) ([]conversation.Message, error) {
	if limit < 1 {
		return nil, nil
	}

	tokens := text.UniqueTokens(query, 3)
	if len(tokens) == 0 {
		return nil, nil
	}

	patterns := make([]string, len(tokens))
	for i, tok := range tokens {
		patterns[i] = "%" + escapeLike(tok) + "%"
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sender, body, ts
		FROM messages
		WHERE chat_id = $1 AND body ILIKE ANY($2)
		ORDER BY ts DESC
		LIMIT $3`,
		chatID, patterns, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.Sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return msgs, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
