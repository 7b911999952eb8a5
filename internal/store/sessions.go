package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
)

// missingVectorClause restricts a sessions query to rows that have no
// corresponding session_vectors row.
const missingVectorClause = ` AND NOT EXISTS (
		SELECT 1 FROM session_vectors v WHERE v.session_id = s.id)`

// CountSummarized counts sessions eligible for embedding: summarized with a
// non-null summary, optionally restricted to those missing a vector.
func (s *Store) CountSummarized(ctx context.Context, missingOnly bool) (int, error) {
	query := `
		SELECT count(*)
		FROM sessions s
		WHERE s.status = 'summarized' AND s.summary_text IS NOT NULL`
	if missingOnly {
		query += missingVectorClause
	}

	var n int
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count summarized sessions: %w", err)
	}
	return n, nil
}

// ListSummarized returns a page of embedding-eligible sessions, most recently
// ended first.
func (s *Store) ListSummarized(ctx context.Context, limit, offset int, missingOnly bool) ([]conversation.Session, error) {
	query := `
		SELECT s.id, s.chat_id, s.started_at, s.ended_at, s.participants, s.status,
		       coalesce(s.summary_text, ''), s.topic_tags
		FROM sessions s
		WHERE s.status = 'summarized' AND s.summary_text IS NOT NULL`
	if missingOnly {
		query += missingVectorClause
	}
	query += `
		ORDER BY s.ended_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list summarized sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// RecentSummarized returns the latest summarized sessions for one chat, used
// by the lexical retrieval path when no vector search is available.
func (s *Store) RecentSummarized(ctx context.Context, chatID string, limit int) ([]conversation.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.chat_id, s.started_at, s.ended_at, s.participants, s.status,
		       coalesce(s.summary_text, ''), s.topic_tags
		FROM sessions s
		WHERE s.chat_id = $1 AND s.status = 'summarized' AND s.summary_text IS NOT NULL
		ORDER BY s.ended_at DESC
		LIMIT $2`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent summarized sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// MarkSummarized transitions an open session to summarized with its distilled
// output. The WHERE clause makes the transition exactly-once: a session that
// already left the open state is never overwritten.
func (s *Store) MarkSummarized(ctx context.Context, id uuid.UUID, summaryText string, topicTags []string) (bool, error) {
	tagsJSON, err := json.Marshal(topicTags)
	if err != nil {
		return false, fmt.Errorf("marshal topic tags: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'summarized', summary_text = $1, topic_tags = $2
		WHERE id = $3 AND status = 'open'`,
		summaryText, tagsJSON, id,
	)
	if err != nil {
		return false, fmt.Errorf("mark session summarized: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type sessionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSessions(rows sessionRows) ([]conversation.Session, error) {
	var sessions []conversation.Session
	for rows.Next() {
		var (
			sess      conversation.Session
			partBytes []byte
			tagBytes  []byte
		)
		if err := rows.Scan(
			&sess.ID,
			&sess.ChatID,
			&sess.StartedAt,
			&sess.EndedAt,
			&partBytes,
			&sess.Status,
			&sess.SummaryText,
			&tagBytes,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Participants = parseStringList(partBytes)
		sess.TopicTags = parseStringList(tagBytes)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sessions, nil
}

// parseStringList decodes a jsonb string-array column, returning an explicit
// empty slice for NULL or malformed content rather than failing the row.
func parseStringList(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
