package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
)

// SessionSimilarity is a vector-search hit: the session row plus its cosine
// similarity to the query vector.
type SessionSimilarity struct {
	Session    conversation.Session
	Similarity float64
}

// UpsertSessionVector writes the embedding for a session, overwriting any
// existing row. embedding is the serialized vector literal, e.g. "[0.1,0.2]".
func (s *Store) UpsertSessionVector(ctx context.Context, sessionID uuid.UUID, chatID, embedding string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_vectors (session_id, chat_id, embedding, updated_at)
		VALUES ($1, $2, $3::vector, now())
		ON CONFLICT (session_id)
		DO UPDATE SET chat_id = EXCLUDED.chat_id, embedding = EXCLUDED.embedding, updated_at = now()`,
		sessionID, chatID, embedding,
	)
	if err != nil {
		return fmt.Errorf("upsert session vector: %w", err)
	}
	return nil
}

// SearchSessionVectors returns the sessions of one chat nearest to the query
// vector by cosine distance, best match first.
func (s *Store) SearchSessionVectors(ctx context.Context, chatID string, vector []float64, limit int) ([]SessionSimilarity, error) {
	if limit < 1 {
		return nil, nil
	}

	query := pgvector.NewVector(toFloat32(vector))

	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.chat_id, s.started_at, s.ended_at, s.participants, s.status,
		       coalesce(s.summary_text, ''), s.topic_tags,
		       1 - (v.embedding <=> $2) AS similarity
		FROM session_vectors v
		JOIN sessions s ON s.id = v.session_id
		WHERE v.chat_id = $1
		ORDER BY v.embedding <=> $2
		LIMIT $3`,
		chatID, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search session vectors: %w", err)
	}
	defer rows.Close()

	var hits []SessionSimilarity
	for rows.Next() {
		var (
			hit       SessionSimilarity
			partBytes []byte
			tagBytes  []byte
		)
		if err := rows.Scan(
			&hit.Session.ID,
			&hit.Session.ChatID,
			&hit.Session.StartedAt,
			&hit.Session.EndedAt,
			&partBytes,
			&hit.Session.Status,
			&hit.Session.SummaryText,
			&tagBytes,
			&hit.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		hit.Session.Participants = parseStringList(partBytes)
		hit.Session.TopicTags = parseStringList(tagBytes)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
