package retrieval

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/embed"
	"github.com/MikeSquared-Agency/mnemosyne/internal/rank"
	"github.com/MikeSquared-Agency/mnemosyne/internal/store"
)

const (
	messageCandidateLimit = 12
	sessionCandidateLimit = 8
	lexicalSessionWindow  = 16
)

// Store is the slice of the store the retriever needs: the two candidate
// sources feeding the reranker.
type Store interface {
	SearchMessages(ctx context.Context, chatID, query string, limit int) ([]conversation.Message, error)
	SearchSessionVectors(ctx context.Context, chatID string, vector []float64, limit int) ([]store.SessionSimilarity, error)
	RecentSummarized(ctx context.Context, chatID string, limit int) ([]conversation.Session, error)
}

// Retriever runs both retrieval paths for a live query and merges them
// through the reranker. Path failures degrade to an empty candidate list for
// that path rather than failing the whole call; this sits in a user-facing
// request path.
type Retriever struct {
	store        Store
	embedder     embed.Embedder
	dimensions   int
	vectorSearch bool
	logger       *slog.Logger
}

func New(st Store, embedder embed.Embedder, dimensions int, vectorSearch bool, logger *slog.Logger) *Retriever {
	return &Retriever{
		store:        st,
		embedder:     embedder,
		dimensions:   dimensions,
		vectorSearch: vectorSearch,
		logger:       logger,
	}
}

// Retrieve returns up to limit ranked context candidates for a query in one
// chat.
func (r *Retriever) Retrieve(ctx context.Context, chatID, query string, limit int) []rank.Candidate {
	msgs, err := r.store.SearchMessages(ctx, chatID, query, messageCandidateLimit)
	if err != nil {
		r.logger.Warn("message search failed", "chat_id", chatID, "error", err)
		msgs = nil
	}

	sessions := r.sessionCandidates(ctx, chatID, query)

	return rank.Rerank(msgs, sessions, query, limit)
}

// sessionCandidates prefers vector search and falls back to lexically scoring
// recent summaries when vectors are unavailable.
func (r *Retriever) sessionCandidates(ctx context.Context, chatID, query string) []rank.SessionCandidate {
	if r.vectorSearch {
		if candidates, ok := r.vectorCandidates(ctx, chatID, query); ok {
			return candidates
		}
	}
	return r.lexicalCandidates(ctx, chatID, query)
}

func (r *Retriever) vectorCandidates(ctx context.Context, chatID, query string) ([]rank.SessionCandidate, bool) {
	vec, err := r.embedder.Embed(ctx, query, r.dimensions)
	if err != nil {
		r.logger.Warn("query embedding failed, falling back to lexical match", "error", err)
		return nil, false
	}

	hits, err := r.store.SearchSessionVectors(ctx, chatID, vec, sessionCandidateLimit)
	if err != nil {
		r.logger.Warn("session vector search failed, falling back to lexical match", "error", err)
		return nil, false
	}

	candidates := make([]rank.SessionCandidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, sessionCandidate(hit.Session, hit.Similarity))
	}
	return candidates, true
}

func (r *Retriever) lexicalCandidates(ctx context.Context, chatID, query string) []rank.SessionCandidate {
	sessions, err := r.store.RecentSummarized(ctx, chatID, lexicalSessionWindow)
	if err != nil {
		r.logger.Warn("recent session lookup failed", "chat_id", chatID, "error", err)
		return nil
	}

	candidates := make([]rank.SessionCandidate, 0, len(sessions))
	for _, sess := range sessions {
		score := rank.ScoreSessionMatch(sess.SummaryText, sess.TopicTags, query, sess.EndedAt)
		candidates = append(candidates, sessionCandidate(sess, score))
	}
	if len(candidates) > sessionCandidateLimit {
		candidates = candidates[:sessionCandidateLimit]
	}
	return candidates
}

func sessionCandidate(sess conversation.Session, score float64) rank.SessionCandidate {
	return rank.SessionCandidate{
		ID:           sess.ID,
		ChatID:       sess.ChatID,
		Score:        score,
		StartedAt:    sess.StartedAt,
		EndedAt:      sess.EndedAt,
		Participants: sess.Participants,
		TopicTags:    sess.TopicTags,
		SummaryText:  sess.SummaryText,
	}
}
