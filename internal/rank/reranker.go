package rank

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/text"
)

// Reranker tuning. Candidate age halves the recency term every 72 hours;
// session summaries get a type bonus because one summary stands in for a
// whole window of raw messages.
const (
	RecencyHalfLifeHours = 72.0
	SessionTypeBonus     = 1.25

	baseScoreWeight    = 0.45
	recencyWeight      = 0.25
	tokenOverlapWeight = 0.3

	// A raw message whose timestamp falls inside a candidate session's
	// window is assumed already captured by that session's summary.
	coveragePenalty = 0.5
)

// Candidate source labels.
const (
	SourceMessage = "message"
	SourceSession = "session"
)

// SessionCandidate is a session-level retrieval hit entering the reranker,
// carrying its pre-computed relevance score (keyword match or vector
// similarity, whichever retrieval path produced it).
type SessionCandidate struct {
	ID           uuid.UUID
	ChatID       string
	Score        float64
	StartedAt    int64
	EndedAt      int64
	Participants []string
	TopicTags    []string
	SummaryText  string
}

// Candidate is one ranked context item. It lives only for the duration of a
// single retrieval call and is never persisted.
type Candidate struct {
	Source      string                `json:"source"`
	Score       float64               `json:"score"`
	Text        string                `json:"text"`
	Attribution string                `json:"attribution"`
	Timestamp   int64                 `json:"timestamp"`
	Message     *conversation.Message `json:"-"`
	Session     *SessionCandidate     `json:"-"`
}

// Rerank merges message-level and session-level retrieval hits into one
// ranked list of at most limit candidates. Scores blend base relevance,
// recency decay, and lexical overlap with the query; raw messages already
// covered by a candidate session window are penalized to avoid
// double-weighting the same context.
func Rerank(messages []conversation.Message, sessions []SessionCandidate, query string, limit int) []Candidate {
	return rerankAt(messages, sessions, query, limit, time.Now().Unix())
}

func rerankAt(messages []conversation.Message, sessions []SessionCandidate, query string, limit int, now int64) []Candidate {
	if limit <= 0 {
		return []Candidate{}
	}

	queryTokens := text.UniqueTokens(query, minQueryTokenLen)

	candidates := make([]Candidate, 0, len(messages)+len(sessions))

	for i := range messages {
		m := &messages[i]
		ov := overlap(m.Text, queryTokens)

		// Messages carry no independent base-relevance signal, so the
		// lexical overlap feeds both the base and overlap terms.
		score := baseScoreWeight*ov + recencyWeight*recencyScore(m.Timestamp, now) + tokenOverlapWeight*ov
		if coveredBySession(m.Timestamp, sessions) {
			score *= coveragePenalty
		}

		candidates = append(candidates, Candidate{
			Source:      SourceMessage,
			Score:       score,
			Text:        m.Text,
			Attribution: m.Sender,
			Timestamp:   m.Timestamp,
			Message:     m,
		})
	}

	maxBase := 1.0
	for _, s := range sessions {
		if s.Score > maxBase {
			maxBase = s.Score
		}
	}

	for i := range sessions {
		s := &sessions[i]
		normalized := s.Score / maxBase
		score := (baseScoreWeight*normalized +
			recencyWeight*recencyScore(s.EndedAt, now) +
			tokenOverlapWeight*overlap(s.SummaryText, queryTokens)) * SessionTypeBonus

		candidates = append(candidates, Candidate{
			Source:      SourceSession,
			Score:       score,
			Text:        s.SummaryText,
			Attribution: s.ID.String(),
			Timestamp:   s.EndedAt,
			Session:     s,
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].Timestamp > candidates[b].Timestamp
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// recencyScore halves every RecencyHalfLifeHours of age.
func recencyScore(ts, now int64) float64 {
	return math.Pow(0.5, ageInHours(ts, now)/RecencyHalfLifeHours)
}

// overlap is the fraction of query tokens present in candidateText, 0 when
// the query has no qualifying tokens.
func overlap(candidateText string, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	present := map[string]struct{}{}
	for _, tok := range text.Tokenize(candidateText, minQueryTokenLen) {
		present[tok] = struct{}{}
	}
	hits := 0
	for _, tok := range queryTokens {
		if _, ok := present[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func coveredBySession(ts int64, sessions []SessionCandidate) bool {
	for _, s := range sessions {
		if ts >= s.StartedAt && ts <= s.EndedAt {
			return true
		}
	}
	return false
}
