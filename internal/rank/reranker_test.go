package rank

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
)

func TestRerank_CoveragePenalty(t *testing.T) {
	// A message inside a session window scores exactly half of the same
	// message with no covering session.
	msg := conversation.Message{Sender: "ann", Text: "pizza time", Timestamp: 1000}
	session := SessionCandidate{
		ID:        uuid.New(),
		Score:     0, // keeps the session itself from outranking anything
		StartedAt: 900,
		EndedAt:   1100,
	}

	now := int64(1000)

	uncovered := rerankAt([]conversation.Message{msg}, nil, "pizza", 10, now)
	covered := rerankAt([]conversation.Message{msg}, []SessionCandidate{session}, "pizza", 10, now)

	baseline := findSource(t, uncovered, SourceMessage).Score
	penalized := findSource(t, covered, SourceMessage).Score

	if math.Abs(penalized-baseline/2) > 1e-9 {
		t.Errorf("covered score = %v, want exactly half of %v", penalized, baseline)
	}
	// With full overlap and zero age: 0.45 + 0.25 + 0.3 = 1.0 before penalty.
	if math.Abs(baseline-1.0) > 1e-9 {
		t.Errorf("baseline score = %v, want 1.0", baseline)
	}
}

func TestRerank_OrderingAndLimit(t *testing.T) {
	now := int64(1_700_000_000)

	msgs := []conversation.Message{
		{Sender: "ann", Text: "pizza friday plans", Timestamp: now - 100},
		{Sender: "bob", Text: "unrelated chatter entirely", Timestamp: now - 7200},
		{Sender: "cat", Text: "pizza toppings debate", Timestamp: now - 3600},
	}
	sessions := []SessionCandidate{
		{ID: uuid.New(), Score: 4, EndedAt: now - 1800, SummaryText: "topics: pizza | ann: pizza friday?"},
		{ID: uuid.New(), Score: 2, EndedAt: now - 90000, SummaryText: "old hiking discussion"},
	}

	for _, limit := range []int{1, 3, 10} {
		got := rerankAt(msgs, sessions, "pizza friday", limit, now)

		if len(got) > limit {
			t.Errorf("limit %d: got %d candidates", limit, len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Errorf("limit %d: scores increase at position %d: %v > %v",
					limit, i, got[i].Score, got[i-1].Score)
			}
		}
	}
}

func TestRerank_SessionNormalization(t *testing.T) {
	now := int64(1_700_000_000)

	// Identical sessions except for base score: the higher one must win,
	// and the winner's base term must normalize to 1.
	high := SessionCandidate{ID: uuid.New(), Score: 10, EndedAt: now, SummaryText: "pizza"}
	low := SessionCandidate{ID: uuid.New(), Score: 5, EndedAt: now, SummaryText: "pizza"}

	got := rerankAt(nil, []SessionCandidate{low, high}, "pizza", 10, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Session == nil || got[0].Session.ID != high.ID {
		t.Errorf("expected higher-scored session first")
	}

	// normalized base 1.0, zero age, full overlap: (0.45 + 0.25 + 0.3) * 1.25
	want := 1.25
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("top session score = %v, want %v", got[0].Score, want)
	}
}

func TestRerank_SmallSessionScoresKeepScale(t *testing.T) {
	now := int64(1_700_000_000)

	// Max base below 1 must not be inflated: the floor divisor is 1.
	sess := SessionCandidate{ID: uuid.New(), Score: 0.4, EndedAt: now, SummaryText: "pizza"}
	got := rerankAt(nil, []SessionCandidate{sess}, "pizza", 10, now)

	want := (0.45*0.4 + 0.25 + 0.3) * 1.25
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}

func TestRerank_DegenerateInputs(t *testing.T) {
	if got := Rerank(nil, nil, "anything", 5); len(got) != 0 {
		t.Errorf("no candidates should yield empty list, got %d", len(got))
	}
	msgs := []conversation.Message{{Sender: "a", Text: "hello there", Timestamp: 1}}
	if got := Rerank(msgs, nil, "hello", 0); len(got) != 0 {
		t.Errorf("zero limit should yield empty list, got %d", len(got))
	}
}

func TestRerank_AttributionAndSource(t *testing.T) {
	now := int64(1_700_000_000)
	sessID := uuid.New()

	msgs := []conversation.Message{{Sender: "ann", Text: "pizza", Timestamp: now}}
	sessions := []SessionCandidate{{ID: sessID, Score: 1, EndedAt: now, SummaryText: "pizza"}}

	got := rerankAt(msgs, sessions, "pizza", 10, now)

	m := findSource(t, got, SourceMessage)
	if m.Attribution != "ann" {
		t.Errorf("message attribution = %q, want sender", m.Attribution)
	}
	s := findSource(t, got, SourceSession)
	if s.Attribution != sessID.String() {
		t.Errorf("session attribution = %q, want session id", s.Attribution)
	}
}

func findSource(t *testing.T, candidates []Candidate, source string) Candidate {
	t.Helper()
	for _, c := range candidates {
		if c.Source == source {
			return c
		}
	}
	t.Fatalf("no candidate with source %q", source)
	return Candidate{}
}
