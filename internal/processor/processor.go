package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/embed"
	"github.com/MikeSquared-Agency/mnemosyne/internal/hermes"
	"github.com/MikeSquared-Agency/mnemosyne/internal/summary"
)

// SessionStore is the slice of the store the live summarize-and-embed path
// needs.
type SessionStore interface {
	MessagesBetween(ctx context.Context, chatID string, from, to int64) ([]conversation.Message, error)
	MarkSummarized(ctx context.Context, id uuid.UUID, summaryText string, topicTags []string) (bool, error)
	UpsertSessionVector(ctx context.Context, sessionID uuid.UUID, chatID, embedding string) error
}

// Publisher is the outbound half of the bus client.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor drives the live path: a closed session comes in off the bus, its
// window is distilled, the summary is persisted exactly once, and the
// contextualized embedding is upserted.
type Processor struct {
	store      SessionStore
	embedder   embed.Embedder
	bus        Publisher
	dimensions int
	logger     *slog.Logger
}

func New(store SessionStore, embedder embed.Embedder, bus Publisher, dimensions int, logger *slog.Logger) *Processor {
	return &Processor{
		store:      store,
		embedder:   embedder,
		bus:        bus,
		dimensions: dimensions,
		logger:     logger,
	}
}

// HandleSessionClosed is the NATS handler for hermes.SubjectSessionClosed.
func (p *Processor) HandleSessionClosed(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.SessionClosedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse session closed event", "error", err)
		return
	}

	sessionID, err := uuid.Parse(evt.SessionID)
	if err != nil {
		p.logger.Error("invalid session id in event", "session_id", evt.SessionID, "error", err)
		return
	}

	msgs, err := p.store.MessagesBetween(ctx, evt.ChatID, evt.StartedAt, evt.EndedAt)
	if err != nil {
		p.logger.Error("failed to read message window",
			"session_id", sessionID,
			"chat_id", evt.ChatID,
			"error", err,
		)
		return
	}

	result := summary.Summarize(msgs, evt.Participants)
	if result.SummaryText == "" {
		p.logger.Info("session window produced no summary", "session_id", sessionID, "messages", len(msgs))
		return
	}

	updated, err := p.store.MarkSummarized(ctx, sessionID, result.SummaryText, result.TopicTags)
	if err != nil {
		p.logger.Error("failed to persist summary", "session_id", sessionID, "error", err)
		return
	}
	if !updated {
		p.logger.Info("session already summarized", "session_id", sessionID)
		return
	}

	// Embedding failure does not lose the summary; a missing-only backfill
	// picks the session up later.
	embedded := p.embedSession(ctx, sessionID, evt, result)

	if err := p.bus.Publish(hermes.SubjectSessionSummarized, hermes.SessionSummarizedEvent{
		SessionID:  sessionID.String(),
		ChatID:     evt.ChatID,
		TopicTags:  result.TopicTags,
		SummaryLen: len(result.SummaryText),
		Embedded:   embedded,
	}); err != nil {
		p.logger.Warn("failed to publish summarized event", "session_id", sessionID, "error", err)
	}

	p.logger.Info("session summarized",
		"session_id", sessionID,
		"chat_id", evt.ChatID,
		"messages", len(msgs),
		"topic_tags", len(result.TopicTags),
		"embedded", embedded,
	)
}

func (p *Processor) embedSession(ctx context.Context, sessionID uuid.UUID, evt hermes.SessionClosedEvent, result summary.Result) bool {
	input := embed.BuildContextInput(result.SummaryText, &embed.ContextMeta{
		ChatID:       evt.ChatID,
		StartedAt:    evt.StartedAt,
		EndedAt:      evt.EndedAt,
		Participants: evt.Participants,
		TopicTags:    result.TopicTags,
	})

	vec, err := p.embedder.Embed(ctx, input, p.dimensions)
	if err != nil {
		p.logger.Warn("embedding failed", "session_id", sessionID, "error", err)
		return false
	}

	if err := p.store.UpsertSessionVector(ctx, sessionID, evt.ChatID, embed.Serialize(vec)); err != nil {
		p.logger.Warn("vector upsert failed", "session_id", sessionID, "error", err)
		return false
	}
	return true
}
