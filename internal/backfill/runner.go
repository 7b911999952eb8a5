package backfill

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/embed"
)

const (
	defaultBatchSize  = 20
	defaultBatchDelay = 500 * time.Millisecond

	// Summaries shorter than this carry no signal worth embedding.
	minSummaryChars = 8
)

// SessionStore is the slice of the store the backfill needs: eligibility
// queries, the vector upsert, and the extension precondition check.
type SessionStore interface {
	VectorExtensionEnabled(ctx context.Context) (bool, error)
	CountSummarized(ctx context.Context, missingOnly bool) (int, error)
	ListSummarized(ctx context.Context, limit, offset int, missingOnly bool) ([]conversation.Session, error)
	UpsertSessionVector(ctx context.Context, sessionID uuid.UUID, chatID, embedding string) error
}

// Options configures a single backfill run.
type Options struct {
	BatchSize   int           // rows per batch (default 20)
	BatchDelay  time.Duration // pause between batches (default 500ms)
	MaxSessions int           // cap on rows to process; 0 = unbounded
	MissingOnly bool          // only sessions with no existing vector row
	OnProgress  func(Progress)
}

// Config holds the runner's deployment-level settings; per-run knobs live in
// Options.
type Config struct {
	Dimensions    int
	VectorCapable bool          // configured store dialect flag
	BatchSize     int           // default batch size when a run supplies none
	BatchDelay    time.Duration // default inter-batch pause
}

// Runner batch-(re)computes embeddings for summarized sessions. It runs as a
// single sequential loop so the rate of outbound embedding calls stays
// bounded; every store write is an idempotent upsert, which makes the job
// safely restartable after a partial failure.
type Runner struct {
	cfg      Config
	store    SessionStore
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewRunner creates a backfill runner. A run against a store whose dialect is
// not vector-capable is a no-op.
func NewRunner(cfg Config, store SessionStore, embedder embed.Embedder, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Run executes the backfill and returns the final progress snapshot. It never
// returns an error: precondition failures warn and return zero progress,
// per-row failures are counted and processing continues. Cancelling ctx stops
// the loop between rows and returns the partial snapshot.
func (r *Runner) Run(ctx context.Context, opts Options) Progress {
	start := time.Now()

	if !r.cfg.VectorCapable {
		r.logger.Warn("store dialect has no vector support, skipping backfill")
		return Progress{}
	}

	enabled, err := r.store.VectorExtensionEnabled(ctx)
	if err != nil {
		r.logger.Warn("failed to check vector extension", "error", err)
		return Progress{}
	}
	if !enabled {
		r.logger.Warn("vector extension not enabled in database, skipping backfill")
		return Progress{}
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = r.cfg.BatchSize
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	delay := opts.BatchDelay
	if delay <= 0 {
		delay = r.cfg.BatchDelay
	}
	if delay <= 0 {
		delay = defaultBatchDelay
	}

	total, err := r.store.CountSummarized(ctx, opts.MissingOnly)
	if err != nil {
		r.logger.Warn("failed to count eligible sessions", "error", err)
		return Progress{ElapsedMs: time.Since(start).Milliseconds()}
	}
	if opts.MaxSessions > 0 && total > opts.MaxSessions {
		total = opts.MaxSessions
	}

	r.logger.Info("backfill starting",
		"total", total,
		"batch_size", batchSize,
		"missing_only", opts.MissingOnly,
		"dimensions", r.cfg.Dimensions,
	)

	progress := Progress{Total: total}
	offset := 0

	for !progress.Done() {
		limit := batchSize
		if remaining := total - progress.Processed; remaining < limit {
			limit = remaining
		}

		rows, err := r.store.ListSummarized(ctx, limit, offset, opts.MissingOnly)
		if err != nil {
			r.logger.Warn("failed to list sessions, stopping", "offset", offset, "error", err)
			break
		}
		if len(rows) == 0 {
			break
		}
		offset += len(rows)

		for _, sess := range rows {
			if ctx.Err() != nil {
				r.logger.Info("backfill cancelled", "processed", progress.Processed)
				progress.ElapsedMs = time.Since(start).Milliseconds()
				// The caller may persist progress through the
				// callback, so the partial batch still gets
				// reported.
				if opts.OnProgress != nil {
					opts.OnProgress(progress)
				}
				return progress
			}

			progress.Processed++

			if len([]rune(sess.SummaryText)) < minSummaryChars {
				progress.Skipped++
				continue
			}

			if err := r.embedSession(ctx, sess); err != nil {
				r.logger.Warn("failed to embed session",
					"session_id", sess.ID,
					"chat_id", sess.ChatID,
					"error", err,
				)
				progress.Failed++
				continue
			}
			progress.Succeeded++
		}

		progress.ElapsedMs = time.Since(start).Milliseconds()
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}

		// Rate limiting against the embedding provider, but only while
		// work remains.
		if !progress.Done() {
			select {
			case <-ctx.Done():
				return progress
			case <-time.After(delay):
			}
		}
	}

	progress.ElapsedMs = time.Since(start).Milliseconds()
	r.logger.Info("backfill complete",
		"total", progress.Total,
		"processed", progress.Processed,
		"succeeded", progress.Succeeded,
		"failed", progress.Failed,
		"skipped", progress.Skipped,
		"elapsed_ms", progress.ElapsedMs,
	)
	return progress
}

func (r *Runner) embedSession(ctx context.Context, sess conversation.Session) error {
	input := embed.BuildContextInput(sess.SummaryText, &embed.ContextMeta{
		ChatID:       sess.ChatID,
		StartedAt:    sess.StartedAt,
		EndedAt:      sess.EndedAt,
		Participants: sess.Participants,
		TopicTags:    sess.TopicTags,
	})

	vec, err := r.embedder.Embed(ctx, input, r.cfg.Dimensions)
	if err != nil {
		return err
	}

	return r.store.UpsertSessionVector(ctx, sess.ID, sess.ChatID, embed.Serialize(vec))
}
