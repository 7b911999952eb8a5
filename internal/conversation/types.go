package conversation

import "github.com/google/uuid"

// Session status values. A session is created "open" by upstream
// segmentation and transitions to "summarized" exactly once.
const (
	StatusOpen       = "open"
	StatusSummarized = "summarized"
)

// Message is a single chat message. Timestamps are epoch seconds.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Session is a bounded window of messages in one chat.
type Session struct {
	ID           uuid.UUID `json:"id"`
	ChatID       string    `json:"chat_id"`
	StartedAt    int64     `json:"started_at"`
	EndedAt      int64     `json:"ended_at"`
	Participants []string  `json:"participants"`
	Status       string    `json:"status"`
	SummaryText  string    `json:"summary_text"`
	TopicTags    []string  `json:"topic_tags"`
}

// Covers reports whether ts falls inside the session's time window.
func (s Session) Covers(ts int64) bool {
	return ts >= s.StartedAt && ts <= s.EndedAt
}
