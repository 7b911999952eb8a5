package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Bus subjects this service cares about.
const (
	// SubjectSessionClosed is emitted by Chronicle when upstream
	// segmentation closes a conversation session.
	SubjectSessionClosed = "swarm.chronicle.session.closed"

	// SubjectSessionSummarized announces that a session has been distilled
	// and (when possible) embedded.
	SubjectSessionSummarized = "swarm.mnemosyne.session.summarized"

	// SubjectRegistered announces this agent on startup.
	SubjectRegistered = "swarm.agent.mnemosyne.registered"
)

// SessionClosedEvent is the payload for SubjectSessionClosed.
type SessionClosedEvent struct {
	SessionID    string   `json:"session_id"`
	ChatID       string   `json:"chat_id"`
	StartedAt    int64    `json:"started_at"`
	EndedAt      int64    `json:"ended_at"`
	Participants []string `json:"participants"`
}

// SessionSummarizedEvent is the payload for SubjectSessionSummarized.
type SessionSummarizedEvent struct {
	SessionID  string   `json:"session_id"`
	ChatID     string   `json:"chat_id"`
	TopicTags  []string `json:"topic_tags"`
	SummaryLen int      `json:"summary_len"`
	Embedded   bool     `json:"embedded"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("mnemosyne"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
