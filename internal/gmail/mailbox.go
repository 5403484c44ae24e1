package gmail

import (
	"context"
	"log/slog"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/axnasim/mcp-server/internal/logging"
)

// API is the subset of the Gmail API used by Mailbox. *Client implements it.
type API interface {
	ListMessageIDs(ctx context.Context, q string, maxResults int64) ([]string, error)
	GetMessageMetadata(ctx context.Context, messageID string) (*gmail.Message, error)
	GetMessage(ctx context.Context, messageID string) (*gmail.Message, error)
}

// ListOptions configures Mailbox.List.
type ListOptions struct {
	// MaxResults is clamped to [1, 100]. Zero means DefaultMaxResults.
	MaxResults int64

	// Query is an extra Gmail search expression, e.g. "after:2024/01/01".
	Query string
}

// SearchOptions configures Mailbox.Search.
type SearchOptions struct {
	Category Category

	// MaxResults is clamped to [1, 100]. Zero means DefaultMaxResults.
	MaxResults int64

	// IncludeRead includes messages that have already been read.
	IncludeRead bool
}

// Mailbox answers LinkedIn mail lookups.
type Mailbox struct {
	api    API
	logger *slog.Logger
}

// NewMailbox creates a Mailbox backed by api.
func NewMailbox(api API, logger *slog.Logger) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox{api: api, logger: logging.WithService(logger, "gmail")}
}

// List returns summaries of LinkedIn mail from any known sender.
func (m *Mailbox) List(ctx context.Context, opts ListOptions) ([]MessageSummary, error) {
	q := BuildQuery(KnownSenders, opts.Query, true)
	return m.summaries(ctx, "list", q, opts.MaxResults)
}

// Search returns summaries of LinkedIn mail in one category.
func (m *Mailbox) Search(ctx context.Context, opts SearchOptions) ([]MessageSummary, error) {
	category := opts.Category
	if category == "" {
		category = CategoryAll
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, err
	}

	q := BuildQuery(category.Senders(), "", opts.IncludeRead)
	return m.summaries(ctx, "search", q, opts.MaxResults)
}

// Get returns one full message with its extracted body.
func (m *Mailbox) Get(ctx context.Context, messageID string) (*MessageDetail, error) {
	msg, err := m.api.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	logger := m.logger.With(logging.MessageID(messageID))
	detail := NewMessageDetail(msg, ExtractBodyWithLogger(msg.Payload, logger))
	return &detail, nil
}

func (m *Mailbox) summaries(ctx context.Context, operation, q string, maxResults int64) ([]MessageSummary, error) {
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	maxResults = ClampMaxResults(maxResults)

	logger := logging.WithOperation(m.logger, operation)
	logger.Debug("querying mailbox", slog.String("query", q), slog.Int64("max_results", maxResults))

	ids, err := m.api.ListMessageIDs(ctx, q, maxResults)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := m.api.GetMessageMetadata(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, NewMessageSummary(id, msg))
	}

	logger.Debug("mailbox query complete", slog.Int("results", len(summaries)))
	return summaries, nil
}
