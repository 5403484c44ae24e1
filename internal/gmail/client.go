package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/axnasim/mcp-server/internal/instrumentation"
)

const userID = "me"

// metadataHeaders are the headers fetched for list and search summaries.
var metadataHeaders = []string{"From", "Subject", "Date"}

// OperationRecorder receives the outcome of each Gmail API call.
type OperationRecorder interface {
	RecordUpstreamOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// Client wraps the Gmail Users service.
type Client struct {
	svc      *gmail.UsersService
	recorder OperationRecorder
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	recorder   OperationRecorder
	apiOptions []option.ClientOption
}

// WithRecorder reports every API call to r.
func WithRecorder(r OperationRecorder) ClientOption {
	return func(o *clientOptions) { o.recorder = r }
}

// WithAPIOptions passes extra options to the generated Gmail service,
// e.g. option.WithEndpoint in tests.
func WithAPIOptions(opts ...option.ClientOption) ClientOption {
	return func(o *clientOptions) { o.apiOptions = append(o.apiOptions, opts...) }
}

// NewClient creates a Gmail client that sends requests through httpClient,
// which must already carry OAuth credentials.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	apiOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, o.apiOptions...)
	svc, err := gmail.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users, recorder: o.recorder}, nil
}

// ListMessageIDs returns the IDs of up to maxResults messages matching q.
// Only the first page is fetched.
func (c *Client) ListMessageIDs(ctx context.Context, q string, maxResults int64) ([]string, error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationList)
	defer span.End()
	start := time.Now()

	res, err := c.svc.Messages.List(userID).Q(q).MaxResults(maxResults).Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, classifyError("failed to list messages", "", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		if m != nil && m.Id != "" {
			ids = append(ids, m.Id)
		}
	}
	span.SetAttributes(instrumentation.ResultSize(len(ids)))
	instrumentation.SetSpanSuccess(span)
	return ids, nil
}

// GetMessageMetadata fetches the summary headers and snippet of a message.
func (c *Client) GetMessageMetadata(ctx context.Context, messageID string) (*gmail.Message, error) {
	return c.getMessage(ctx, messageID, "metadata", metadataHeaders...)
}

// GetMessage retrieves a full Gmail message.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	return c.getMessage(ctx, messageID, "full")
}

func (c *Client) getMessage(ctx context.Context, messageID, format string, headers ...string) (*gmail.Message, error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationGet,
		instrumentation.ResourceID(messageID))
	defer span.End()
	start := time.Now()

	call := c.svc.Messages.Get(userID, messageID).Format(format)
	if len(headers) > 0 {
		call = call.MetadataHeaders(headers...)
	}
	msg, err := call.Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationGet, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, classifyError(fmt.Sprintf("failed to get message %s", messageID), messageID, err)
	}

	instrumentation.SetSpanSuccess(span)
	return msg, nil
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.recorder.RecordUpstreamOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
}
