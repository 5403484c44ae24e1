package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type recordedOp struct {
	operation string
	status    string
}

type fakeOpRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (f *fakeOpRecorder) RecordUpstreamOperation(_ context.Context, _, operation, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recordedOp{operation, status})
}

// fakeGmail serves a minimal subset of the Gmail REST API.
type fakeGmail struct {
	t        *testing.T
	messages map[string]*gmail.Message
	listIDs  []string

	mu       sync.Mutex
	requests []*http.Request
	failList int
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	const prefix = "/gmail/v1/users/me/messages"
	switch {
	case r.URL.Path == prefix:
		if f.failList != 0 {
			writeAPIError(w, f.failList, "backend error")
			return
		}
		resp := &gmail.ListMessagesResponse{}
		for _, id := range f.listIDs {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id, ThreadId: "t-" + id})
		}
		writeJSON(f.t, w, resp)

	case strings.HasPrefix(r.URL.Path, prefix+"/"):
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		msg, ok := f.messages[id]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		writeJSON(f.t, w, msg)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGmail) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func newTestClient(t *testing.T, fake *fakeGmail, rec OperationRecorder) *Client {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.Client(),
		WithRecorder(rec),
		WithAPIOptions(option.WithEndpoint(srv.URL+"/")))
	require.NoError(t, err)
	return client
}

func headersMessage(id string, headers map[string]string, snippet string) *gmail.Message {
	msg := &gmail.Message{Id: id, Snippet: snippet, Payload: &gmail.MessagePart{}}
	for name, value := range headers {
		msg.Payload.Headers = append(msg.Payload.Headers, &gmail.MessagePartHeader{Name: name, Value: value})
	}
	return msg
}

func TestClient_ListMessageIDs(t *testing.T) {
	fake := &fakeGmail{t: t, listIDs: []string{"m1", "m2"}}
	rec := &fakeOpRecorder{}
	client := newTestClient(t, fake, rec)

	ids, err := client.ListMessageIDs(context.Background(), "(from:invitations@linkedin.com)", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)

	req := fake.lastRequest()
	assert.Equal(t, "(from:invitations@linkedin.com)", req.URL.Query().Get("q"))
	assert.Equal(t, "5", req.URL.Query().Get("maxResults"))
	assert.Equal(t, []recordedOp{{"list", "success"}}, rec.ops)
}

func TestClient_ListMessageIDs_Empty(t *testing.T) {
	client := newTestClient(t, &fakeGmail{t: t}, nil)

	ids, err := client.ListMessageIDs(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClient_ListMessageIDs_UpstreamError(t *testing.T) {
	rec := &fakeOpRecorder{}
	client := newTestClient(t, &fakeGmail{t: t, failList: http.StatusInternalServerError}, rec)

	_, err := client.ListMessageIDs(context.Background(), "q", 10)
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode())
	assert.Contains(t, err.Error(), "backend error")
	assert.Equal(t, []recordedOp{{"list", "error"}}, rec.ops)
}

func TestClient_GetMessageMetadata(t *testing.T) {
	fake := &fakeGmail{t: t, messages: map[string]*gmail.Message{
		"m1": headersMessage("m1", map[string]string{"Subject": "Hi"}, "snip"),
	}}
	client := newTestClient(t, fake, nil)

	msg, err := client.GetMessageMetadata(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "snip", msg.Snippet)

	q := fake.lastRequest().URL.Query()
	assert.Equal(t, "metadata", q.Get("format"))
	assert.Equal(t, []string{"From", "Subject", "Date"}, q["metadataHeaders"])
}

func TestClient_GetMessage(t *testing.T) {
	fake := &fakeGmail{t: t, messages: map[string]*gmail.Message{
		"m1": headersMessage("m1", nil, ""),
	}}
	client := newTestClient(t, fake, nil)

	msg, err := client.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.Id)
	assert.Equal(t, "full", fake.lastRequest().URL.Query().Get("format"))
}

func TestClient_GetMessage_NotFound(t *testing.T) {
	rec := &fakeOpRecorder{}
	client := newTestClient(t, &fakeGmail{t: t}, rec)

	_, err := client.GetMessage(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Message missing not found", err.Error())

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
	assert.Equal(t, []recordedOp{{"get", "error"}}, rec.ops)
}

func TestClassifyError(t *testing.T) {
	plain := errors.New("dial tcp: connection refused")
	err := classifyError("failed to list messages", "", plain)

	assert.ErrorIs(t, err, plain)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
	assert.NoError(t, classifyError("op", "", nil))
}
