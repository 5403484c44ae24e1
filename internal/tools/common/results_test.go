package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/axnasim/mcp-server/internal/chatter"
	"github.com/axnasim/mcp-server/internal/gmail"
)

func TestErrorText(t *testing.T) {
	apiErr := &googleapi.Error{Code: http.StatusForbidden, Message: "quota"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  fmt.Errorf("get: %w", &gmail.NotFoundError{MessageID: "abc"}),
			want: "Message abc not found",
		},
		{
			name: "upstream",
			err:  &gmail.UpstreamError{Op: "list", Err: apiErr},
			want: "Gmail API error: " + apiErr.Error(),
		},
		{
			name: "storage",
			err:  &chatter.StorageError{Op: "query", Path: "community.db", Err: errors.New("no such table: chatters")},
			want: "Storage unavailable: query community.db: no such table: chatters",
		},
		{
			name: "invalid arguments",
			err:  fmt.Errorf("%w: message_id is required", ErrInvalidArguments),
			want: "Error: invalid arguments: message_id is required",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorText(tt.err))

			result := ErrorResult(tt.err)
			assert.True(t, result.IsError)
			assert.Equal(t, []string{tt.want}, TextBlocks(result))
		})
	}
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult([]map[string]any{{"body": "<b>hi</b> & bye", "n": 1}})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "[\n  {\n    \"body\": \"<b>hi</b> & bye\",\n    \"n\": 1\n  }\n]", ResultText(result))
}

func TestTextBlocks(t *testing.T) {
	result := &mcp.CallToolResult{Content: []mcp.Content{
		mcp.TextContent{Type: mcp.ContentTypeText, Text: "one"},
		mcp.ImageContent{Type: mcp.ContentTypeImage, Data: "x", MIMEType: "image/png"},
		mcp.TextContent{Type: mcp.ContentTypeText, Text: "two"},
	}}

	assert.Equal(t, []string{"one", "two"}, TextBlocks(result))
	assert.Equal(t, "one\ntwo", ResultText(result))
	assert.Nil(t, TextBlocks(nil))
}
