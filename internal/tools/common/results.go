package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/axnasim/mcp-server/internal/chatter"
	"github.com/axnasim/mcp-server/internal/gmail"
)

// ErrorResult converts err into an error-flagged text result.
//
//	*gmail.NotFoundError          -> "Message <id> not found"
//	*gmail.UpstreamError          -> "Gmail API error: ..."
//	chatter.ErrStorageUnavailable -> "Storage unavailable: ..."
//	anything else                 -> "Error: ..."
//
// Missing credentials and invalid arguments take the last form; their
// messages already carry the remediation.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(ErrorText(err))
}

// ErrorText is the text ErrorResult would carry for err.
func ErrorText(err error) string {
	var (
		notFound *gmail.NotFoundError
		upstream *gmail.UpstreamError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &upstream):
		return "Gmail API error: " + upstream.Err.Error()
	case errors.Is(err, chatter.ErrStorageUnavailable):
		return "Storage unavailable: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// JSONResult renders v as JSON indented with two spaces. HTML characters
// are left unescaped so message bodies read naturally.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(strings.TrimSuffix(buf.String(), "\n")), nil
}

// TextBlocks returns the text of every text block in result, in order.
func TextBlocks(result *mcp.CallToolResult) []string {
	if result == nil {
		return nil
	}
	var out []string
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			out = append(out, tc.Text)
		case *mcp.TextContent:
			out = append(out, tc.Text)
		}
	}
	return out
}

// ResultText joins the text blocks of result with newlines.
func ResultText(result *mcp.CallToolResult) string {
	return strings.Join(TextBlocks(result), "\n")
}
