package chatter_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/axnasim/mcp-server/internal/chatter"
	"github.com/axnasim/mcp-server/internal/tools/common"
)

// FetchToolName is the name of the ranking tool.
const FetchToolName = "fetch_data_from_db"

// Ranker returns every chatter ordered by message count, highest first.
type Ranker interface {
	RankedChatters(ctx context.Context) ([]chatter.Row, error)
}

type fetchArgs struct {
	// Q is accepted for compatibility with existing clients and ignored.
	Q json.RawMessage `json:"q"`
}

// RegisterChatterTools registers fetch_data_from_db.
func RegisterChatterTools(reg *common.Registry, ranker Ranker) error {
	fetchTool := mcp.NewTool(FetchToolName,
		mcp.WithDescription("Fetch data from SQLite database based on the query. Returns every chatter with their message count, most active first."),
		mcp.WithString("q",
			mcp.Description("Ignored. The ranking query is fixed."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	if err := reg.Register(fetchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFetch(ctx, request, ranker)
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", FetchToolName, err)
	}
	return nil
}

func handleFetch(ctx context.Context, request mcp.CallToolRequest, ranker Ranker) (*mcp.CallToolResult, error) {
	var args fetchArgs
	if err := common.DecodeArguments(request.GetArguments(), &args); err != nil {
		return common.ErrorResult(err), nil
	}

	rows, err := ranker.RankedChatters(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(rows)
}
