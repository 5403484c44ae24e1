package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/axnasim/mcp-server/internal/gmail"
	"github.com/axnasim/mcp-server/internal/tools/common"
)

// Tool names.
const (
	ListToolName   = "list_linkedin_emails"
	GetToolName    = "get_linkedin_email"
	SearchToolName = "search_linkedin_emails"
)

// NoEmailsFound is returned by list_linkedin_emails when nothing matches.
const NoEmailsFound = "No LinkedIn emails found."

// MailboxProvider opens the Gmail mailbox, authorizing if necessary.
type MailboxProvider interface {
	Mailbox(ctx context.Context) (*gmail.Mailbox, error)
}

type listArgs struct {
	MaxResults *common.Int `json:"max_results"`
	Query      string      `json:"query"`
}

type getArgs struct {
	MessageID string `json:"message_id"`
}

type searchArgs struct {
	EmailType   string      `json:"email_type"`
	MaxResults  *common.Int `json:"max_results"`
	IncludeRead *bool       `json:"include_read"`
}

// RegisterGmailTools registers the LinkedIn mail tools.
func RegisterGmailTools(reg *common.Registry, mp MailboxProvider) error {
	listTool := mcp.NewTool(ListToolName,
		mcp.WithDescription("List LinkedIn emails from Gmail. Returns subject, sender, date, and snippet for each email."),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to return (default: 10, max: 100)"),
			mcp.DefaultNumber(float64(gmail.DefaultMaxResults)),
		),
		mcp.WithString("query",
			mcp.Description("Additional Gmail search query to filter results (e.g., 'is:unread', 'after:2024/01/01')"),
			mcp.DefaultString(""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	if err := reg.Register(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListEmails(ctx, request, mp)
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", ListToolName, err)
	}

	getTool := mcp.NewTool(GetToolName,
		mcp.WithDescription("Get full content of a specific LinkedIn email by message ID."),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("The Gmail message ID of the email to retrieve"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	if err := reg.Register(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetEmail(ctx, request, mp)
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", GetToolName, err)
	}

	categories := make([]string, len(gmail.Categories))
	for i, c := range gmail.Categories {
		categories[i] = string(c)
	}
	searchTool := mcp.NewTool(SearchToolName,
		mcp.WithDescription("Search LinkedIn emails with specific criteria (e.g., job alerts, messages, invitations)."),
		mcp.WithString("email_type",
			mcp.Enum(categories...),
			mcp.Description("Type of LinkedIn email to search for"),
			mcp.DefaultString(string(gmail.CategoryAll)),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to return (default: 10)"),
			mcp.DefaultNumber(float64(gmail.DefaultMaxResults)),
		),
		mcp.WithBoolean("include_read",
			mcp.Description("Include read emails (default: true)"),
			mcp.DefaultBool(true),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	if err := reg.Register(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearchEmails(ctx, request, mp)
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", SearchToolName, err)
	}

	return nil
}

func handleListEmails(ctx context.Context, request mcp.CallToolRequest, mp MailboxProvider) (*mcp.CallToolResult, error) {
	var args listArgs
	if err := common.DecodeArguments(request.GetArguments(), &args); err != nil {
		return common.ErrorResult(err), nil
	}

	mailbox, err := mp.Mailbox(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	emails, err := mailbox.List(ctx, gmail.ListOptions{
		MaxResults: maxResults(args.MaxResults),
		Query:      args.Query,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if len(emails) == 0 {
		return mcp.NewToolResultText(NoEmailsFound), nil
	}
	return common.JSONResult(emails)
}

func handleGetEmail(ctx context.Context, request mcp.CallToolRequest, mp MailboxProvider) (*mcp.CallToolResult, error) {
	var args getArgs
	if err := common.DecodeArguments(request.GetArguments(), &args); err != nil {
		return common.ErrorResult(err), nil
	}
	if args.MessageID == "" {
		return common.ErrorResult(fmt.Errorf("%w: message_id is required", common.ErrInvalidArguments)), nil
	}

	mailbox, err := mp.Mailbox(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	email, err := mailbox.Get(ctx, args.MessageID)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(email)
}

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest, mp MailboxProvider) (*mcp.CallToolResult, error) {
	var args searchArgs
	if err := common.DecodeArguments(request.GetArguments(), &args); err != nil {
		return common.ErrorResult(err), nil
	}
	category, err := gmail.ParseCategory(args.EmailType)
	if err != nil {
		return common.ErrorResult(fmt.Errorf("%w: %v", common.ErrInvalidArguments, err)), nil
	}

	mailbox, err := mp.Mailbox(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	emails, err := mailbox.Search(ctx, gmail.SearchOptions{
		Category:    category,
		MaxResults:  maxResults(args.MaxResults),
		IncludeRead: common.BoolOr(args.IncludeRead, true),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if len(emails) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No %s LinkedIn emails found.", category)), nil
	}
	return common.JSONResult(emails)
}

// maxResults applies the default and clamps explicit values, so an explicit
// zero becomes 1 rather than the default.
func maxResults(n *common.Int) int64 {
	return gmail.ClampMaxResults(n.Int64(gmail.DefaultMaxResults))
}
