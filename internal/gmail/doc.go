// Package gmail reads LinkedIn notification mail from a Gmail mailbox.
//
// The package offers:
//   - Query construction over a fixed allow-list of LinkedIn sender addresses
//   - Category narrowing (messages, invitations, jobs, notifications, all)
//   - Listing message summaries (From, Subject, Date and snippet)
//   - Fetching a full message with a single best-effort body string
//
// Access is read-only. Only a single page of results is ever fetched.
//
// Example usage:
//
//	session, err := sessions.ActiveSession(ctx)
//	if err != nil {
//	    return err
//	}
//	client, err := gmail.NewClient(ctx, session.HTTPClient())
//	if err != nil {
//	    return err
//	}
//	mailbox := gmail.NewMailbox(client, logger)
//
//	summaries, err := mailbox.Search(ctx, gmail.SearchOptions{
//	    Category:    gmail.CategoryJobs,
//	    MaxResults:  5,
//	    IncludeRead: false,
//	})
package gmail
