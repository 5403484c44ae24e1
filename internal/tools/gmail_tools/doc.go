// Package gmail_tools exposes LinkedIn mail lookups as MCP tools:
//
//   - list_linkedin_emails: summaries of mail from any LinkedIn sender
//   - get_linkedin_email: one message with its decoded body
//   - search_linkedin_emails: summaries filtered by email type and read state
//
// Summaries and messages are returned as indented JSON. Failures are returned
// as error-flagged text results.
package gmail_tools
