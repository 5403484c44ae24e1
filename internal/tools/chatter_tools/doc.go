// Package chatter_tools exposes the community chatter ranking as the
// fetch_data_from_db MCP tool.
package chatter_tools
