// Package cmd implements the command-line interface for mcp-server.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - auth: Run the Gmail consent flow and store the token
//   - tools: Print the tool catalog as JSON
//   - call: Invoke one tool and print its text output
//   - chatters: Print chatters ranked by message count
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
