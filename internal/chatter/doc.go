// Package chatter reads community activity from a local SQLite database.
//
// The database must already exist and contain a table
//
//	chatters(name TEXT, messages INTEGER)
//
// Nothing is ever created or written. Each lookup opens the file, runs one
// fixed query and closes it again.
package chatter
