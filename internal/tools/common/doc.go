// Package common holds the tool registry and the helpers shared by the tool
// packages: argument decoding, result rendering, error mapping and
// instrumentation.
package common
