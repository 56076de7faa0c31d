// Package mcp provides an MCP (Model Context Protocol) server adapter for
// slack2rag. It lets AI assistants search indexed Slack history and inspect
// sync progress.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
