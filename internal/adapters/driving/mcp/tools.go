package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// SearchInput is the input schema for the search_messages tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"natural-language description of the messages to find"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Channel  string `json:"channel,omitempty" jsonschema:"channel name (general or #general) or channel ID (C0123ABC)"`
	DateFrom string `json:"date_from,omitempty" jsonschema:"earliest message date, YYYY-MM-DD, inclusive"`
	DateTo   string `json:"date_to,omitempty" jsonschema:"latest message date, YYYY-MM-DD, inclusive"`
}

// SearchOutput is the output schema for the search_messages tool.
type SearchOutput struct {
	Results []MessageResult `json:"results"`
	Count   int             `json:"count"`
}

// MessageResult is one matching conversation chunk.
type MessageResult struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	ChannelID   string  `json:"channel_id"`
	ChannelName string  `json:"channel_name"`
	Date        string  `json:"date"`
	User        string  `json:"user"`
	TS          string  `json:"ts"`
	ThreadTS    string  `json:"thread_ts,omitempty"`
	ReplyCount  int     `json:"reply_count"`
	Score       float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_messages",
		Description: "Semantic search over indexed Slack messages and threads, optionally filtered by channel and date range",
	}, s.handleSearch)
}

// handleSearch handles the search_messages tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Limit:    input.Limit,
		Channel:  input.Channel,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
	}

	hits, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]MessageResult, len(hits)),
		Count:   len(hits),
	}
	for i, hit := range hits {
		doc := hit.Document
		output.Results[i] = MessageResult{
			ID:          doc.ID,
			Text:        doc.Text,
			ChannelID:   doc.ChannelID,
			ChannelName: doc.ChannelName,
			Date:        doc.Date,
			User:        doc.UserName,
			TS:          doc.TS,
			ThreadTS:    doc.ThreadTS,
			ReplyCount:  doc.ReplyCount,
			Score:       hit.Score,
		}
	}

	return nil, output, nil
}
