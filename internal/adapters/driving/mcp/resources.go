package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

const (
	uriScheme  = "slack2rag://"
	cursorsURI = uriScheme + "cursors"
)

// cursorInfo is the JSON form of a channel cursor.
type cursorInfo struct {
	ChannelID string `json:"channel_id"`
	TS        string `json:"ts"`
	Date      string `json:"date"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// cursorsDocument is the body of the cursors resource.
type cursorsDocument struct {
	TotalIndexed int          `json:"total_indexed"`
	Cursors      []cursorInfo `json:"cursors"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         cursorsURI,
		Name:        "cursors",
		Description: "Sync cursor of every indexed channel and the index size",
		MIMEType:    "application/json",
	}, s.handleCursorsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: cursorsURI + "/{channelId}",
		Name:        "channel-cursor",
		Description: "Sync cursor of a single channel",
		MIMEType:    "application/json",
	}, s.handleChannelCursorResource)
}

// handleCursorsResource returns all stored cursors.
func (s *Server) handleCursorsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Status == nil {
		return jsonResult(req.Params.URI, cursorsDocument{TotalIndexed: -1, Cursors: []cursorInfo{}})
	}

	status, err := s.ports.Status.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	doc := cursorsDocument{
		TotalIndexed: status.TotalIndexed,
		Cursors:      make([]cursorInfo, len(status.Cursors)),
	}
	for i, c := range status.Cursors {
		doc.Cursors[i] = toCursorInfo(c)
	}
	return jsonResult(req.Params.URI, doc)
}

// handleChannelCursorResource returns one channel's cursor.
func (s *Server) handleChannelCursorResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	channelID := extractChannelID(req.Params.URI)
	if channelID == "" || s.ports.Status == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Status.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	for _, c := range status.Cursors {
		if c.ChannelID == channelID {
			return jsonResult(req.Params.URI, toCursorInfo(c))
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func toCursorInfo(c domain.ChannelCursor) cursorInfo {
	info := cursorInfo{
		ChannelID: c.ChannelID,
		TS:        c.TS,
		Date:      domain.DateFromTS(c.TS),
	}
	if !c.UpdatedAt.IsZero() {
		info.UpdatedAt = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return info
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChannelID parses slack2rag://cursors/{channelId}.
func extractChannelID(uri string) string {
	prefix := cursorsURI + "/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
