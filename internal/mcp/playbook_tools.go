// ABOUTME: MCP tool implementations for playbook operations.
// ABOUTME: Registers deduplicate_playbook and read_playbook.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/curate/internal/dedup"
	"github.com/2389-research/curate/internal/models"
)

// deduplicateSchema leaves threshold unbounded; the engine clamps it.
var deduplicateSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"threshold": {"type": "number", "description": "Cosine similarity at or above which entries are duplicates, clamped to [0, 1] (default: AGENTIC_CONTEXT_DEDUP_THRESHOLD or 0.85)"},
		"dry_run": {"type": "boolean", "description": "Report what would merge without saving (default: false)"}
	}
}`)

func (s *Server) registerPlaybookTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "deduplicate_playbook",
		Description: "Merge semantically equivalent key points across all playbook sections. The earliest entry of each duplicate group survives and absorbs the helpful/harmful counts of the others. The playbook is left unchanged if no embedding model is available.",
		InputSchema: deduplicateSchema,
	}, s.handleDeduplicatePlaybook)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "read_playbook",
		Description: "Read the playbook key points in canonical section order.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"section": {"type": "string", "description": "Only this section, by name or slug (pat, mis, pref, ctx, oth)"}
			}
		}`),
	}, s.handleReadPlaybook)
}

func (s *Server) handleDeduplicatePlaybook(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Threshold *float64 `json:"threshold"`
		DryRun    bool     `json:"dry_run"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	pb, err := s.store.Load()
	if err != nil {
		return toolError("failed to load playbook: %v", err), nil
	}

	target := pb
	if args.DryRun {
		target = pb.Clone()
	}

	_, report := s.engine.RunWithReport(ctx, target, args.Threshold)

	text := report.Summary()
	if report.State == dedup.StateDone && report.Removed > 0 {
		if args.DryRun {
			text = "Dry run, nothing saved.\n" + text
		} else if err := s.store.Save(target); err != nil {
			return toolError("failed to save playbook: %v", err), nil
		}
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}, nil
}

func (s *Server) handleReadPlaybook(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Section string `json:"section"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	section := ""
	if args.Section != "" {
		name, ok := models.ResolveSection(args.Section)
		if !ok {
			return toolError("unknown section %q. Valid sections: %s", args.Section, strings.Join(models.SectionOrder, ", ")), nil
		}
		section = name
	}

	pb, err := s.store.Load()
	if err != nil {
		return toolError("failed to load playbook: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: models.Format(pb, section)}},
	}, nil
}

// unmarshalArgs decodes tool arguments, treating absent arguments as empty.
func unmarshalArgs(req *gomcp.CallToolRequest, v interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
