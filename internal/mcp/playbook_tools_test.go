// ABOUTME: Tests for playbook MCP tool handlers.
// ABOUTME: Covers deduplicate_playbook (save, dry run, degraded) and read_playbook.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/curate/internal/dedup"
	"github.com/2389-research/curate/internal/embeddings"
	"github.com/2389-research/curate/internal/models"
	"github.com/2389-research/curate/internal/storage"
)

// sameVector embeds every text to the same unit vector.
type sameVector struct{}

func (sameVector) Available() bool { return true }

func (sameVector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func makePlaybookServer(t *testing.T, provider embeddings.Provider) (*Server, *storage.JSONStore) {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), ".claude", "playbook.json"))

	pb := models.NewPlaybook()
	pb.Sections["PATTERNS & APPROACHES"] = []models.Entry{
		{Name: "pat-001", Text: "always use type hints", Helpful: 5},
	}
	pb.Sections["MISTAKES TO AVOID"] = []models.Entry{
		{Name: "mis-001", Text: "forgetting type hints", Helpful: 3, Harmful: 1},
	}
	if err := store.Save(pb); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	engine := dedup.New(provider,
		dedup.WithLogger(logger),
		dedup.WithLookupEnv(func(string) (string, bool) { return "", false }))

	server, err := NewServer(store, provider, WithEngine(engine))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return server, store
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}

	ctx := context.Background()
	var result *gomcp.CallToolResult
	switch name {
	case "deduplicate_playbook":
		result, err = s.handleDeduplicatePlaybook(ctx, req)
	case "read_playbook":
		result, err = s.handleReadPlaybook(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func getTextContent(result *gomcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*gomcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestDeduplicatePlaybookSaves(t *testing.T) {
	s, store := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "deduplicate_playbook", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "pat-001 <- mis-001") {
		t.Errorf("expected merge summary, got: %s", text)
	}

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if n := len(pb.Sections["MISTAKES TO AVOID"]); n != 0 {
		t.Errorf("expected mis-001 removed, %d entries remain", n)
	}
	survivor := pb.Sections["PATTERNS & APPROACHES"][0]
	if survivor.Helpful != 8 || survivor.Harmful != 1 {
		t.Errorf("expected counters 8/1, got %d/%d", survivor.Helpful, survivor.Harmful)
	}
}

func TestDeduplicatePlaybookDryRun(t *testing.T) {
	s, store := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "deduplicate_playbook", map[string]interface{}{"dry_run": true})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if !strings.Contains(getTextContent(result), "Dry run") {
		t.Errorf("expected dry run notice, got: %s", getTextContent(result))
	}

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if pb.EntryCount() != 2 {
		t.Errorf("dry run must not save, got %d entries", pb.EntryCount())
	}
}

func TestDeduplicatePlaybookThreshold(t *testing.T) {
	s, store := makePlaybookServer(t, sameVector{})

	// identical vectors still merge at the clamped maximum
	result := callTool(t, s, "deduplicate_playbook", map[string]interface{}{"threshold": 7})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if !strings.Contains(getTextContent(result), "threshold 1.00") {
		t.Errorf("expected clamped threshold, got: %s", getTextContent(result))
	}

	pb, _ := store.Load()
	if pb.EntryCount() != 1 {
		t.Errorf("expected 1 entry, got %d", pb.EntryCount())
	}
}

func TestDeduplicatePlaybookUnavailable(t *testing.T) {
	s, store := makePlaybookServer(t, embeddings.Unavailable{Reason: "no endpoint"})

	result := callTool(t, s, "deduplicate_playbook", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("degraded dedup is not a tool error: %s", getTextContent(result))
	}
	if !strings.Contains(getTextContent(result), "playbook unchanged") {
		t.Errorf("expected skipped notice, got: %s", getTextContent(result))
	}

	pb, _ := store.Load()
	if pb.EntryCount() != 2 {
		t.Errorf("expected playbook untouched, got %d entries", pb.EntryCount())
	}
}

func TestDeduplicatePlaybookInvalidArgs(t *testing.T) {
	s, _ := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "deduplicate_playbook", map[string]interface{}{"threshold": "high"})
	if !result.IsError {
		t.Error("expected error for non-numeric threshold")
	}
}

func TestReadPlaybook(t *testing.T) {
	s, _ := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "read_playbook", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "[pat-001] always use type hints") || !strings.Contains(text, "[mis-001]") {
		t.Errorf("expected both entries, got: %s", text)
	}
}

func TestReadPlaybookSection(t *testing.T) {
	s, _ := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "read_playbook", map[string]interface{}{"section": "mis"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if strings.Contains(text, "pat-001") {
		t.Errorf("expected only MISTAKES TO AVOID, got: %s", text)
	}
	if !strings.Contains(text, "mis-001") {
		t.Errorf("expected mis-001, got: %s", text)
	}
}

func TestReadPlaybookUnknownSection(t *testing.T) {
	s, _ := makePlaybookServer(t, sameVector{})

	result := callTool(t, s, "read_playbook", map[string]interface{}{"section": "feelings"})
	if !result.IsError {
		t.Error("expected error for unknown section")
	}
	if !strings.Contains(getTextContent(result), "unknown section") {
		t.Errorf("unexpected message: %s", getTextContent(result))
	}
}

func TestDeduplicateSchemaLeavesThresholdUnbounded(t *testing.T) {
	var schema struct {
		Properties map[string]map[string]interface{} `json:"properties"`
	}
	if err := json.Unmarshal(deduplicateSchema, &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	threshold, ok := schema.Properties["threshold"]
	if !ok {
		t.Fatal("schema has no threshold property")
	}
	for _, bound := range []string{"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum"} {
		if _, ok := threshold[bound]; ok {
			t.Errorf("threshold must not declare %s; out-of-range values are clamped", bound)
		}
	}
	if desc, _ := threshold["description"].(string); !strings.Contains(desc, "clamped") {
		t.Errorf("expected description to mention clamping, got %q", desc)
	}
}
