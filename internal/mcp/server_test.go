// ABOUTME: Tests for MCP server creation and validation.
// ABOUTME: Verifies the server requires a playbook store.
package mcp

import (
	"path/filepath"
	"testing"

	"github.com/2389-research/curate/internal/dedup"
	"github.com/2389-research/curate/internal/storage"
)

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(nil, nil)
	if err == nil {
		t.Error("expected error when playbook store is nil")
	}
}

func TestNewServerSuccess(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "playbook.json"))

	server, err := NewServer(store, nil)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	if server == nil || server.engine == nil {
		t.Error("expected server with default engine")
	}
}

func TestNewServerWithEngine(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "playbook.json"))
	engine := dedup.New(nil)

	server, err := NewServer(store, nil, WithEngine(engine))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	if server.engine != engine {
		t.Error("expected provided engine to be used")
	}
}
