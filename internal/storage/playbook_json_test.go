// ABOUTME: Tests for JSON playbook storage.
// ABOUTME: Covers defaults, save/load roundtrip, legacy migration, and atomic writes.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/2389-research/curate/internal/models"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".claude", "playbook.json")
	return NewJSONStore(path), path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	store, _ := newTestStore(t)

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(models.NewPlaybook(), pb); diff != "" {
		t.Errorf("default playbook mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store, path := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	pb := models.NewPlaybook()
	pb.Sections["PATTERNS & APPROACHES"] = []models.Entry{
		{Name: "pat-001", Text: "use type hints", Helpful: 5, Harmful: 1},
	}
	pb.Sections["MISTAKES TO AVOID"] = []models.Entry{
		{Name: "mis-001", Text: "don't swallow errors", Helpful: 2},
	}

	if err := store.Save(pb); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if pb.LastUpdated == nil || !pb.LastUpdated.Equal(fixed) {
		t.Errorf("expected last_updated stamped to %v, got %v", fixed, pb.LastUpdated)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(pb, loaded); diff != "" {
		t.Errorf("roundtrip mismatch (-saved +loaded):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("saved file is not JSON: %v", err)
	}
	if _, ok := doc["key_points"]; ok {
		t.Error("saved file must not contain key_points")
	}
	sections, ok := doc["sections"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected sections object, got %T", doc["sections"])
	}
	for _, name := range models.SectionOrder {
		if _, ok := sections[name]; !ok {
			t.Errorf("section %q missing from saved file", name)
		}
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store, path := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.Save(models.NewPlaybook()); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "playbook.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only playbook.json, got %v", names)
	}
}

func TestSaveNil(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save(nil); err == nil {
		t.Error("expected error saving nil playbook")
	}
}

func TestLoadAddsMissingSections(t *testing.T) {
	store, path := newTestStore(t)
	writeFile(t, path, `{
  "version": "1.0",
  "last_updated": null,
  "sections": {
    "PATTERNS & APPROACHES": [{"name": "pat-001", "text": "x", "helpful": 1, "harmful": 0}],
    "scratch": [{"name": "s-1", "text": "y", "helpful": 0, "harmful": 0}]
  }
}`)

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	for _, name := range models.SectionOrder {
		if pb.Sections[name] == nil {
			t.Errorf("section %q not added", name)
		}
	}
	if len(pb.Sections["scratch"]) != 1 {
		t.Error("non-canonical section should be preserved")
	}
	if pb.LastUpdated != nil {
		t.Errorf("expected nil last_updated, got %v", pb.LastUpdated)
	}
}

func TestLoadZonelessTimestamp(t *testing.T) {
	store, path := newTestStore(t)
	writeFile(t, path, `{"version": "1.0", "last_updated": "2026-01-15T10:00:00.123456", "sections": {}}`)

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if pb.LastUpdated == nil {
		t.Fatal("expected last_updated to parse")
	}
	if pb.LastUpdated.Year() != 2026 || pb.LastUpdated.Hour() != 10 {
		t.Errorf("unexpected timestamp %v", pb.LastUpdated)
	}
}

func TestLoadMigratesFlatKeyPoints(t *testing.T) {
	store, path := newTestStore(t)
	writeFile(t, path, `{
  "version": "1.0",
  "last_updated": "2026-01-15T10:00:00",
  "key_points": [
    "bare string entry",
    {"name": "kpt_002", "text": "some tip", "score": -3},
    {"name": "kpt_003", "text": "pos score", "score": 4},
    {"text": "no name"},
    {"name": "kpt_005", "text": "canonical", "helpful": 2, "harmful": 1}
  ]
}`)

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := []models.Entry{
		{Name: "kpt_001", Text: "bare string entry"},
		{Name: "kpt_002", Text: "some tip", Harmful: 3},
		{Name: "kpt_003", Text: "pos score", Helpful: 4},
		{Name: "kpt_004", Text: "no name"},
		{Name: "kpt_005", Text: "canonical", Helpful: 2, Harmful: 1},
	}
	if diff := cmp.Diff(want, pb.Sections["OTHERS"]); diff != "" {
		t.Errorf("migrated entries mismatch (-want +got):\n%s", diff)
	}
	for _, name := range models.SectionOrder {
		if name != "OTHERS" && len(pb.Sections[name]) != 0 {
			t.Errorf("section %q should be empty after migration", name)
		}
	}
}

func TestLoadPrefersSectionsOverKeyPoints(t *testing.T) {
	store, path := newTestStore(t)
	writeFile(t, path, `{
  "version": "1.0",
  "sections": {"PATTERNS & APPROACHES": [{"name": "pat-001", "text": "from sections", "helpful": 1, "harmful": 0}]},
  "key_points": [{"name": "kpt_001", "text": "from key_points"}]
}`)

	pb, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := pb.Sections["PATTERNS & APPROACHES"]; len(got) != 1 || got[0].Text != "from sections" {
		t.Errorf("expected sections to win, got %v", got)
	}
	if len(pb.Sections["OTHERS"]) != 0 {
		t.Error("key_points should be ignored when sections exist")
	}
}

func TestLoadCorruptJSON(t *testing.T) {
	store, path := newTestStore(t)
	writeFile(t, path, "{invalid json]]")

	_, err := store.Load()
	if err == nil {
		t.Fatal("expected error for corrupt playbook")
	}
	if !strings.Contains(err.Error(), "failed to parse playbook") {
		t.Errorf("unexpected error: %v", err)
	}
}
