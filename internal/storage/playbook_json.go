// ABOUTME: JSON-file playbook storage at <project>/.claude/playbook.json.
// ABOUTME: Migrates legacy flat key_points files into sections and writes atomically.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/curate/internal/models"
)

// legacySection receives entries migrated from the flat key_points format.
const legacySection = "OTHERS"

// JSONStore stores the playbook as a single indented JSON document.
type JSONStore struct {
	path string
	now  func() time.Time
}

// rawPlaybook accepts both the sections layout and the legacy flat layout.
type rawPlaybook struct {
	Version     string                    `json:"version"`
	LastUpdated *string                   `json:"last_updated"`
	Sections    map[string][]models.Entry `json:"sections"`
	KeyPoints   []json.RawMessage         `json:"key_points"`
}

// legacyKeyPoint is one object in a flat key_points list.
type legacyKeyPoint struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Score   *int   `json:"score"`
	Helpful *int   `json:"helpful"`
	Harmful *int   `json:"harmful"`
}

// timestampLayouts covers RFC 3339 plus zone-less ISO 8601 stamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Path returns the playbook file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the playbook, returning an empty one when the file is missing.
func (s *JSONStore) Load() (*models.Playbook, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewPlaybook(), nil
		}
		return nil, fmt.Errorf("failed to read playbook: %w", err)
	}

	var raw rawPlaybook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse playbook %s: %w", s.path, err)
	}

	pb := &models.Playbook{
		Version:     raw.Version,
		LastUpdated: parseTimestamp(raw.LastUpdated),
		Sections:    raw.Sections,
	}
	if pb.Version == "" {
		pb.Version = models.PlaybookVersion
	}
	// sections wins when a file carries both layouts
	if pb.Sections == nil && raw.KeyPoints != nil {
		entries, err := migrateKeyPoints(raw.KeyPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate playbook %s: %w", s.path, err)
		}
		pb.Sections = map[string][]models.Entry{legacySection: entries}
	}
	pb.EnsureSections()
	return pb, nil
}

// Save stamps last_updated and atomically replaces the playbook file.
func (s *JSONStore) Save(pb *models.Playbook) error {
	if pb == nil {
		return errors.New("cannot save nil playbook")
	}
	pb.EnsureSections()
	now := s.now().UTC()
	pb.LastUpdated = &now

	data, err := json.MarshalIndent(pb, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode playbook: %w", err)
	}
	data = append(data, '\n')

	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("failed to write playbook: %w", err)
	}
	return nil
}

// atomicWrite writes data to a temp file in the target directory and renames
// it over path, so readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func parseTimestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}

// migrateKeyPoints converts flat key_points items (bare strings, objects
// with a signed score, or objects with counters) into entries.
func migrateKeyPoints(items []json.RawMessage) ([]models.Entry, error) {
	taken := make(map[string]bool)
	for _, item := range items {
		var kp legacyKeyPoint
		if json.Unmarshal(item, &kp) == nil && kp.Name != "" {
			taken[kp.Name] = true
		}
	}

	entries := make([]models.Entry, 0, len(items))
	seen := make(map[string]bool)
	for i, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			name := nextLegacyName(seen, taken)
			seen[name] = true
			entries = append(entries, models.Entry{Name: name, Text: text})
			continue
		}

		var kp legacyKeyPoint
		if err := json.Unmarshal(item, &kp); err != nil {
			return nil, fmt.Errorf("key point %d: %w", i, err)
		}
		entry := models.Entry{Name: kp.Name, Text: kp.Text}
		if entry.Name == "" {
			entry.Name = nextLegacyName(seen, taken)
		}
		seen[entry.Name] = true

		switch {
		case kp.Helpful != nil || kp.Harmful != nil:
			entry.Helpful = nonNegative(kp.Helpful)
			entry.Harmful = nonNegative(kp.Harmful)
		case kp.Score != nil && *kp.Score > 0:
			entry.Helpful = *kp.Score
		case kp.Score != nil && *kp.Score < 0:
			entry.Harmful = -*kp.Score
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// nextLegacyName returns kpt_NNN one past the highest kpt number seen so far,
// skipping names claimed elsewhere in the file.
func nextLegacyName(seen, taken map[string]bool) string {
	highest := 0
	for name := range seen {
		if n, ok := legacyNumber(name); ok && n > highest {
			highest = n
		}
	}
	for n := highest + 1; ; n++ {
		name := fmt.Sprintf("kpt_%03d", n)
		if !taken[name] && !seen[name] {
			return name
		}
	}
}

func legacyNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "kpt_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
