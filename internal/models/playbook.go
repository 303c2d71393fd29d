// ABOUTME: Core data models for the key-point playbook and its canonical sections.
// ABOUTME: Provides the fixed section order, the flat index, and playbook constructors.
package models

import (
	"time"
)

// PlaybookVersion is the schema version written to new playbooks.
const PlaybookVersion = "1.0"

// Playbook is the structured collection of key points across canonical sections.
type Playbook struct {
	Version     string             `json:"version"`
	LastUpdated *time.Time         `json:"last_updated"`
	Sections    map[string][]Entry `json:"sections"`
}

// Entry is one key point with its accumulated helpful/harmful evidence.
type Entry struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Helpful int    `json:"helpful"`
	Harmful int    `json:"harmful"`
}

// SectionOrder is the canonical section order. It never changes at runtime
// and is the only order used to walk a playbook.
var SectionOrder = []string{
	"PATTERNS & APPROACHES",
	"MISTAKES TO AVOID",
	"USER PREFERENCES",
	"PROJECT CONTEXT",
	"OTHERS",
}

// SectionSlugs maps each canonical section to its entry-name prefix.
var SectionSlugs = map[string]string{
	"PATTERNS & APPROACHES": "pat",
	"MISTAKES TO AVOID":     "mis",
	"USER PREFERENCES":      "pref",
	"PROJECT CONTEXT":       "ctx",
	"OTHERS":                "oth",
}

// IsCanonicalSection returns true if the given section name is canonical.
func IsCanonicalSection(name string) bool {
	_, ok := SectionSlugs[name]
	return ok
}

// NewPlaybook creates an empty playbook with every canonical section present.
func NewPlaybook() *Playbook {
	sections := make(map[string][]Entry, len(SectionOrder))
	for _, name := range SectionOrder {
		sections[name] = []Entry{}
	}
	return &Playbook{
		Version:  PlaybookVersion,
		Sections: sections,
	}
}

// EnsureSections adds any missing canonical section as an empty list.
func (p *Playbook) EnsureSections() {
	if p.Sections == nil {
		p.Sections = make(map[string][]Entry, len(SectionOrder))
	}
	for _, name := range SectionOrder {
		if p.Sections[name] == nil {
			p.Sections[name] = []Entry{}
		}
	}
}

// Clone returns a deep copy of the playbook.
func (p *Playbook) Clone() *Playbook {
	out := &Playbook{
		Version:  p.Version,
		Sections: make(map[string][]Entry, len(p.Sections)),
	}
	if p.LastUpdated != nil {
		t := *p.LastUpdated
		out.LastUpdated = &t
	}
	for name, entries := range p.Sections {
		cp := make([]Entry, len(entries))
		copy(cp, entries)
		out.Sections[name] = cp
	}
	return out
}

// EntryCount returns the number of entries across canonical sections.
func (p *Playbook) EntryCount() int {
	n := 0
	for _, name := range SectionOrder {
		n += len(p.Sections[name])
	}
	return n
}

// Position locates an entry by section and list index.
type Position struct {
	Section string
	Index   int
}

// Flatten builds the flat index: canonical section order, then list order.
// Sections whose names are not canonical are not part of the index.
func Flatten(p *Playbook) []Position {
	var positions []Position
	for _, name := range SectionOrder {
		for i := range p.Sections[name] {
			positions = append(positions, Position{Section: name, Index: i})
		}
	}
	return positions
}

// EntryAt returns a pointer to the entry at the given position.
func (p *Playbook) EntryAt(pos Position) *Entry {
	return &p.Sections[pos.Section][pos.Index]
}

// FindEntry returns the position of the entry with the given name.
func (p *Playbook) FindEntry(name string) (Position, bool) {
	for _, pos := range Flatten(p) {
		if p.EntryAt(pos).Name == name {
			return pos, true
		}
	}
	return Position{}, false
}
