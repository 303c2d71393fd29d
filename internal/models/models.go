// ABOUTME: Section lookup and plain-text rendering for playbooks.
// ABOUTME: Shared by the CLI show command and the MCP read_playbook tool.
package models

import (
	"fmt"
	"strings"
)

// ResolveSection maps a section name (any case) or slug to the canonical name.
func ResolveSection(s string) (string, bool) {
	key := strings.TrimSpace(s)
	for _, name := range SectionOrder {
		if strings.EqualFold(key, name) || strings.EqualFold(key, SectionSlugs[name]) {
			return name, true
		}
	}
	return "", false
}

// SectionTitle converts a canonical section name to a Title Case heading.
func SectionTitle(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		if len(w) > 0 && w != "&" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// FormatEntry renders one entry as a single line.
func FormatEntry(e Entry) string {
	return fmt.Sprintf("[%s] %s (helpful=%d, harmful=%d)", e.Name, e.Text, e.Helpful, e.Harmful)
}

// Format renders the playbook in canonical order. When section is non-empty
// only that section is rendered; empty sections are skipped otherwise.
func Format(p *Playbook, section string) string {
	var sb strings.Builder
	names := SectionOrder
	if section != "" {
		names = []string{section}
	}

	for _, name := range names {
		entries := p.Sections[name]
		if len(entries) == 0 && section == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("## %s\n", name))
		if len(entries) == 0 {
			sb.WriteString("(empty)\n")
			continue
		}
		for _, e := range entries {
			sb.WriteString("- " + FormatEntry(e) + "\n")
		}
	}

	if sb.Len() == 0 {
		return "Playbook is empty.\n"
	}
	return sb.String()
}
