// ABOUTME: Plans and commits the merge of duplicate groups into survivors.
// ABOUTME: Planning has no side effects; Commit applies the whole plan at once.
package dedup

import (
	"fmt"
	"math"

	"github.com/2389-research/curate/internal/models"
)

// SurvivorUpdate sets the summed counters on the entry that absorbs a group.
type SurvivorUpdate struct {
	Position models.Position
	Name     string
	Helpful  int
	Harmful  int
	Absorbed []string // names of the removed members
}

// MergePlan is the full set of changes for one run.
type MergePlan struct {
	Survivors []SurvivorUpdate
	Removed   []models.Position
}

// PlanMerge computes the merge of every group without touching pb. Group
// members are flat index positions; the lowest position survives and takes
// the summed helpful/harmful counts of all members.
func PlanMerge(pb *models.Playbook, positions []models.Position, groups [][]int) (*MergePlan, error) {
	plan := &MergePlan{}
	seen := make(map[int]bool)

	for gi, group := range groups {
		if len(group) < 2 {
			return nil, fmt.Errorf("group %d has %d members", gi, len(group))
		}

		survivor := -1
		var helpful, harmful int
		for _, idx := range group {
			if idx < 0 || idx >= len(positions) {
				return nil, fmt.Errorf("group %d references position %d out of %d", gi, idx, len(positions))
			}
			if seen[idx] {
				return nil, fmt.Errorf("position %d appears in more than one group", idx)
			}
			seen[idx] = true

			pos := positions[idx]
			list, ok := pb.Sections[pos.Section]
			if !ok || pos.Index < 0 || pos.Index >= len(list) {
				return nil, fmt.Errorf("position %s[%d] does not exist", pos.Section, pos.Index)
			}
			entry := list[pos.Index]
			if entry.Helpful < 0 || entry.Harmful < 0 {
				return nil, fmt.Errorf("entry %q has negative counters (helpful=%d, harmful=%d)", entry.Name, entry.Helpful, entry.Harmful)
			}
			if entry.Helpful > math.MaxInt-helpful || entry.Harmful > math.MaxInt-harmful {
				return nil, fmt.Errorf("group %d counters overflow at entry %q", gi, entry.Name)
			}
			helpful += entry.Helpful
			harmful += entry.Harmful

			if survivor < 0 || idx < survivor {
				survivor = idx
			}
		}

		update := SurvivorUpdate{
			Position: positions[survivor],
			Name:     pb.EntryAt(positions[survivor]).Name,
			Helpful:  helpful,
			Harmful:  harmful,
		}
		for _, idx := range group {
			if idx == survivor {
				continue
			}
			plan.Removed = append(plan.Removed, positions[idx])
			update.Absorbed = append(update.Absorbed, pb.EntryAt(positions[idx]).Name)
		}
		plan.Survivors = append(plan.Survivors, update)
	}
	return plan, nil
}

// Commit applies the plan to pb. The plan must have been computed against
// the same unmodified pb. Section membership and relative order of the
// remaining entries are preserved.
func (p *MergePlan) Commit(pb *models.Playbook) {
	for _, s := range p.Survivors {
		e := pb.EntryAt(s.Position)
		e.Helpful = s.Helpful
		e.Harmful = s.Harmful
	}

	drop := make(map[string]map[int]bool)
	for _, pos := range p.Removed {
		if drop[pos.Section] == nil {
			drop[pos.Section] = make(map[int]bool)
		}
		drop[pos.Section][pos.Index] = true
	}

	for section, indices := range drop {
		old := pb.Sections[section]
		kept := make([]models.Entry, 0, len(old)-len(indices))
		for i, e := range old {
			if !indices[i] {
				kept = append(kept, e)
			}
		}
		pb.Sections[section] = kept
	}
}

// RemovedCount returns how many entries the plan removes.
func (p *MergePlan) RemovedCount() int {
	return len(p.Removed)
}
