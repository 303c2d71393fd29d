// ABOUTME: Groups similar entries into connected components with union-find.
// ABOUTME: A-B and B-C land in one group even when A-C falls below threshold.
package dedup

import (
	"fmt"
	"sort"
)

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// Group returns the connected components of size >= 2 over n nodes. Members
// of each group are ascending and groups are ordered by their first member.
func Group(n int, pairs []Pair) ([][]int, error) {
	uf := newUnionFind(n)
	for _, p := range pairs {
		if p.I < 0 || p.J < 0 || p.I >= n || p.J >= n {
			return nil, fmt.Errorf("pair (%d, %d) out of range for %d entries", p.I, p.J, n)
		}
		uf.union(p.I, p.J)
	}

	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	var groups [][]int
	for _, m := range members {
		if len(m) >= 2 {
			groups = append(groups, m)
		}
	}
	// members are appended in ascending order, so m[0] is the minimum
	sort.Slice(groups, func(a, b int) bool {
		return groups[a][0] < groups[b][0]
	})
	return groups, nil
}
