package anomaly

import (
	"sort"
	"strings"
	"time"

	"github.com/savegress/caselens/pkg/models"
)

// detectCycles finds simple cycles in the directed account transfer
// graph. Duplicate edges collapse into one adjacency entry; every
// account is tried as a DFS root with path membership tracked per
// branch only, since the same account may sit on disjoint cycles
// reachable from different roots. Depth is capped and the walk runs
// under a wall-clock budget; exceeding either returns the cycles found
// so far with truncated set, never a silent undercount.
func (d *Detector) detectCycles(transactions []models.Transaction) ([]models.CircularAnomaly, bool) {
	adjacency := buildAdjacency(transactions)

	roots := make([]string, 0, len(adjacency))
	for account := range adjacency {
		roots = append(roots, account)
	}
	sort.Strings(roots)

	maxDepth := d.thresholds.MaxCycleDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}
	started := time.Now()
	budget := d.thresholds.CycleBudget

	seen := make(map[string]bool)
	var cycles []models.CircularAnomaly
	truncated := false

	type frame struct {
		node string
		next int
	}

	for _, root := range roots {
		stack := []frame{{node: root}}
		path := []string{root}
		onPath := map[string]int{root: 0}

		for len(stack) > 0 {
			if budget > 0 && time.Since(started) > budget {
				return cycles, true
			}

			top := &stack[len(stack)-1]
			neighbors := adjacency[top.node]

			if top.next >= len(neighbors) {
				stack = stack[:len(stack)-1]
				delete(onPath, top.node)
				path = path[:len(path)-1]
				continue
			}

			neighbor := neighbors[top.next]
			top.next++

			if start, ok := onPath[neighbor]; ok {
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				canonical := canonicalCycle(cycle)
				signature := strings.Join(canonical, "->")
				if !seen[signature] {
					seen[signature] = true
					cycles = append(cycles, models.CircularAnomaly{
						Path:      canonical,
						Signature: signature,
						Length:    len(canonical),
					})
				}
				continue
			}

			if len(path) >= maxDepth {
				truncated = true
				continue
			}

			stack = append(stack, frame{node: neighbor})
			onPath[neighbor] = len(path)
			path = append(path, neighbor)
		}
	}

	return cycles, truncated
}

// buildAdjacency collapses transactions into a deduplicated directed
// adjacency list with sorted neighbors for a deterministic walk order.
func buildAdjacency(transactions []models.Transaction) map[string][]string {
	edges := make(map[string]map[string]bool)
	for _, txn := range transactions {
		if txn.FromAccount == txn.ToAccount {
			continue
		}
		if edges[txn.FromAccount] == nil {
			edges[txn.FromAccount] = make(map[string]bool)
		}
		edges[txn.FromAccount][txn.ToAccount] = true
	}

	adjacency := make(map[string][]string, len(edges))
	for from, targets := range edges {
		neighbors := make([]string, 0, len(targets))
		for to := range targets {
			neighbors = append(neighbors, to)
		}
		sort.Strings(neighbors)
		adjacency[from] = neighbors
	}
	return adjacency
}

// canonicalCycle rotates a cycle so it starts at its lexicographically
// smallest account. Two discoveries of the same cycle from different
// roots or rotations share one canonical form.
func canonicalCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	smallest := 0
	for i, account := range cycle {
		if account < cycle[smallest] {
			smallest = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[smallest:]...)
	rotated = append(rotated, cycle[:smallest]...)
	return rotated
}
