package patch

import (
	"fmt"
	"slices"
)

// Order returns the node ids sorted so that every node comes after the
// nodes it references (Kahn's algorithm). Ties keep declaration order.
func (p *Patch) Order() ([]string, error) {
	index := make(map[string]int, len(p.Nodes))
	for i, n := range p.Nodes {
		index[n.ID] = i
	}

	indegree := make([]int, len(p.Nodes))
	outgoing := make([][]int, len(p.Nodes))

	for i, n := range p.Nodes {
		deps := make(map[int]struct{})

		for _, name := range sortedKeys(n.Params) {
			for _, ref := range n.Params[name].Refs() {
				j, ok := index[ref]
				if !ok {
					return nil, fmt.Errorf("%w: node %q parameter %q references unknown node %q", ErrInvalid, n.ID, name, ref)
				}

				if j == i {
					return nil, fmt.Errorf("%w: node %q references itself", ErrInvalid, n.ID)
				}

				if _, dup := deps[j]; dup {
					continue
				}

				deps[j] = struct{}{}
				outgoing[j] = append(outgoing[j], i)
				indegree[i]++
			}
		}
	}

	queue := make([]int, 0, len(p.Nodes))

	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]string, 0, len(p.Nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		order = append(order, p.Nodes[i].ID)

		for _, j := range outgoing[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	if len(order) != len(p.Nodes) {
		var stuck []string

		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, p.Nodes[i].ID)
			}
		}

		return nil, fmt.Errorf("%w: reference cycle through %v", ErrInvalid, stuck)
	}

	return order, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
