package graph

import (
	"fmt"
	"iter"
	"sort"
)

// Similarity is the Jaccard score of an unordered pair of same-partition
// nodes. For exhaustive results A sorts before B.
type Similarity struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// ZeroPolicy controls whether pairs without a shared neighbor are emitted.
type ZeroPolicy int

const (
	// SkipZero emits only pairs sharing at least one neighbor.
	SkipZero ZeroPolicy = iota
	// KeepZero emits every unordered pair, including zero scores.
	KeepZero
)

func jaccard(inter, degA, degB int) float64 {
	union := degA + degB - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// intersectSorted counts common elements of two ascending slices.
func intersectSorted(a, b []int) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}

// Jaccard returns |N(a)∩N(b)| / |N(a)∪N(b)|, or 0 when both are isolated.
func Jaccard(g *Graph, a, b Node) (float64, error) {
	ai, ok := g.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, a)
	}
	bi, ok := g.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, b)
	}
	if a.Partition != b.Partition {
		return 0, fmt.Errorf("%w: %s and %s are in different partitions", ErrInvalidArgument, a, b)
	}
	if ai == bi {
		return 0, fmt.Errorf("%w: self-pair %s", ErrInvalidArgument, a)
	}
	inter := intersectSorted(g.adj[ai], g.adj[bi])
	return jaccard(inter, len(g.adj[ai]), len(g.adj[bi])), nil
}

// sharedCounts fills counts (indexed by rank within the partition) with the
// number of neighbors node i shares with every other node of its partition
// whose rank is above minRank, and returns those ranks in ascending order.
// Only nodes reachable in two hops are touched.
func (g *Graph) sharedCounts(i, minRank int, counts []int) []int {
	var touched []int
	for _, t := range g.adj[i] {
		for _, j := range g.adj[t] {
			if j == i {
				continue
			}
			r := g.rank[j]
			if r <= minRank {
				continue
			}
			if counts[r] == 0 {
				touched = append(touched, r)
			}
			counts[r]++
		}
	}
	sort.Ints(touched)
	return touched
}

// AllSimilarities returns a lazy sequence over every unordered pair of nodes
// in partition p, each pair at most once and never a node with itself. Pairs
// come out in label order with A < B. Stopping the range early stops the
// computation.
func AllSimilarities(g *Graph, p Partition, policy ZeroPolicy) (iter.Seq[Similarity], error) {
	if !p.Valid() {
		return nil, ErrInvalidPartition
	}
	if policy != SkipZero && policy != KeepZero {
		return nil, fmt.Errorf("%w: zero policy %d", ErrInvalidArgument, int(policy))
	}
	part := g.byPart[p]

	return func(yield func(Similarity) bool) {
		counts := make([]int, len(part))
		for r, i := range part {
			touched := g.sharedCounts(i, r, counts)
			a := g.nodes[i]
			degA := len(g.adj[i])

			if policy == SkipZero {
				for _, rb := range touched {
					j := part[rb]
					s := Similarity{
						A:     a.Label,
						B:     g.nodes[j].Label,
						Score: jaccard(counts[rb], degA, len(g.adj[j])),
					}
					if !yield(s) {
						return
					}
					counts[rb] = 0
				}
				continue
			}

			for rb := r + 1; rb < len(part); rb++ {
				j := part[rb]
				s := Similarity{
					A:     a.Label,
					B:     g.nodes[j].Label,
					Score: jaccard(counts[rb], degA, len(g.adj[j])),
				}
				if !yield(s) {
					return
				}
			}
			clearCounts(counts, touched)
		}
	}, nil
}

func clearCounts(counts, ranks []int) {
	for _, r := range ranks {
		counts[r] = 0
	}
}
