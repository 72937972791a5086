package graph

import (
	"fmt"
	"sort"
)

// TopNRanked returns up to n nodes of node's own partition most similar to
// node, sorted by descending score with ties broken by ascending label.
// Only candidates sharing at least one neighbor with node are considered.
// Each result has A set to node's label and B to the candidate's.
func TopNRanked(g *Graph, node Node, n int) ([]Similarity, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must be >= 0, got %d", ErrInvalidArgument, n)
	}
	i, ok := g.index[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, node)
	}

	part := g.byPart[node.Partition]
	counts := make([]int, len(part))
	// minRank -1 admits every candidate; i itself is skipped by sharedCounts.
	touched := g.sharedCounts(i, -1, counts)

	degA := len(g.adj[i])
	results := make([]Similarity, 0, len(touched))
	for _, r := range touched {
		j := part[r]
		results = append(results, Similarity{
			A:     node.Label,
			B:     g.nodes[j].Label,
			Score: jaccard(counts[r], degA, len(g.adj[j])),
		})
	}

	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].B < results[b].B
	})

	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// TopN is TopNRanked as a label -> score map.
func TopN(g *Graph, node Node, n int) (map[string]float64, error) {
	ranked, err := TopNRanked(g, node, n)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(ranked))
	for _, s := range ranked {
		out[s.B] = s.Score
	}
	return out, nil
}
