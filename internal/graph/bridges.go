package graph

import "sort"

// ArticulationPoint is a node whose removal disconnects the graph
type ArticulationPoint struct {
	Label     string `json:"label"`
	Partition string `json:"partition"`
	Degree    int    `json:"degree"`
}

// BridgeEdge is an artist/tag edge whose removal disconnects the graph
type BridgeEdge struct {
	Artist string `json:"artist"`
	Tag    string `json:"tag"`
}

// BridgeReport contains bridge analysis results
type BridgeReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	APCount            int                 `json:"ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// ComputeBridges finds articulation points and bridge edges with an
// iterative Tarjan walk. A tag that is the only link between two artist
// groups shows up as an articulation point.
func ComputeBridges(g *Graph) *BridgeReport {
	n := g.NumNodes()
	if n == 0 {
		return &BridgeReport{}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(g.adj[node]) {
				child := g.adj[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}

				if visited[child] {
					// back edge
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
					continue
				}

				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			pn := stack[len(stack)-1].node
			if low[node] < low[pn] {
				low[pn] = low[node]
			}
			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if pn != start && low[node] >= disc[pn] {
				isAP[pn] = true
			}
		}

		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	var aps []ArticulationPoint
	for i := 0; i < n; i++ {
		if isAP[i] {
			aps = append(aps, ArticulationPoint{
				Label:     g.nodes[i].Label,
				Partition: g.nodes[i].Partition.String(),
				Degree:    len(g.adj[i]),
			})
		}
	}
	sort.Slice(aps, func(i, j int) bool {
		if aps[i].Degree != aps[j].Degree {
			return aps[i].Degree > aps[j].Degree
		}
		return aps[i].Label < aps[j].Label
	})

	bridges := make([]BridgeEdge, 0, len(bridgePairs))
	for _, pair := range bridgePairs {
		u, v := g.nodes[pair[0]], g.nodes[pair[1]]
		if u.Partition == Tag {
			u, v = v, u
		}
		bridges = append(bridges, BridgeEdge{Artist: u.Label, Tag: v.Label})
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].Artist != bridges[j].Artist {
			return bridges[i].Artist < bridges[j].Artist
		}
		return bridges[i].Tag < bridges[j].Tag
	})

	return &BridgeReport{
		ArticulationPoints: aps,
		BridgeEdges:        bridges,
		APCount:            len(aps),
		BridgeCount:        len(bridges),
	}
}
