package graph

import "sort"

// HubNode is a node with high connectivity
type HubNode struct {
	Label     string `json:"label"`
	Partition string `json:"partition"`
	Degree    int    `json:"degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int            `json:"total_nodes"`
	ArtistCount       int            `json:"artist_count"`
	TagCount          int            `json:"tag_count"`
	TotalEdges        int            `json:"total_edges"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	Orphans           []string       `json:"orphans"`
	ArtistDegrees     []DegreeBucket `json:"artist_degree_histogram"`
	TagDegrees        []DegreeBucket `json:"tag_degree_histogram"`
	Hubs              []HubNode      `json:"hubs"`
}

// ComputeTopology analyzes graph topology: components, orphans, degree
// distribution per partition, and hubs. Orphans are artists stored without
// any tag.
func ComputeTopology(g *Graph, hubThreshold, topN int) *TopologyReport {
	report := &TopologyReport{
		TotalNodes:    g.NumNodes(),
		ArtistCount:   g.Count(Artist),
		TagCount:      g.Count(Tag),
		TotalEdges:    g.NumEdges(),
		ArtistDegrees: defaultHistogram(),
		TagDegrees:    defaultHistogram(),
	}
	if report.TotalNodes == 0 {
		return report
	}

	uf := newUnionFind(g.NumNodes())
	for i, nbrs := range g.adj {
		for _, j := range nbrs {
			uf.union(i, j)
		}
	}
	sizes := uf.componentSizes()
	report.NumComponents = len(sizes)
	report.SmallestComponent = report.TotalNodes
	for _, s := range sizes {
		if s > report.LargestComponent {
			report.LargestComponent = s
		}
		if s < report.SmallestComponent {
			report.SmallestComponent = s
		}
	}

	var orphans []string
	var hubs []HubNode
	for _, p := range []Partition{Artist, Tag} {
		hist := report.ArtistDegrees
		if p == Tag {
			hist = report.TagDegrees
		}
		for _, i := range g.byPart[p] {
			degree := len(g.adj[i])
			hist[degreeBucket(degree)].Count++
			if degree == 0 {
				orphans = append(orphans, g.nodes[i].Label)
			}
			if degree > hubThreshold {
				hubs = append(hubs, HubNode{
					Label:     g.nodes[i].Label,
					Partition: p.String(),
					Degree:    degree,
				})
			}
		}
	}

	report.OrphanCount = len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}
	report.Orphans = orphans

	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}
	report.Hubs = hubs

	return report
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
