package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidArgument is returned for parameters outside their legal range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidPartition is returned for a partition other than Artist or Tag.
	ErrInvalidPartition = fmt.Errorf("%w: partition must be artist or tag", ErrInvalidArgument)
	// ErrNodeNotFound is returned when a queried node is not in the graph.
	ErrNodeNotFound = errors.New("node not found")
)

// Partition selects one side of the bipartite artist/tag graph.
type Partition int

const (
	Artist Partition = iota
	Tag
)

// Valid reports whether p is Artist or Tag.
func (p Partition) Valid() bool {
	return p == Artist || p == Tag
}

func (p Partition) String() string {
	switch p {
	case Artist:
		return "artist"
	case Tag:
		return "tag"
	default:
		return fmt.Sprintf("partition(%d)", int(p))
	}
}

// ParsePartition accepts "artist" or "tag" (case-insensitive, plural allowed).
func ParsePartition(s string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "artist", "artists":
		return Artist, nil
	case "tag", "tags":
		return Tag, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPartition, s)
	}
}

// Node is an artist or a tag. Equal labels in different partitions are
// different nodes.
type Node struct {
	Partition Partition
	Label     string
}

// ArtistNode returns the artist node labeled label.
func ArtistNode(label string) Node { return Node{Partition: Artist, Label: label} }

// TagNode returns the tag node labeled label.
func TagNode(label string) Node { return Node{Partition: Tag, Label: label} }

func (n Node) String() string {
	return n.Partition.String() + ":" + n.Label
}

// TagSource is a read-only mapping from artist name to its ordered tag list.
type TagSource interface {
	Artists(ctx context.Context) ([]string, error)
	Tags(ctx context.Context, artist string) ([]string, error)
}

// Graph is an immutable bipartite graph of artists and tags. Nodes live in an
// arena and edges are kept as sorted, de-duplicated index lists.
type Graph struct {
	nodes  []Node
	index  map[Node]int
	adj    [][]int
	byPart [2][]int // node indices per partition, sorted by label
	rank   []int    // position of each node within its byPart list
	edges  int
}

// Builder accumulates artist/tag edges. The zero value is not usable; call NewBuilder.
type Builder struct {
	nodes []Node
	index map[Node]int
	adj   []map[int]struct{}
	edges int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[Node]int)}
}

func (b *Builder) node(n Node) int {
	if i, ok := b.index[n]; ok {
		return i
	}
	i := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.index[n] = i
	b.adj = append(b.adj, make(map[int]struct{}))
	return i
}

// Add records artist and an edge to each of tags. Repeated tags and repeated
// calls never create parallel edges.
func (b *Builder) Add(artist string, tags ...string) {
	a := b.node(ArtistNode(artist))
	for _, tag := range tags {
		t := b.node(TagNode(tag))
		if _, ok := b.adj[a][t]; ok {
			continue
		}
		b.adj[a][t] = struct{}{}
		b.adj[t][a] = struct{}{}
		b.edges++
	}
}

// Graph freezes the builder's contents into a Graph.
func (b *Builder) Graph() *Graph {
	g := &Graph{
		nodes: make([]Node, len(b.nodes)),
		index: make(map[Node]int, len(b.nodes)),
		adj:   make([][]int, len(b.nodes)),
		rank:  make([]int, len(b.nodes)),
		edges: b.edges,
	}
	copy(g.nodes, b.nodes)
	for i, n := range g.nodes {
		g.index[n] = i
		nbrs := make([]int, 0, len(b.adj[i]))
		for j := range b.adj[i] {
			nbrs = append(nbrs, j)
		}
		sort.Ints(nbrs)
		g.adj[i] = nbrs
		g.byPart[n.Partition] = append(g.byPart[n.Partition], i)
	}
	for p := range g.byPart {
		part := g.byPart[p]
		sort.Slice(part, func(i, j int) bool {
			return g.nodes[part[i]].Label < g.nodes[part[j]].Label
		})
		for r, i := range part {
			g.rank[i] = r
		}
	}
	return g
}

// Build reads every artist and its tags from src into a new Graph.
// An empty source yields an empty graph.
func Build(ctx context.Context, src TagSource) (*Graph, error) {
	artists, err := src.Artists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing artists: %w", err)
	}
	b := NewBuilder()
	for _, artist := range artists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tags, err := src.Tags(ctx, artist)
		if err != nil {
			return nil, fmt.Errorf("reading tags for %q: %w", artist, err)
		}
		b.Add(artist, tags...)
	}
	return b.Graph(), nil
}

// NumNodes returns the number of nodes in both partitions.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of distinct artist/tag edges.
func (g *Graph) NumEdges() int { return g.edges }

// Count returns the number of nodes in partition p.
func (g *Graph) Count(p Partition) int {
	if !p.Valid() {
		return 0
	}
	return len(g.byPart[p])
}

// Has reports whether n is in the graph.
func (g *Graph) Has(n Node) bool {
	_, ok := g.index[n]
	return ok
}

// Degree returns the number of neighbors of n, or 0 if n is absent.
func (g *Graph) Degree(n Node) int {
	i, ok := g.index[n]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// Neighbors returns the neighbors of n sorted by label.
func (g *Graph) Neighbors(n Node) ([]Node, error) {
	i, ok := g.index[n]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, n)
	}
	out := make([]Node, len(g.adj[i]))
	for k, j := range g.adj[i] {
		out[k] = g.nodes[j]
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Label < out[b].Label })
	return out, nil
}

// Nodes returns the nodes of partition p sorted by label.
func (g *Graph) Nodes(p Partition) ([]Node, error) {
	if !p.Valid() {
		return nil, ErrInvalidPartition
	}
	out := make([]Node, len(g.byPart[p]))
	for k, i := range g.byPart[p] {
		out[k] = g.nodes[i]
	}
	return out, nil
}
