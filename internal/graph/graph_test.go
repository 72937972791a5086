package graph

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// mapSource is an in-memory TagSource with deterministic artist order.
type mapSource map[string][]string

func (m mapSource) Artists(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}

func (m mapSource) Tags(ctx context.Context, artist string) ([]string, error) {
	return m[artist], nil
}

type failingSource struct{ err error }

func (f failingSource) Artists(ctx context.Context) ([]string, error) { return []string{"x"}, nil }
func (f failingSource) Tags(ctx context.Context, artist string) ([]string, error) {
	return nil, f.err
}

func exampleSource() mapSource {
	return mapSource{
		"ArtistA": {"rock", "pop"},
		"ArtistB": {"pop", "jazz"},
		"ArtistC": {"jazz"},
	}
}

func mustBuild(t *testing.T, src TagSource) *Graph {
	t.Helper()
	g, err := Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// quickGraph builds a graph from artist -> tags pairs.
func quickGraph(entries map[string][]string) *Graph {
	b := NewBuilder()
	names := make([]string, 0, len(entries))
	for a := range entries {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		b.Add(a, entries[a]...)
	}
	return b.Graph()
}

// --- Partition Tests ---

func TestParsePartition(t *testing.T) {
	tests := []struct {
		in      string
		want    Partition
		wantErr bool
	}{
		{"artist", Artist, false},
		{"ARTISTS", Artist, false},
		{" tag ", Tag, false},
		{"tags", Tag, false},
		{"album", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePartition(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPartition) || !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidPartition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartition_Valid(t *testing.T) {
	if !Artist.Valid() || !Tag.Valid() {
		t.Error("artist and tag must be valid")
	}
	if Partition(2).Valid() || Partition(-1).Valid() {
		t.Error("out of range partitions must be invalid")
	}
}

// --- Builder Tests ---

func TestBuild_Example(t *testing.T) {
	g := mustBuild(t, exampleSource())
	if g.Count(Artist) != 3 {
		t.Errorf("expected 3 artists, got %d", g.Count(Artist))
	}
	if g.Count(Tag) != 3 {
		t.Errorf("expected 3 tags, got %d", g.Count(Tag))
	}
	if g.NumEdges() != 5 {
		t.Errorf("expected 5 edges, got %d", g.NumEdges())
	}
	if g.Degree(TagNode("pop")) != 2 {
		t.Errorf("pop should have 2 artists, got %d", g.Degree(TagNode("pop")))
	}
}

func TestBuild_EmptySource(t *testing.T) {
	g := mustBuild(t, mapSource{})
	if g.NumNodes() != 0 || g.NumEdges() != 0 {
		t.Errorf("empty source should give empty graph, got nodes=%d edges=%d", g.NumNodes(), g.NumEdges())
	}
}

func TestBuild_SourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(context.Background(), failingSource{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestBuild_DuplicateTagsNoParallelEdges(t *testing.T) {
	b := NewBuilder()
	b.Add("A", "rock", "rock", "pop")
	b.Add("A", "rock")
	g := b.Graph()
	if g.NumEdges() != 2 {
		t.Errorf("expected 2 edges, got %d", g.NumEdges())
	}
	if g.Degree(ArtistNode("A")) != 2 {
		t.Errorf("expected degree 2, got %d", g.Degree(ArtistNode("A")))
	}
}

func TestBuild_SameLabelDifferentPartitions(t *testing.T) {
	b := NewBuilder()
	b.Add("Low", "low", "Low")
	g := b.Graph()
	if g.NumNodes() != 3 {
		t.Fatalf("expected 3 nodes (artist Low, tags low and Low), got %d", g.NumNodes())
	}
	if !g.Has(ArtistNode("Low")) || !g.Has(TagNode("Low")) || !g.Has(TagNode("low")) {
		t.Error("missing expected node")
	}
	if g.Has(ArtistNode("low")) {
		t.Error("labels are case-sensitive")
	}
}

func TestBuild_StrictlyBipartite(t *testing.T) {
	g := mustBuild(t, exampleSource())
	for _, p := range []Partition{Artist, Tag} {
		nodes, _ := g.Nodes(p)
		for _, n := range nodes {
			nbrs, err := g.Neighbors(n)
			if err != nil {
				t.Fatal(err)
			}
			for _, m := range nbrs {
				if m.Partition == p {
					t.Errorf("edge %s - %s stays inside one partition", n, m)
				}
			}
		}
	}
}

func TestNodes_SortedAndValidated(t *testing.T) {
	g := mustBuild(t, exampleSource())
	tags, err := g.Nodes(Tag)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"jazz", "pop", "rock"}
	for i, n := range tags {
		if n.Label != want[i] {
			t.Errorf("tags[%d] = %s, want %s", i, n.Label, want[i])
		}
	}
	if _, err := g.Nodes(Partition(7)); !errors.Is(err, ErrInvalidPartition) {
		t.Errorf("expected ErrInvalidPartition, got %v", err)
	}
}

func TestNeighbors_NotFound(t *testing.T) {
	g := mustBuild(t, exampleSource())
	if _, err := g.Neighbors(TagNode("metal")); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

// --- Topology Tests ---

func TestTopology_EmptyGraph(t *testing.T) {
	r := ComputeTopology(NewBuilder().Graph(), 4, 10)
	if r.TotalNodes != 0 || r.TotalEdges != 0 || r.NumComponents != 0 {
		t.Errorf("empty graph should have all zeros, got nodes=%d edges=%d components=%d",
			r.TotalNodes, r.TotalEdges, r.NumComponents)
	}
}

func TestTopology_SingleComponent(t *testing.T) {
	r := ComputeTopology(mustBuild(t, exampleSource()), 4, 10)
	if r.NumComponents != 1 {
		t.Errorf("expected 1 component, got %d", r.NumComponents)
	}
	if r.LargestComponent != 6 {
		t.Errorf("expected largest=6, got %d", r.LargestComponent)
	}
	if r.OrphanCount != 0 {
		t.Errorf("expected 0 orphans, got %d", r.OrphanCount)
	}
}

func TestTopology_TwoComponentsAndOrphan(t *testing.T) {
	g := quickGraph(map[string][]string{
		"A":      {"rock"},
		"B":      {"rock"},
		"C":      {"jazz"},
		"Lonely": nil,
	})
	r := ComputeTopology(g, 4, 10)
	if r.NumComponents != 3 {
		t.Errorf("expected 3 components, got %d", r.NumComponents)
	}
	if r.LargestComponent != 3 {
		t.Errorf("expected largest=3, got %d", r.LargestComponent)
	}
	if r.SmallestComponent != 1 {
		t.Errorf("expected smallest=1, got %d", r.SmallestComponent)
	}
	if r.OrphanCount != 1 || r.Orphans[0] != "Lonely" {
		t.Errorf("expected Lonely as sole orphan, got %v", r.Orphans)
	}
	if r.ArtistDegrees[0].Count != 1 || r.ArtistDegrees[1].Count != 3 {
		t.Errorf("unexpected artist histogram %+v", r.ArtistDegrees)
	}
}

func TestHub_Detection(t *testing.T) {
	g := quickGraph(map[string][]string{
		"s1": {"rock"}, "s2": {"rock"}, "s3": {"rock"}, "s4": {"rock"}, "s5": {"rock", "pop"},
	})
	r := ComputeTopology(g, 4, 10)
	if len(r.Hubs) != 1 {
		t.Fatalf("expected 1 hub, got %d", len(r.Hubs))
	}
	if r.Hubs[0].Label != "rock" || r.Hubs[0].Partition != "tag" {
		t.Errorf("expected tag rock as hub, got %+v", r.Hubs[0])
	}
	if r.Hubs[0].Degree != 5 {
		t.Errorf("rock degree should be 5, got %d", r.Hubs[0].Degree)
	}
}

// --- Tarjan Tests ---

func TestTarjan_Path(t *testing.T) {
	// rock - ArtistA - pop - ArtistB - jazz - ArtistC
	r := ComputeBridges(mustBuild(t, exampleSource()))
	if r.BridgeCount != 5 {
		t.Errorf("expected 5 bridges, got %d", r.BridgeCount)
	}
	if r.APCount != 4 {
		t.Errorf("expected 4 APs, got %d", r.APCount)
	}
	found := false
	for _, ap := range r.ArticulationPoints {
		if ap.Label == "pop" && ap.Partition == "tag" {
			found = true
		}
	}
	if !found {
		t.Errorf("pop should be AP, got %+v", r.ArticulationPoints)
	}
	for _, b := range r.BridgeEdges {
		if b.Artist == "" || b.Tag == "" {
			t.Errorf("bridge missing endpoint: %+v", b)
		}
	}
}

func TestTarjan_CycleNoBridges(t *testing.T) {
	g := quickGraph(map[string][]string{"A": {"x", "y"}, "B": {"x", "y"}})
	r := ComputeBridges(g)
	if r.BridgeCount != 0 {
		t.Errorf("4-cycle should have 0 bridges, got %d", r.BridgeCount)
	}
	if r.APCount != 0 {
		t.Errorf("4-cycle should have 0 APs, got %d", r.APCount)
	}
}

// --- Health Tests ---

func TestHealthScore_Range(t *testing.T) {
	g := quickGraph(map[string][]string{"A": nil, "B": nil, "C": {"x"}})
	r := Analyze(g, DefaultConfig())
	if r.HealthScore < 0 || r.HealthScore > 1 {
		t.Errorf("health out of range: %f", r.HealthScore)
	}

	r2 := Analyze(mustBuild(t, exampleSource()), DefaultConfig())
	if r2.HealthScore < 0 || r2.HealthScore > 1 {
		t.Errorf("health out of range: %f", r2.HealthScore)
	}
}

func TestHealthScore_Perfect(t *testing.T) {
	g := quickGraph(map[string][]string{"A": {"x", "y"}, "B": {"x", "y"}})
	r := Analyze(g, &AnalyzerConfig{HubThreshold: 10, TopN: 50})
	if r.HealthScore < 0.95 {
		t.Errorf("perfect graph should have health ~1.0, got %f", r.HealthScore)
	}
}
