package graph

import (
	"errors"
	"testing"
)

func TestTopN_Basic(t *testing.T) {
	g := mustBuild(t, exampleSource())
	got, err := TopN(g, TagNode("pop"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %v", got)
	}
	if s, ok := got["rock"]; !ok || !approx(s, 0.5) {
		t.Errorf("expected rock=0.5, got %v", got)
	}
}

func TestTopN_OnlySharedNeighbors(t *testing.T) {
	g := mustBuild(t, exampleSource())
	got, err := TopN(g, TagNode("rock"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("rock only shares an artist with pop, got %v", got)
	}
	if _, ok := got["jazz"]; ok {
		t.Error("jazz shares no artist with rock and must be excluded")
	}
}

func TestTopN_SamePartitionOnly(t *testing.T) {
	b := NewBuilder()
	b.Add("Low", "low", "slowcore")
	b.Add("Codeine", "slowcore")
	g := b.Graph()
	got, err := TopNRanked(g, ArtistNode("Low"), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].B != "Codeine" {
		t.Errorf("expected only Codeine, got %+v", got)
	}
	if got[0].A != "Low" {
		t.Errorf("A should be the query label, got %q", got[0].A)
	}
}

func TestTopN_TieBreakByLabel(t *testing.T) {
	g := quickGraph(map[string][]string{
		"X": {"a"}, "Z": {"a"}, "Y": {"a"}, "W": {"a", "b"},
	})
	got, err := TopNRanked(g, ArtistNode("X"), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Y", "Z", "W"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].B != w {
			t.Errorf("rank %d = %s, want %s", i, got[i].B, w)
		}
	}
	if !approx(got[2].Score, 0.5) {
		t.Errorf("W score = %f, want 0.5", got[2].Score)
	}
}

func TestTopN_ZeroAndNegative(t *testing.T) {
	g := mustBuild(t, exampleSource())
	got, err := TopN(g, TagNode("pop"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("n=0 should return empty map, got %v", got)
	}
	if _, err := TopN(g, TagNode("pop"), -1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTopN_NotFound(t *testing.T) {
	g := mustBuild(t, exampleSource())
	got, err := TopN(g, TagNode("ArtistA"), 3)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no output, got %v", got)
	}
}

func TestTopN_SelectsHighestScores(t *testing.T) {
	g := quickGraph(map[string][]string{
		"A": {"rock", "pop", "indie", "folk"},
		"B": {"rock", "pop", "indie"},
		"C": {"rock"},
		"D": {"folk", "jazz", "blues"},
		"E": {"pop", "indie", "folk", "rock", "metal"},
		"F": {"metal"},
	})
	for _, p := range []Partition{Artist, Tag} {
		nodes, _ := g.Nodes(p)
		for _, n := range nodes {
			top, err := TopN(g, n, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(top) > 2 {
				t.Fatalf("size %d > n", len(top))
			}
			minKept := 2.0
			for _, s := range top {
				if s < minKept {
					minKept = s
				}
			}
			for _, m := range nodes {
				if m == n {
					continue
				}
				if _, kept := top[m.Label]; kept {
					continue
				}
				s, err := Jaccard(g, n, m)
				if err != nil {
					t.Fatal(err)
				}
				if len(top) > 0 && s > minKept {
					t.Errorf("%s: excluded %s (%f) beats kept minimum %f", n, m.Label, s, minKept)
				}
			}
		}
	}
}
