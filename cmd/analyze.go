package cmd

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/graph"
)

var (
	analyzeJSON         bool
	analyzeTopN         int
	analyzeHubThreshold int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the artist/tag graph: topology, hubs, fragility, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		g, err := loadGraph(ctx, st)
		if err != nil {
			return err
		}

		report := graph.Analyze(g, &graph.AnalyzerConfig{
			HubThreshold: analyzeHubThreshold,
			TopN:         analyzeTopN,
		})

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printHumanReadable(report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", 15, "Minimum degree to consider a node a hub")
	rootCmd.AddCommand(analyzeCmd)
}

func printHumanReadable(report *graph.AnalysisReport) {
	// Health bar
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Printf("  breakdown: coverage=%.2f components=%.2f fragility=%.2f\n\n",
		report.HealthBreakdown.Coverage,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Fragility)

	// Topology
	t := report.Topology
	fmt.Println("  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Artists: %d  Tags: %d  Edges: %d  Components: %d\n",
		t.ArtistCount, t.TagCount, t.TotalEdges, t.NumComponents)
	fmt.Printf("  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)

	if t.OrphanCount > 0 {
		fmt.Printf("  Untagged artists: %d\n", t.OrphanCount)
		limit := min(5, len(t.Orphans))
		for _, label := range t.Orphans[:limit] {
			fmt.Printf("    - %s\n", truncTitle(label, 50))
		}
		if t.OrphanCount > limit {
			fmt.Printf("    ... and %d more\n", t.OrphanCount-limit)
		}
	}

	printHistogram("Tags per artist", t.ArtistDegrees)
	printHistogram("Artists per tag", t.TagDegrees)

	// Hubs
	if len(t.Hubs) > 0 {
		fmt.Println("\n  Top hubs (degree > threshold):")
		for _, hub := range t.Hubs {
			fmt.Printf("    %-6s degree=%-4d %s\n", hub.Partition, hub.Degree, truncTitle(hub.Label, 40))
		}
	}

	// Bridges
	br := report.Bridges
	if br.APCount > 0 || br.BridgeCount > 0 {
		fmt.Println("\n  STRUCTURAL FRAGILITY")
		fmt.Println("  ────────────────────────────────────────")
		if br.APCount > 0 {
			fmt.Printf("  %d articulation points (removal disconnects graph):\n", br.APCount)
			limit := min(10, len(br.ArticulationPoints))
			for _, ap := range br.ArticulationPoints[:limit] {
				fmt.Printf("    %-6s degree=%-4d %s\n", ap.Partition, ap.Degree, truncTitle(ap.Label, 40))
			}
		}
		if br.BridgeCount > 0 {
			fmt.Printf("  %d bridge edges (removal disconnects graph):\n", br.BridgeCount)
			limit := min(10, len(br.BridgeEdges))
			for _, be := range br.BridgeEdges[:limit] {
				fmt.Printf("    %s -> %s\n", truncTitle(be.Artist, 30), truncTitle(be.Tag, 30))
			}
		}
	}

	fmt.Println()
}

func printHistogram(title string, buckets []graph.DegreeBucket) {
	fmt.Printf("\n  %s:\n", title)
	for _, b := range buckets {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}
}

func truncTitle(s string, width int) string {
	if len(s) <= width {
		return s
	}
	// back off to a UTF-8 boundary
	truncated := s[:width]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
