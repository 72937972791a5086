package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/export"
	"artistnet/tagsim/internal/graph"
)

var (
	topN    int
	topJSON bool
)

var topCmd = &cobra.Command{
	Use:   "top <artist|tag> <label>",
	Short: "Show the N artists or tags most similar to one artist or tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := graph.ParsePartition(args[0])
		if err != nil {
			return err
		}
		node := graph.Node{Partition: p, Label: args[1]}

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

		ranked, err := graph.TopNRanked(g, node, topN)
		if err != nil {
			return err
		}

		if topJSON {
			output := struct {
				Partition string             `json:"partition"`
				Label     string             `json:"label"`
				N         int                `json:"n"`
				Results   []graph.Similarity `json:"results"`
				Count     int                `json:"count"`
			}{p.String(), node.Label, topN, ranked, len(ranked)}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(output)
		}

		if len(ranked) == 0 {
			fmt.Printf("No %s shares a neighbor with %q\n", p, node.Label)
			return nil
		}
		fmt.Printf("\n  Most similar to %s %q\n", p, node.Label)
		fmt.Println("  ────────────────────────────────────────")
		for i, s := range ranked {
			fmt.Printf("  %3d. %-40s %s\n", i+1, truncTitle(s.B, 40), export.FormatScore(s.Score))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	topCmd.Flags().IntVarP(&topN, "count", "n", 10, "Number of results")
	topCmd.Flags().BoolVar(&topJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(topCmd)
}
