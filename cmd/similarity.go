package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/export"
	"artistnet/tagsim/internal/graph"
	"artistnet/tagsim/internal/logging"
)

var (
	simIncludeZero bool
	simOut         string
	simLimit       int
	simSave        bool
)

var similarityCmd = &cobra.Command{
	Use:   "similarity <artist|tag>",
	Short: "Compute pairwise Jaccard similarity for all artists or all tags",
	Long: "Builds the artist/tag graph from the store and writes one CSV row " +
		"\"labelA,labelB,score\" per pair sharing at least one neighbor " +
		"(every pair with --include-zero).",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := graph.ParsePartition(args[0])
		if err != nil {
			return err
		}
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
		policy := zeroPolicy(simIncludeZero)

		if simSave {
			seq, err := graph.AllSimilarities(g, p, policy)
			if err != nil {
				return err
			}
			n, err := export.SaveSimilarities(ctx, st, p, seq, export.DefaultBatchSize)
			if err != nil {
				return fmt.Errorf("saving similarities: %w", err)
			}
			logging.Info().Str("partition", p.String()).Int("pairs", n).Msg("saved similarities")
		}

		if simOut == "" {
			return nil
		}
		w, closeFn, err := openOutput(simOut)
		if err != nil {
			return err
		}
		defer closeFn()

		seq, err := graph.AllSimilarities(g, p, policy)
		if err != nil {
			return err
		}
		n, err := export.WriteSimilarities(w, seq, simLimit)
		if err != nil {
			return fmt.Errorf("writing similarities: %w", err)
		}
		logging.Info().Str("partition", p.String()).Int("rows", n).Str("out", simOut).Msg("wrote similarities")
		return nil
	},
}

func zeroPolicy(includeZero bool) graph.ZeroPolicy {
	if includeZero {
		return graph.KeepZero
	}
	return graph.SkipZero
}

// openOutput returns stdout for "-" or a created file otherwise
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

func init() {
	similarityCmd.Flags().BoolVar(&simIncludeZero, "include-zero", false, "Also emit pairs with no shared neighbor (score 0)")
	similarityCmd.Flags().StringVar(&simOut, "out", "-", "CSV output file, \"-\" for stdout, empty to skip")
	similarityCmd.Flags().IntVar(&simLimit, "limit", 0, "Stop after this many rows (0 = all)")
	similarityCmd.Flags().BoolVar(&simSave, "save", false, "Also store the scores in the similarity store")
	rootCmd.AddCommand(similarityCmd)
}
