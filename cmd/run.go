package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/export"
	"artistnet/tagsim/internal/graph"
	"artistnet/tagsim/internal/lastfm"
	"artistnet/tagsim/internal/logging"
	"artistnet/tagsim/internal/store"
)

var (
	runCount      int
	runMaxRetries int
	runOutputDir  string
	runKeep       bool
)

// Output file names written by run
const (
	artistTagsFile = "artist_tags.csv"
	artistSimFile  = "artist_similarity.csv"
	tagSimFile     = "tag_similarity.csv"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clear the store, fetch from Last.fm, then save and export artist and tag similarities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if !runKeep {
			if err := st.Clear(ctx); err != nil {
				return fmt.Errorf("clearing store: %w", err)
			}
		}

		report, err := harvest(ctx, st, runCount, runMaxRetries)
		if err != nil {
			// Partial tag data is still worth computing on.
			if !errors.Is(err, lastfm.ErrIncomplete) {
				return err
			}
			logging.Warn().Strs("missing", report.Missing).Msg("continuing with incomplete tag data")
		}

		dir := runOutputDir
		if dir == "" {
			dir = cfg.OutputDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		return computeAndExport(ctx, st, dir)
	},
}

// computeAndExport writes the artist tag CSV and, for both partitions, stores
// the non-zero similarities and writes them to CSV under dir in a single pass
func computeAndExport(ctx context.Context, st store.Store, dir string) error {
	if err := writeFile(filepath.Join(dir, artistTagsFile), func(f *os.File) error {
		_, err := export.WriteArtistTags(ctx, f, st)
		return err
	}); err != nil {
		return err
	}

	g, err := loadGraph(ctx, st)
	if err != nil {
		return err
	}

	for _, p := range []graph.Partition{graph.Artist, graph.Tag} {
		seq, err := graph.AllSimilarities(g, p, graph.SkipZero)
		if err != nil {
			return err
		}
		name := artistSimFile
		if p == graph.Tag {
			name = tagSimFile
		}
		path := filepath.Join(dir, name)
		var n int
		if err := writeFile(path, func(f *os.File) error {
			sw := export.NewSimilarityWriter(f)
			saved, err := export.SaveSimilarities(ctx, st, p, sw.Through(seq), export.DefaultBatchSize)
			n = saved
			if err != nil {
				return fmt.Errorf("saving %s similarities: %w", p, err)
			}
			return sw.Flush()
		}); err != nil {
			return err
		}
		logging.Info().Str("partition", p.String()).Int("pairs", n).Str("file", path).Msg("similarities exported")
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	runCmd.Flags().IntVar(&runCount, "count", -1, "Number of top artists to fetch (default from TAGSIM_ARTIST_COUNT)")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", -1, "Retry passes for artists with missing tags (default from TAGSIM_MAX_RETRIES)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "Directory for CSV files (default from TAGSIM_OUTPUT_DIR)")
	runCmd.Flags().BoolVar(&runKeep, "keep", false, "Keep existing store contents instead of clearing first")
	rootCmd.AddCommand(runCmd)
}
