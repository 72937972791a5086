package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/lastfm"
	"artistnet/tagsim/internal/logging"
	"artistnet/tagsim/internal/store"
)

var (
	fetchCount      int
	fetchMaxRetries int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch top chart artists and their tags from Last.fm into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := harvest(ctx, st, fetchCount, fetchMaxRetries)
		if report != nil {
			fmt.Printf("Fetched tags for %d/%d artists (%d retries)\n", report.Saved, report.Requested, report.Retries)
			if len(report.Missing) > 0 {
				fmt.Printf("Missing: %v\n", report.Missing)
			}
		}
		return err
	},
}

// harvest runs a Last.fm harvest into st. A negative count or maxRetries
// falls back to the configured value.
func harvest(ctx context.Context, st store.TagStore, count, maxRetries int) (*lastfm.HarvestReport, error) {
	if cfg.LastFMAPIKey == "" {
		return nil, errors.New("LASTFM_API_KEY is not set")
	}
	if count < 0 {
		count = cfg.ArtistCount
	}
	if maxRetries < 0 {
		maxRetries = cfg.MaxRetries
	}

	client := lastfm.NewClient(lastfm.ClientConfig{
		BaseURL:         cfg.LastFMBaseURL,
		APIKey:          cfg.LastFMAPIKey,
		RequestInterval: cfg.RequestInterval,
		Timeout:         cfg.HTTPTimeout,
	})
	h := lastfm.NewHarvester(client, st, maxRetries, logging.Component("harvest"))
	return h.Run(ctx, count)
}

func init() {
	fetchCmd.Flags().IntVar(&fetchCount, "count", -1, "Number of top artists to fetch (default from TAGSIM_ARTIST_COUNT)")
	fetchCmd.Flags().IntVar(&fetchMaxRetries, "max-retries", -1, "Retry passes for artists with missing tags (default from TAGSIM_MAX_RETRIES)")
	rootCmd.AddCommand(fetchCmd)
}
