package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/export"
	"artistnet/tagsim/internal/logging"
)

var exportOut string

var exportTagsCmd = &cobra.Command{
	Use:   "export-tags",
	Short: "Write stored artists and tags as CSV (artist,tag1;tag2;...)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		w, closeFn, err := openOutput(exportOut)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := export.WriteArtistTags(ctx, w, st)
		if err != nil {
			return fmt.Errorf("exporting artist tags: %w", err)
		}
		logging.Info().Int("artists", n).Str("out", exportOut).Msg("exported artist tags")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored tags and similarities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Clear(ctx); err != nil {
			return err
		}
		logging.Info().Str("store", cfg.StoreBackend).Msg("store cleared")
		return nil
	},
}

func init() {
	exportTagsCmd.Flags().StringVar(&exportOut, "out", "-", "CSV output file, \"-\" for stdout")
	rootCmd.AddCommand(exportTagsCmd)
	rootCmd.AddCommand(clearCmd)
}
