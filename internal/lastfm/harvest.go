package lastfm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrIncomplete is returned when tags are still missing for some artists
// after the retry budget is spent. The report is returned alongside it.
var ErrIncomplete = errors.New("tag data incomplete")

// Fetcher is the subset of Client used by Harvester.
type Fetcher interface {
	TopArtists(ctx context.Context, limit int) ([]Artist, error)
	TopTags(ctx context.Context, artist string) ([]Tag, error)
}

// TagSaver is where harvested tags go.
type TagSaver interface {
	Artists(ctx context.Context) ([]string, error)
	SaveTags(ctx context.Context, artist string, tags []string) error
}

// HarvestReport summarizes a harvest run.
type HarvestReport struct {
	Requested int      `json:"requested"`
	Saved     int      `json:"saved"`
	Missing   []string `json:"missing"`
	Retries   int      `json:"retries"`
}

// Harvester fetches the top artist chart and every artist's tags into a
// TagSaver, retrying the artists still missing up to MaxRetries times.
type Harvester struct {
	fetcher    Fetcher
	store      TagSaver
	maxRetries int
	log        zerolog.Logger
}

// NewHarvester returns a Harvester. A negative maxRetries is treated as 0.
func NewHarvester(f Fetcher, s TagSaver, maxRetries int, log zerolog.Logger) *Harvester {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Harvester{fetcher: f, store: s, maxRetries: maxRetries, log: log}
}

// Run harvests the top count artists. After the first pass it re-fetches the
// artists with no stored tags until none are missing or MaxRetries passes
// have run.
func (h *Harvester) Run(ctx context.Context, count int) (*HarvestReport, error) {
	artists, err := h.fetcher.TopArtists(ctx, count)
	if err != nil {
		return nil, err
	}
	names := uniqueNames(artists)
	if len(names) == 0 {
		return nil, fmt.Errorf("no artist data returned for count=%d", count)
	}
	h.log.Info().Int("artists", len(names)).Msg("fetched top artists")

	report := &HarvestReport{Requested: len(names)}
	if err := h.saveTags(ctx, names); err != nil {
		return nil, err
	}

	for {
		missing, err := h.missing(ctx, names)
		if err != nil {
			return nil, err
		}
		if len(missing) == 0 {
			break
		}
		if report.Retries >= h.maxRetries {
			report.Missing = missing
			break
		}
		report.Retries++
		h.log.Warn().Strs("missing", missing).Int("retry", report.Retries).Msg("missing tag data, retrying")
		if err := h.saveTags(ctx, missing); err != nil {
			return nil, err
		}
	}

	report.Saved = report.Requested - len(report.Missing)
	if len(report.Missing) > 0 {
		h.log.Error().Strs("missing", report.Missing).Int("retries", report.Retries).Msg("failed to get tag data for all artists")
		return report, fmt.Errorf("%w: %d of %d artists missing after %d retries",
			ErrIncomplete, len(report.Missing), report.Requested, report.Retries)
	}
	h.log.Info().Int("artists", report.Saved).Int("retries", report.Retries).Msg("tag data complete")
	return report, nil
}

// saveTags fetches and stores tags for each artist. Fetch failures and empty
// tag lists are logged and skipped; store failures abort.
func (h *Harvester) saveTags(ctx context.Context, names []string) error {
	for _, artist := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		tags, err := h.fetcher.TopTags(ctx, artist)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.log.Warn().Err(err).Str("artist", artist).Msg("no tag data")
			continue
		}
		if len(tags) == 0 {
			h.log.Warn().Str("artist", artist).Msg("empty tag list")
			continue
		}
		tagNames := make([]string, len(tags))
		for i, t := range tags {
			tagNames[i] = t.Name
		}
		if err := h.store.SaveTags(ctx, artist, tagNames); err != nil {
			return fmt.Errorf("saving tags for %q: %w", artist, err)
		}
		h.log.Debug().Str("artist", artist).Strs("tags", tagNames).Msg("saved tags")
	}
	return nil
}

func (h *Harvester) missing(ctx context.Context, names []string) ([]string, error) {
	saved, err := h.store.Artists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved artists: %w", err)
	}
	have := make(map[string]bool, len(saved))
	for _, a := range saved {
		have[a] = true
	}
	var missing []string
	for _, n := range names {
		if !have[n] {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

func uniqueNames(artists []Artist) []string {
	seen := make(map[string]bool, len(artists))
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name == "" || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		names = append(names, a.Name)
	}
	return names
}
