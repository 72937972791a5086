// Package export writes tag lists and similarity triples to CSV and streams
// similarities into a similarity store.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"artistnet/tagsim/internal/graph"
	"artistnet/tagsim/internal/store"
)

// DefaultBatchSize is how many triples SaveSimilarities writes per store call.
const DefaultBatchSize = 1000

// FormatScore renders a score with 8 decimal places.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 8, 64)
}

// SimilarityWriter writes "labelA,labelB,score" CSV rows. The first write
// error is sticky and reported by Flush.
type SimilarityWriter struct {
	cw   *csv.Writer
	rows int
	err  error
}

// NewSimilarityWriter returns a SimilarityWriter on w.
func NewSimilarityWriter(w io.Writer) *SimilarityWriter {
	return &SimilarityWriter{cw: csv.NewWriter(w)}
}

// Write appends one row.
func (sw *SimilarityWriter) Write(s graph.Similarity) error {
	if sw.err != nil {
		return sw.err
	}
	if err := sw.cw.Write([]string{s.A, s.B, FormatScore(s.Score)}); err != nil {
		sw.err = fmt.Errorf("writing row %d: %w", sw.rows+1, err)
		return sw.err
	}
	sw.rows++
	return nil
}

// Rows returns the number of rows written so far.
func (sw *SimilarityWriter) Rows() int { return sw.rows }

// Flush flushes buffered rows and returns the first error seen.
func (sw *SimilarityWriter) Flush() error {
	sw.cw.Flush()
	if sw.err != nil {
		return sw.err
	}
	return sw.cw.Error()
}

// Through returns seq with every triple written as a row before it is passed
// on, so one pass over seq can feed both a CSV file and a store. A write
// error ends the sequence.
func (sw *SimilarityWriter) Through(seq iter.Seq[graph.Similarity]) iter.Seq[graph.Similarity] {
	return func(yield func(graph.Similarity) bool) {
		for s := range seq {
			if sw.Write(s) != nil || !yield(s) {
				return
			}
		}
	}
}

// WriteSimilarities writes one row per triple. It stops pulling from seq
// after limit rows; limit <= 0 means no limit. Returns the number of rows
// written.
func WriteSimilarities(w io.Writer, seq iter.Seq[graph.Similarity], limit int) (int, error) {
	sw := NewSimilarityWriter(w)
	for s := range seq {
		if err := sw.Write(s); err != nil {
			return sw.Rows(), err
		}
		if limit > 0 && sw.Rows() >= limit {
			break
		}
	}
	return sw.Rows(), sw.Flush()
}

// WriteArtistTags writes a header row "artist,tags" followed by one row per
// artist with its tags joined by ";".
func WriteArtistTags(ctx context.Context, w io.Writer, src graph.TagSource) (int, error) {
	artists, err := src.Artists(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing artists: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"artist", "tags"}); err != nil {
		return 0, err
	}
	for i, artist := range artists {
		tags, err := src.Tags(ctx, artist)
		if err != nil {
			return i, fmt.Errorf("reading tags for %q: %w", artist, err)
		}
		if err := cw.Write([]string{artist, strings.Join(tags, ";")}); err != nil {
			return i, err
		}
	}
	cw.Flush()
	return len(artists), cw.Error()
}

// SaveSimilarities streams seq into sink in batches of batchSize (<= 0 uses
// DefaultBatchSize) and returns the number of triples stored.
func SaveSimilarities(ctx context.Context, sink store.SimilarityStore, p graph.Partition, seq iter.Seq[graph.Similarity], batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batch := make([]graph.Similarity, 0, batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.PutSimilarities(ctx, p, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for s := range seq {
		batch = append(batch, s)
		if len(batch) < batchSize {
			continue
		}
		if err := flush(); err != nil {
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
