package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"artistnet/tagsim/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS artists (
	name       TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS artist_tags (
	artist   TEXT NOT NULL REFERENCES artists(name) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	tag      TEXT NOT NULL,
	PRIMARY KEY (artist, position)
);
CREATE TABLE IF NOT EXISTS similarities (
	partition TEXT NOT NULL,
	label_a   TEXT NOT NULL,
	label_b   TEXT NOT NULL,
	score     REAL NOT NULL,
	PRIMARY KEY (partition, label_a, label_b)
);
`

// SQLite stores tags and similarities in a SQLite database
type SQLite struct {
	conn *sql.DB
	Path string
}

// OpenSQLite opens (creating if needed) a SQLite database with WAL mode and
// foreign keys enabled, and applies the schema
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s, err := newSQLite(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.Path = path
	return s, nil
}

func newSQLite(conn *sql.DB) (*SQLite, error) {
	// One writer connection; also keeps ":memory:" databases on a single handle.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Artists returns all stored artist names in name order
func (s *SQLite) Artists(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT name FROM artists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Tags returns the tag list for artist in the order it was saved
func (s *SQLite) Tags(ctx context.Context, artist string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT tag FROM artist_tags WHERE artist = ? ORDER BY position
	`, artist)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SaveTags replaces the tag list for artist in one transaction
func (s *SQLite) SaveTags(ctx context.Context, artist string, tags []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO artists (name, fetched_at) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET fetched_at = excluded.fetched_at
	`, artist, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("saving artist %q: %w", artist, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artist_tags WHERE artist = ?`, artist); err != nil {
		return fmt.Errorf("clearing tags for %q: %w", artist, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO artist_tags (artist, position, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tag := range tags {
		if _, err := stmt.ExecContext(ctx, artist, i, tag); err != nil {
			return fmt.Errorf("saving tag %q for %q: %w", tag, artist, err)
		}
	}
	return tx.Commit()
}

// PutSimilarities upserts a batch of scores
func (s *SQLite) PutSimilarities(ctx context.Context, p graph.Partition, sims []graph.Similarity) error {
	if !p.Valid() {
		return graph.ErrInvalidPartition
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO similarities (partition, label_a, label_b, score) VALUES (?, ?, ?, ?)
		ON CONFLICT(partition, label_a, label_b) DO UPDATE SET score = excluded.score
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sim := range sims {
		a, b := canonicalPair(sim.A, sim.B)
		if _, err := stmt.ExecContext(ctx, p.String(), a, b, sim.Score); err != nil {
			return fmt.Errorf("saving similarity %s/%s: %w", a, b, err)
		}
	}
	return tx.Commit()
}

// Similarity looks up the stored score for the unordered pair (a, b)
func (s *SQLite) Similarity(ctx context.Context, p graph.Partition, a, b string) (float64, bool, error) {
	a, b = canonicalPair(a, b)
	var score float64
	err := s.conn.QueryRowContext(ctx, `
		SELECT score FROM similarities WHERE partition = ? AND label_a = ? AND label_b = ?
	`, p.String(), a, b).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// Clear deletes all tags and similarities
func (s *SQLite) Clear(ctx context.Context) error {
	for _, table := range []string{"artist_tags", "artists", "similarities"} {
		if _, err := s.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
