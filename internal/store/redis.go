package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"artistnet/tagsim/internal/graph"
)

// Key prefixes. Tag lists live in one Redis list per artist; similarities in
// one hash per partition whose fields are "a\x1fb" with a < b.
const (
	ArtistPrefix     = "artist-"
	artistSimKey     = "artistsim"
	tagSimKey        = "tagsim"
	pairSeparator    = "\x1f"
	scanBatch        = 500
	redisPingTimeout = 5 * time.Second
)

// Redis stores tags and similarities in a Redis database.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Artists returns every artist with a stored tag list, sorted by name.
func (r *Redis) Artists(ctx context.Context) ([]string, error) {
	keys, err := r.scanKeys(ctx, ArtistPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scanning artist keys: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, ArtistPrefix))
	}
	sort.Strings(names)
	return names, nil
}

func (r *Redis) Tags(ctx context.Context, artist string) ([]string, error) {
	tags, err := r.client.LRange(ctx, ArtistPrefix+artist, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return tags, err
}

// SaveTags replaces the artist's list atomically. An empty tag list leaves no
// key behind, so the artist reads as not fetched.
func (r *Redis) SaveTags(ctx context.Context, artist string, tags []string) error {
	key := ArtistPrefix + artist
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(tags) > 0 {
			vals := make([]any, len(tags))
			for i, t := range tags {
				vals[i] = t
			}
			pipe.RPush(ctx, key, vals...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving tags for %q: %w", artist, err)
	}
	return nil
}

func simKey(p graph.Partition) (string, error) {
	switch p {
	case graph.Artist:
		return artistSimKey, nil
	case graph.Tag:
		return tagSimKey, nil
	default:
		return "", graph.ErrInvalidPartition
	}
}

func pairField(a, b string) string {
	a, b = canonicalPair(a, b)
	return a + pairSeparator + b
}

func (r *Redis) PutSimilarities(ctx context.Context, p graph.Partition, sims []graph.Similarity) error {
	key, err := simKey(p)
	if err != nil {
		return err
	}
	if len(sims) == 0 {
		return nil
	}
	fields := make(map[string]any, len(sims))
	for _, s := range sims {
		fields[pairField(s.A, s.B)] = strconv.FormatFloat(s.Score, 'g', -1, 64)
	}
	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("saving %d %s similarities: %w", len(sims), p, err)
	}
	return nil
}

func (r *Redis) Similarity(ctx context.Context, p graph.Partition, a, b string) (float64, bool, error) {
	key, err := simKey(p)
	if err != nil {
		return 0, false, err
	}
	score, err := r.client.HGet(ctx, key, pairField(a, b)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// Clear deletes the keys this store owns; other keys in the database are untouched.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.scanKeys(ctx, ArtistPrefix+"*")
	if err != nil {
		return fmt.Errorf("scanning artist keys: %w", err)
	}
	keys = append(keys, artistSimKey, tagSimKey)
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("deleting keys: %w", err)
		}
	}
	return nil
}
