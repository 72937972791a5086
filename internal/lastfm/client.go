// Package lastfm fetches chart artists and their top tags from the Last.fm
// web API and harvests them into a tag store.
package lastfm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"artistnet/tagsim/internal/logging"
)

// APIError is an error reported by Last.fm in the response body.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
}

// HTTPError is a non-2xx response without a Last.fm error body.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("last.fm http %d: %s", e.StatusCode, e.Body)
}

// Artist is one entry of the top artists chart.
type Artist struct {
	Name      string `json:"name"`
	MBID      string `json:"mbid"`
	Playcount string `json:"playcount"`
	Listeners string `json:"listeners"`
	URL       string `json:"url"`
}

// Tag is one of an artist's top tags.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// oneOrMany decodes a Last.fm list field, which holds a bare object instead
// of an array when there is exactly one entry.
type oneOrMany[T any] []T

func (l *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = oneOrMany[T]{v}
		return nil
	}
	var vs []T
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*l = vs
	return nil
}

type topArtistsResponse struct {
	Artists struct {
		Artist oneOrMany[Artist] `json:"artist"`
	} `json:"artists"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag oneOrMany[Tag] `json:"tag"`
	} `json:"toptags"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	// RequestInterval is the minimum gap between requests; 0 disables pacing.
	RequestInterval time.Duration
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// Client calls the Last.fm API. Requests are paced by a rate limiter and
// guarded by a circuit breaker that opens after repeated transport or 5xx
// failures. Last.fm error bodies do not count as breaker failures.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewClient returns a Client for cfg.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}

	log := logging.Component("lastfm")
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "lastfm-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			var httpErr *HTTPError
			switch {
			case err == nil, errors.As(err, &apiErr):
				return true
			case errors.As(err, &httpErr):
				return httpErr.StatusCode < 500
			default:
				return false
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		cb:      cb,
	}
}

func (c *Client) call(ctx context.Context, params url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, params)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decoding %s response: %w", params.Get("method"), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// Last.fm reports errors as {"error": N, "message": "..."}, sometimes with 200.
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return nil, &apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// TopArtists returns up to limit artists from chart.gettopartists.
func (c *Client) TopArtists(ctx context.Context, limit int) ([]Artist, error) {
	params := url.Values{}
	params.Set("method", "chart.gettopartists")
	params.Set("limit", strconv.Itoa(limit))

	var resp topArtistsResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}
	artists := []Artist(resp.Artists.Artist)
	if len(artists) > limit {
		artists = artists[:limit]
	}
	return artists, nil
}

// TopTags returns the artist's tags from artist.gettoptags, most used first.
func (c *Client) TopTags(ctx context.Context, artist string) ([]Tag, error) {
	params := url.Values{}
	params.Set("method", "artist.gettoptags")
	params.Set("artist", artist)

	var resp topTagsResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching tags for %q: %w", artist, err)
	}
	return []Tag(resp.TopTags.Tag), nil
}
