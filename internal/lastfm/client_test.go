package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topArtistsBody = `{"artists":{"artist":[
	{"name":"Taylor Swift","playcount":"100","listeners":"10","mbid":"","url":"https://www.last.fm/music/Taylor+Swift"},
	{"name":"Low","playcount":"50","listeners":"5","mbid":"","url":"https://www.last.fm/music/Low"}
],"@attr":{"page":"1","perPage":"2","totalPages":"1","total":"2"}}}`

const topTagsBody = `{"toptags":{"tag":[
	{"count":100,"name":"slowcore","url":"https://www.last.fm/tag/slowcore"},
	{"count":61,"name":"indie","url":"https://www.last.fm/tag/indie"}
],"@attr":{"artist":"Low"}}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL + "/2.0/", APIKey: "test-key"})
}

func TestClient_TopArtists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "chart.gettopartists", q.Get("method"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "2", q.Get("limit"))
		w.Write([]byte(topArtistsBody))
	})

	artists, err := c.TopArtists(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, artists, 2)
	assert.Equal(t, "Taylor Swift", artists[0].Name)
	assert.Equal(t, "Low", artists[1].Name)
}

func TestClient_TopArtistsTruncates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(topArtistsBody))
	})
	artists, err := c.TopArtists(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, artists, 1)
}

func TestClient_TopTags(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "artist.gettoptags", q.Get("method"))
		assert.Equal(t, "Low", q.Get("artist"))
		w.Write([]byte(topTagsBody))
	})

	tags, err := c.TopTags(context.Background(), "Low")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "slowcore", tags[0].Name)
	assert.Equal(t, 100, tags[0].Count)
}

func TestClient_TopTagsListShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"single object", `{"toptags":{"tag":{"count":100,"name":"slowcore","url":""},"@attr":{"artist":"Low"}}}`, []string{"slowcore"}},
		{"empty array", `{"toptags":{"tag":[],"@attr":{"artist":"Low"}}}`, nil},
		{"no tag field", `{"toptags":{"#text":"\n","@attr":{"artist":"Low"}}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			tags, err := c.TopTags(context.Background(), "Low")
			require.NoError(t, err)
			var names []string
			for _, tag := range tags {
				names = append(names, tag.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestClient_TopArtistsSingleObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artists":{"artist":{"name":"Low","playcount":"50","listeners":"5","mbid":"","url":""}}}`))
	})
	artists, err := c.TopArtists(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "Low", artists[0].Name)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":6,"message":"The artist you supplied could not be found"}`))
	})

	_, err := c.TopTags(context.Background(), "Nobody")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 6, apiErr.Code)
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.TopArtists(context.Background(), 5)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestClient_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	_, err := c.TopTags(context.Background(), "Low")
	assert.ErrorContains(t, err, "decoding artist.gettoptags response")
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := c.TopTags(ctx, "Low")
		require.Error(t, err)
	}
	_, err := c.TopTags(ctx, "Low")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "expected open breaker, got %v", err)
	assert.EqualValues(t, 5, hits.Load(), "open breaker must not reach the server")
}

func TestClient_APIErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":6,"message":"not found"}`))
	})
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err := c.TopTags(ctx, "Nobody")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
}

func TestClient_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(topTagsBody))
	}))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", RequestInterval: time.Hour})

	_, err := c.TopTags(context.Background(), "Low")
	require.NoError(t, err, "first request uses the initial burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.TopTags(ctx, "Low")
	assert.Error(t, err, "second request must wait for the limiter and hit the deadline")
}
