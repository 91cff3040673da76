package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/configs"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
)

const searchBody = `{
	"tracks": {
		"items": [
			{
				"id": "track-1",
				"name": "Track One",
				"artists": [{"name": "Artist A"}, {"name": "Artist B"}],
				"external_urls": {"spotify": "https://open.spotify.com/track/track-1"},
				"album": {"images": [{"url": "https://img.example/1-big"}, {"url": "https://img.example/1-small"}]}
			},
			{
				"id": "track-2",
				"name": "Track Two",
				"artists": [],
				"external_urls": {"spotify": "https://open.spotify.com/track/track-2"},
				"album": {"images": []}
			}
		]
	}
}`

// testProvider fakes the token and search endpoints and counts how often
// each is hit.
type testProvider struct {
	server      *httptest.Server
	tokenCalls  atomic.Int64
	searchCalls atomic.Int64

	mu           sync.Mutex
	expiresIn    int
	tokenDelay   time.Duration
	searchStatus int
	lastAuth     string
	lastQuery    string
	lastLimit    string
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()

	p := &testProvider{expiresIn: 3600, searchStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := p.tokenCalls.Add(1)

		p.mu.Lock()
		p.lastAuth = r.Header.Get("Authorization")
		expiresIn := p.expiresIn
		delay := p.tokenDelay
		p.mu.Unlock()

		time.Sleep(delay)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, expiresIn)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		p.searchCalls.Add(1)

		p.mu.Lock()
		p.lastQuery = r.URL.Query().Get("q")
		p.lastLimit = r.URL.Query().Get("limit")
		status := p.searchStatus
		p.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, searchBody)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testProvider) client() *Client {
	return NewClient(configs.CatalogConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     p.server.URL + "/token",
		SearchURL:    p.server.URL + "/search",
		Timeout:      5 * time.Second,
		SearchLimit:  5,
	}, logging.NewNopLogger())
}

func TestSearch_MapsTracks(t *testing.T) {
	provider := newTestProvider(t)
	client := provider.client()

	tracks, err := client.Search(context.Background(), "track one")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, domain.TrackCandidate{
		ID:           "track-1",
		Title:        "Track One",
		Artist:       "Artist A",
		Platform:     domain.PlatformSpotify,
		PlatformLink: "https://open.spotify.com/track/track-1",
		Thumbnail:    "https://img.example/1-big",
	}, tracks[0])

	// Missing artist and artwork fall back instead of failing the search.
	assert.Equal(t, "Unknown", tracks[1].Artist)
	assert.Empty(t, tracks[1].Thumbnail)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, "track one", provider.lastQuery)
	assert.Equal(t, "5", provider.lastLimit)

	basic := base64.StdEncoding.EncodeToString([]byte("id:secret"))
	assert.Equal(t, "Basic "+basic, provider.lastAuth)
}

func TestSearch_TokenIsCached(t *testing.T) {
	provider := newTestProvider(t)
	client := provider.client()

	_, err := client.Search(context.Background(), "first")
	require.NoError(t, err)
	_, err = client.Search(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, int64(1), provider.tokenCalls.Load())
	assert.Equal(t, int64(2), provider.searchCalls.Load())
}

func TestSearch_ExpiredTokenIsRefreshed(t *testing.T) {
	provider := newTestProvider(t)
	provider.expiresIn = 1 // within the renewal skew, so every search refreshes
	client := provider.client()

	_, err := client.Search(context.Background(), "first")
	require.NoError(t, err)
	_, err = client.Search(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, int64(2), provider.tokenCalls.Load())
}

func TestSearch_ConcurrentRefreshCollapses(t *testing.T) {
	provider := newTestProvider(t)
	// Slow token issuance keeps every caller inside the first flight.
	provider.tokenDelay = 50 * time.Millisecond
	client := provider.client()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Search(context.Background(), "query")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), provider.tokenCalls.Load())
}

func TestSearch_UpstreamFailure(t *testing.T) {
	provider := newTestProvider(t)
	provider.searchStatus = http.StatusInternalServerError
	client := provider.client()

	_, err := client.Search(context.Background(), "query")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestSearch_TokenEndpointFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(configs.CatalogConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/token",
		SearchURL:    server.URL + "/search",
	}, logging.NewNopLogger())

	_, err := client.Search(context.Background(), "query")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestSearch_EmptyResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"token","expires_in":3600}`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tracks":{"items":[]}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(configs.CatalogConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/token",
		SearchURL:    server.URL + "/search",
	}, logging.NewNopLogger())

	tracks, err := client.Search(context.Background(), "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}
