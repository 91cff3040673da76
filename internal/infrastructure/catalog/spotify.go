package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/configs"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

// expirySkew renews the cached credential slightly early so in-flight
// searches never carry a token that expires mid-request.
const expirySkew = 30 * time.Second

// Client wraps the Spotify search API behind the client-credentials flow.
// The access token is cached until expiry; concurrent refreshes collapse
// into a single upstream request.
type Client struct {
	cfg    configs.CatalogConfig
	http   *http.Client
	logger logging.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   singleflight.Group
}

func NewClient(cfg configs.CatalogConfig, logger logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Search returns up to the configured number of track candidates for a
// free-text query. An empty result list is a valid success; any provider
// failure surfaces as ErrUpstreamUnavailable.
func (c *Client) Search(ctx context.Context, query string) ([]domain.TrackCandidate, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		return nil, err
	}

	limit := c.cfg.SearchLimit
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building search request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		c.logger.Warn(logging.Catalog, logging.ExternalService, "search returned non-200", map[logging.ExtraKey]any{
			logging.StatusCode: resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: search status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decoding search response: %v", domain.ErrUpstreamUnavailable, err)
	}

	candidates := make([]domain.TrackCandidate, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		artist := "Unknown"
		if len(item.Artists) > 0 {
			artist = item.Artists[0].Name
		}

		thumbnail := ""
		if len(item.Album.Images) > 0 {
			thumbnail = item.Album.Images[0].URL
		}

		candidates = append(candidates, domain.TrackCandidate{
			ID:           item.ID,
			Title:        item.Name,
			Artist:       artist,
			Platform:     domain.PlatformSpotify,
			PlatformLink: item.ExternalURLs.Spotify,
			Thumbnail:    thumbnail,
		})
	}

	metrics.CatalogSearches.WithLabelValues("ok").Inc()
	return candidates, nil
}

// accessToken returns the cached credential, refreshing it through a
// single in-flight request when expired or absent.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt.Add(-expirySkew)) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, err, _ := c.refresh.Do("token", func() (any, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: building token request: %v", domain.ErrUpstreamUnavailable, err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrUpstreamUnavailable)
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return body.AccessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
		} `json:"items"`
	} `json:"tracks"`
}
