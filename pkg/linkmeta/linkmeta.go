// Package linkmeta resolves display titles for external attachment links.
package linkmeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	KindYouTube = "youtube"
	KindVimeo   = "vimeo"
	KindDrive   = "drive"
	KindLink    = "link"
)

// ErrNoTitle is returned when a provider answered without a usable title.
var ErrNoTitle = errors.New("link has no title")

// Endpoints lists the oEmbed endpoints per provider kind.
type Endpoints map[string]string

// DefaultEndpoints are the public oEmbed endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		KindYouTube: "https://www.youtube.com/oembed",
		KindVimeo:   "https://vimeo.com/api/oembed.json",
	}
}

// Fetcher looks up link titles with a bounded timeout.
type Fetcher struct {
	client    *http.Client
	endpoints Endpoints
	logger    zerolog.Logger
}

// New constructs a fetcher. endpoints may be nil to use the public providers.
func New(timeout time.Duration, endpoints Endpoints, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if endpoints == nil {
		endpoints = DefaultEndpoints()
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
		logger:    logger.With().Str("component", "linkmeta").Logger(),
	}
}

// Classify derives the attachment type of a link from its host.
func (f *Fetcher) Classify(rawURL string) string {
	return Classify(rawURL)
}

// Classify derives the attachment type of a link from its host.
func Classify(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return KindLink
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch {
	case host == "youtu.be", host == "youtube.com", strings.HasSuffix(host, ".youtube.com"):
		return KindYouTube
	case host == "vimeo.com", strings.HasSuffix(host, ".vimeo.com"):
		return KindVimeo
	case host == "drive.google.com", host == "docs.google.com":
		return KindDrive
	default:
		return KindLink
	}
}

type oembedResponse struct {
	Title string `json:"title"`
}

// Title returns the provider title for video links and the host name for
// everything else.
func (f *Fetcher) Title(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("parse link: %w", errors.Join(err, ErrNoTitle))
	}

	endpoint, ok := f.endpoints[Classify(rawURL)]
	if !ok {
		return strings.TrimPrefix(parsed.Hostname(), "www."), nil
	}

	query := url.Values{}
	query.Set("url", rawURL)
	query.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build oembed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oembed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Debug().Int("status", resp.StatusCode).Str("url", rawURL).Msg("oembed lookup rejected")
		return "", fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode oembed: %w", err)
	}
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}
