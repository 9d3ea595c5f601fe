// Package source fetches raw items from the configured external feeds and
// normalizes them into a common shape. One parser per feed kind; all parsers
// degrade missing optional fields to safe defaults instead of failing.
package source

import (
	"fmt"
	"net/http"
	"time"
)

// Kind selects which parser a source uses. Closed set, validated at load time.
type Kind string

const (
	KindReddit     Kind = "reddit"
	KindHackerNews Kind = "hackernews"
	KindGitHub     Kind = "github"
	KindRSS        Kind = "rss"
)

// ValidKind reports whether k names a known parser.
func ValidKind(k Kind) bool {
	switch k {
	case KindReddit, KindHackerNews, KindGitHub, KindRSS:
		return true
	}
	return false
}

// Config describes one external feed. Loaded once at startup, immutable after.
type Config struct {
	Name     string            `yaml:"name"`
	Enabled  bool              `yaml:"enabled"`
	URL      string            `yaml:"url"`
	Params   map[string]string `yaml:"params"`
	Category string            `yaml:"category"`
	Parser   Kind              `yaml:"parser"`
	Limit    int               `yaml:"limit"`
}

// RawItem is the parser output before translation, image resolution and slug
// assignment. Not persisted anywhere.
type RawItem struct {
	Title    string
	Content  string
	URL      string
	ImageURL string
	Score    int
	Category string
}

const (
	userAgent = "NewsPortal/1.0"

	listingTimeout = 15 * time.Second
	itemTimeout    = 5 * time.Second

	// Delay between the per-ID item fetches of the HackerNews tree.
	itemFetchDelay = 200 * time.Millisecond

	defaultLimit = 15

	maxResponseBytes = 4 << 20
)

// FetchFunc fetches and parses one source.
type FetchFunc func(client *http.Client, cfg Config) ([]RawItem, error)

// Fetchers returns the parser dispatch table. Selection happens here, by the
// declared kind, never by inspecting payloads.
func Fetchers() map[Kind]FetchFunc {
	return map[Kind]FetchFunc{
		KindReddit:     FetchReddit,
		KindHackerNews: FetchHackerNews,
		KindGitHub:     FetchGitHub,
		KindRSS:        FetchRSS,
	}
}

func limitOf(cfg Config) int {
	if cfg.Limit > 0 {
		return cfg.Limit
	}
	return defaultLimit
}

func buildRequest(url string, params map[string]string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func checkStatus(resp *http.Response, what string) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode)
	}
	return nil
}
