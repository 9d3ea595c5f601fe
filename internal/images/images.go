// Package images resolves a cover image for every article through an ordered
// fallback chain: embedded URL, Unsplash keyword search, static placeholder.
// The chain cannot fail; the placeholder is always available.
package images

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Placeholder is the terminal fallback, a generic technology photo.
const Placeholder = "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?w=800&auto=format&fit=crop"

const (
	unsplashEndpoint = "https://api.unsplash.com/search/photos"

	requestTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20

	// Unsplash matches best on short queries; keep the first few words only.
	queryWords = 3
)

// \w would be ASCII-only and strip Turkish letters from the query.
var punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Origin tags where a resolved image came from.
type Origin string

const (
	OriginEmbedded    Origin = "embedded"
	OriginSearch      Origin = "search"
	OriginPlaceholder Origin = "placeholder"
)

// Result is the tagged outcome of one resolution. URL is never empty.
type Result struct {
	URL    string
	Origin Origin
}

// Resolver queries the image-search provider.
type Resolver struct {
	endpoint  string
	accessKey string
	client    *http.Client
}

func New(accessKey string) *Resolver {
	return &Resolver{
		endpoint:  unsplashEndpoint,
		accessKey: accessKey,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// NewWithEndpoint points the resolver at a custom search endpoint (tests).
func NewWithEndpoint(endpoint, accessKey string) *Resolver {
	r := New(accessKey)
	r.endpoint = endpoint
	return r
}

// Resolve returns an image for the item. embeddedURL short-circuits the
// chain; otherwise the original title drives a keyword search, and provider
// failure of any shape falls through to the placeholder.
func (r *Resolver) Resolve(embeddedURL, title string) Result {
	if embeddedURL != "" {
		return Result{URL: embeddedURL, Origin: OriginEmbedded}
	}

	if found := r.search(title); found != "" {
		return Result{URL: found, Origin: OriginSearch}
	}

	return Result{URL: Placeholder, Origin: OriginPlaceholder}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (r *Resolver) search(title string) string {
	query := searchQuery(title)
	if query == "" {
		return ""
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")
	params.Set("client_id", r.accessKey)

	resp, err := r.client.Get(r.endpoint + "?" + params.Encode())
	if err != nil {
		slog.Warn("images: search request failed", "query", query, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("images: search returned non-200", "query", query, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		slog.Warn("images: search read failed", "query", query, "error", err)
		return ""
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Warn("images: search decode failed", "query", query, "error", err)
		return ""
	}

	if len(result.Results) == 0 {
		return ""
	}
	return result.Results[0].URLs.Regular
}

// searchQuery cleans the title down to its first words.
func searchQuery(title string) string {
	cleaned := punctRe.ReplaceAllString(title, "")
	words := strings.Fields(cleaned)
	if len(words) > queryWords {
		words = words[:queryWords]
	}
	return strings.Join(words, " ")
}
