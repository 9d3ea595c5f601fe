package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Hosts whose URLs point directly at an image file. Anything else is left for
// the image resolver to handle later.
var directImageHosts = []string{"i.redd.it", "i.imgur.com"}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				URL       string `json:"url"`
				Permalink string `json:"permalink"`
				Score     int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchReddit downloads a subreddit top listing and parses it.
func FetchReddit(client *http.Client, cfg Config) ([]RawItem, error) {
	req, err := buildRequest(cfg.URL, cfg.Params, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("reddit %s: %w", cfg.Name, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit %s: %w", cfg.Name, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "reddit "+cfg.Name); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reddit %s: read body: %w", cfg.Name, err)
	}

	return ParseRedditListing(body, cfg)
}

// ParseRedditListing walks the nested listing structure. A post URL counts as
// the item image only when it points at a known direct-image host.
func ParseRedditListing(payload []byte, cfg Config) ([]RawItem, error) {
	var listing redditListing
	if err := json.Unmarshal(payload, &listing); err != nil {
		return nil, fmt.Errorf("reddit %s: unmarshal listing: %w", cfg.Name, err)
	}

	limit := limitOf(cfg)
	items := make([]RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if len(items) >= limit {
			break
		}
		post := child.Data

		imageURL := ""
		if post.URL != "" && isDirectImageURL(post.URL) {
			imageURL = post.URL
		}

		items = append(items, RawItem{
			Title:    post.Title,
			Content:  post.Selftext,
			URL:      "https://reddit.com" + post.Permalink,
			ImageURL: imageURL,
			Score:    post.Score,
			Category: cfg.Category,
		})
	}

	return items, nil
}

func isDirectImageURL(u string) bool {
	for _, host := range directImageHosts {
		if strings.Contains(u, host) {
			return true
		}
	}
	return false
}
