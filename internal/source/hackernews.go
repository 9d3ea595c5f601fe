package source

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type hnItem struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	URL     string `json:"url"`
	Score   int    `json:"score"`
	Type    string `json:"type"`
	Dead    bool   `json:"dead"`
	Deleted bool   `json:"deleted"`
}

// FetchHackerNews resolves the top-story ID list into individual item
// fetches, one HTTP call per ID, bounded by the configured limit. A failed
// item fetch skips that single item only.
func FetchHackerNews(client *http.Client, cfg Config) ([]RawItem, error) {
	req, err := buildRequest(cfg.URL+"/topstories.json", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackernews: fetch top stories: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "hackernews"); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("hackernews: read top stories: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("hackernews: unmarshal top stories: %w", err)
	}

	if limit := limitOf(cfg); len(ids) > limit {
		ids = ids[:limit]
	}

	itemClient := &http.Client{Timeout: itemTimeout}

	items := make([]RawItem, 0, len(ids))
	for _, id := range ids {
		item, ok := fetchHNStory(itemClient, cfg, id)
		if ok {
			items = append(items, item)
		}
		time.Sleep(itemFetchDelay)
	}

	return items, nil
}

func fetchHNStory(client *http.Client, cfg Config, id int) (RawItem, bool) {
	url := fmt.Sprintf("%s/item/%d.json", cfg.URL, id)
	resp, err := client.Get(url)
	if err != nil {
		slog.Warn("hackernews: item fetch failed", "id", id, "error", err)
		return RawItem{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("hackernews: item fetch failed", "id", id, "status", resp.StatusCode)
		return RawItem{}, false
	}

	var it hnItem
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&it); err != nil {
		slog.Warn("hackernews: item decode failed", "id", id, "error", err)
		return RawItem{}, false
	}

	return mapHNStory(it, cfg)
}

// mapHNStory filters out non-story and removed entries; an item with no URL
// falls back to its discussion page.
func mapHNStory(it hnItem, cfg Config) (RawItem, bool) {
	if it.Type != "story" || it.Dead || it.Deleted {
		return RawItem{}, false
	}

	itemURL := it.URL
	if itemURL == "" {
		itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
	}

	return RawItem{
		Title:    it.Title,
		Content:  it.Text,
		URL:      itemURL,
		Score:    it.Score,
		Category: cfg.Category,
	}, true
}
