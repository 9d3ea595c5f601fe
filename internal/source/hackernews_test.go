package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchHackerNewsFiltersNonStories(t *testing.T) {
	items := map[int]string{
		1: `{"id":1,"type":"story","title":"A real story","url":"https://example.com/story","score":99}`,
		2: `{"id":2,"type":"story","title":"A dead story","dead":true}`,
		3: `{"id":3,"type":"comment","title":"A comment","text":"nope"}`,
		4: `{"id":4,"type":"story","title":"Ask HN: no url","text":"question body","score":5}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1,2,3,4,5]`)
			return
		}
		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/item/%d.json", &id); err != nil {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		body, ok := items[id]
		if !ok {
			// Item 5: a per-item fetch failure must skip that item only.
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	cfg := Config{Name: "hackernews", URL: srv.URL, Category: "technology", Parser: KindHackerNews, Limit: 5}
	client := &http.Client{Timeout: 5 * time.Second}

	got, err := FetchHackerNews(client, cfg)
	if err != nil {
		t.Fatalf("FetchHackerNews: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d items, want 2 (dead, comment and failed fetch excluded): %+v", len(got), got)
	}

	if got[0].Title != "A real story" || got[0].URL != "https://example.com/story" || got[0].Score != 99 {
		t.Errorf("unexpected first item: %+v", got[0])
	}
	if got[0].Content != "" {
		t.Errorf("absent item text must map to empty body, got %q", got[0].Content)
	}

	// Story without a URL falls back to its discussion page.
	if got[1].URL != "https://news.ycombinator.com/item?id=4" {
		t.Errorf("missing url fallback = %q", got[1].URL)
	}
	if got[1].Content != "question body" {
		t.Errorf("item text should become the body, got %q", got[1].Content)
	}
}

func TestFetchHackerNewsLimit(t *testing.T) {
	var itemCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1,2,3,4,5,6,7,8,9,10]`)
			return
		}
		itemCalls++
		fmt.Fprint(w, `{"id":1,"type":"story","title":"t","url":"https://e.com"}`)
	}))
	defer srv.Close()

	cfg := Config{Name: "hackernews", URL: srv.URL, Category: "technology", Limit: 3}
	if _, err := FetchHackerNews(&http.Client{Timeout: 5 * time.Second}, cfg); err != nil {
		t.Fatalf("FetchHackerNews: %v", err)
	}
	if itemCalls != 3 {
		t.Errorf("item fetches = %d, want the configured limit 3", itemCalls)
	}
}

func TestFetchHackerNewsListingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := Config{Name: "hackernews", URL: srv.URL}
	if _, err := FetchHackerNews(&http.Client{Timeout: 5 * time.Second}, cfg); err == nil {
		t.Error("expected error when the top-stories listing fails")
	}
}
