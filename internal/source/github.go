package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type githubSearchResult struct {
	Items []struct {
		FullName    string `json:"full_name"`
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
		Language    string `json:"language"`
		Stars       int    `json:"stargazers_count"`
	} `json:"items"`
}

// FetchGitHub queries the repository search endpoint for repos created in the
// last week, sorted by stars.
func FetchGitHub(client *http.Client, cfg Config) ([]RawItem, error) {
	params := map[string]string{
		"q": "created:>=" + time.Now().AddDate(0, 0, -7).Format("2006-01-02"),
	}
	for k, v := range cfg.Params {
		params[k] = v
	}

	req, err := buildRequest(cfg.URL, params, map[string]string{"Accept": "application/vnd.github.v3+json"})
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: search: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "github"); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("github: read body: %w", err)
	}

	return ParseGitHubSearch(body, cfg)
}

// ParseGitHubSearch maps repository search results to synthetic headlines.
// No repository carries an image; the resolver fills one in later.
func ParseGitHubSearch(payload []byte, cfg Config) ([]RawItem, error) {
	var result githubSearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("github: unmarshal search result: %w", err)
	}

	limit := limitOf(cfg)
	if len(result.Items) > limit {
		result.Items = result.Items[:limit]
	}

	items := make([]RawItem, 0, len(result.Items))
	for _, repo := range result.Items {
		language := repo.Language
		if language == "" {
			language = "Unknown"
		}

		content := repo.Description
		if content == "" {
			content = "Popüler GitHub projesi"
		}

		items = append(items, RawItem{
			Title:    fmt.Sprintf("%s - %s projesi (%s yıldız)", repo.FullName, language, formatStars(repo.Stars)),
			Content:  content,
			URL:      repo.HTMLURL,
			Score:    repo.Stars,
			Category: cfg.Category,
		})
	}

	return items, nil
}

// formatStars renders a star count with thousands separators, 12345 -> "12,345".
func formatStars(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
