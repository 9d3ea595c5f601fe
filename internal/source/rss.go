package source

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Boundary matchers. This is deliberately not a full XML parser: feeds in the
// wild ship broken escaping all the time, and one malformed item must never
// take down the rest of the feed.
var (
	itemRe  = regexp.MustCompile(`(?s)<item(?:\s[^>]*)?>(.*?)</item>`)
	titleRe = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	linkRe  = regexp.MustCompile(`(?s)<link>(.*?)</link>`)
	descRe  = regexp.MustCompile(`(?s)<description>(.*?)</description>`)
	cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
)

const rssDescriptionMax = 500

// FetchRSS downloads a feed and parses its items.
func FetchRSS(client *http.Client, cfg Config) ([]RawItem, error) {
	req, err := buildRequest(cfg.URL, nil, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", cfg.Name, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", cfg.Name, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "rss "+cfg.Name); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("rss %s: read body: %w", cfg.Name, err)
	}

	return ParseFeedXML(string(body), cfg)
}

// ParseFeedXML extracts <item> blocks by boundary matching. Items missing
// both title and link are discarded. A payload with no <item> blocks at all
// is handed to gofeed as a last chance (Atom feeds, unusual namespaces).
func ParseFeedXML(xmlContent string, cfg Config) ([]RawItem, error) {
	blocks := itemRe.FindAllStringSubmatch(xmlContent, -1)
	if len(blocks) == 0 {
		return parseWithGofeed(xmlContent, cfg)
	}

	limit := limitOf(cfg)
	items := make([]RawItem, 0, limit)

	for _, block := range blocks {
		if len(items) >= limit {
			break
		}

		raw := block[1]

		title := stripCDATA(firstMatch(titleRe, raw))
		link := strings.TrimSpace(firstMatch(linkRe, raw))
		if title == "" || link == "" {
			continue
		}

		description := stripMarkup(stripCDATA(firstMatch(descRe, raw)))
		if description == "" {
			description = title
		}
		description = truncateDescription(description)

		items = append(items, RawItem{
			Title:    title,
			Content:  description,
			URL:      link,
			ImageURL: firstEmbeddedImage(raw),
			Category: cfg.Category,
		})
	}

	return items, nil
}

func parseWithGofeed(xmlContent string, cfg Config) ([]RawItem, error) {
	feed, err := gofeed.NewParser().ParseString(xmlContent)
	if err != nil {
		return nil, fmt.Errorf("rss %s: no <item> blocks and gofeed parse failed: %w", cfg.Name, err)
	}
	slog.Debug("rss: boundary matching found nothing, gofeed fallback used", "source", cfg.Name)

	limit := limitOf(cfg)
	items := make([]RawItem, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		description := stripMarkup(entry.Description)
		if description == "" {
			description = entry.Title
		}
		description = truncateDescription(description)

		imageURL := ""
		if entry.Image != nil {
			imageURL = entry.Image.URL
		}

		items = append(items, RawItem{
			Title:    entry.Title,
			Content:  description,
			URL:      entry.Link,
			ImageURL: imageURL,
			Category: cfg.Category,
		})
	}

	return items, nil
}

// truncateDescription caps a description by rune count. Turkish feeds are
// full of multibyte characters; cutting on a byte boundary would leave
// invalid UTF-8 in the published content.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= rssDescriptionMax {
		return s
	}
	return string(runes[:rssDescriptionMax])
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func stripCDATA(s string) string {
	return strings.TrimSpace(cdataRe.ReplaceAllString(s, "$1"))
}

// stripMarkup flattens residual HTML in a description down to its text.
func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

// firstEmbeddedImage pulls the first <img src> out of an item block, usually
// hiding inside content:encoded CDATA.
func firstEmbeddedImage(block string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(stripCDATA(block)))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}
