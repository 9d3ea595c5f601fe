// Package aggregate drives one aggregation run: authenticate, then for every
// enabled source fetch, parse, translate, resolve an image, dedup against the
// content API and publish. Failures are isolated at source and item level;
// only an authentication failure aborts a run.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/newsportal/aggregator/internal/images"
	"github.com/newsportal/aggregator/internal/newsapi"
	"github.com/newsportal/aggregator/internal/ratelimit"
	"github.com/newsportal/aggregator/internal/retry"
	"github.com/newsportal/aggregator/internal/slug"
	"github.com/newsportal/aggregator/internal/source"
	"github.com/newsportal/aggregator/internal/translate"
)

const (
	sourceLang = "en"
	targetLang = "tr"

	captionMaxRunes = 500
	summaryMaxRunes = 200

	// Bodies shorter than this are noise; the title serves as content.
	minContentLen = 50

	// Body text is capped before translation, like the title.
	contentTranslateMax = 2000

	articleType   = "Haber"
	defaultAuthor = "News Aggregator"
)

// The closed category set the content API understands. Free-form source
// categories are mapped into it before publish.
var validCategories = map[string]bool{
	"technology": true,
	"science":    true,
	"business":   true,
	"world":      true,
}

// ContentAPI is the write path to the content-management service.
type ContentAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	ExistsBySlug(ctx context.Context, slug, token string) bool
	Create(ctx context.Context, article newsapi.Article, token string) (string, error)
}

// Translator converts text between languages, best-effort.
type Translator interface {
	Translate(text, from, to string) translate.Result
}

// ImageResolver finds a cover image for an item.
type ImageResolver interface {
	Resolve(embeddedURL, title string) images.Result
}

// SourceSummary is the per-source slice of a RunSummary.
type SourceSummary struct {
	Name    string
	Fetched int
	Created int
}

// RunSummary aggregates the counters of one complete run.
type RunSummary struct {
	Fetched int
	Created int
	Skipped int

	SourceFailures       int
	DegradedTranslations int

	Sources  []SourceSummary
	Duration time.Duration
}

// Orchestrator owns one run at a time. It holds no state between runs; the
// content API is the only source of truth for what was already published.
type Orchestrator struct {
	sources  []source.Config
	fetchers map[source.Kind]source.FetchFunc

	api        ContentAPI
	translator Translator
	resolver   ImageResolver
	throttle   *ratelimit.Throttle

	username string
	password string

	client       *http.Client
	listingRetry retry.Config
	now          func() time.Time
}

func New(sources []source.Config, api ContentAPI, translator Translator, resolver ImageResolver, throttle *ratelimit.Throttle, username, password string) *Orchestrator {
	return &Orchestrator{
		sources:      sources,
		fetchers:     source.Fetchers(),
		api:          api,
		translator:   translator,
		resolver:     resolver,
		throttle:     throttle,
		username:     username,
		password:     password,
		client:       &http.Client{Timeout: 15 * time.Second},
		listingRetry: retry.Config{MaxAttempts: 2, Delay: 3 * time.Second, Backoff: true},
		now:          time.Now,
	}
}

// Run performs one complete aggregation pass. Only a login failure returns an
// error; every other failure is absorbed into the summary.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	started := o.now()
	slog.Info("starting news aggregation")

	token, err := o.api.Login(ctx, o.username, o.password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	slog.Info("authenticated")

	r := &run{o: o, ctx: ctx, token: token, summary: &RunSummary{}}

	for _, cfg := range o.sources {
		if !cfg.Enabled {
			slog.Info("skipping disabled source", "source", cfg.Name)
			continue
		}
		r.processSource(cfg)
	}

	r.summary.Skipped = r.summary.Fetched - r.summary.Created
	r.summary.Duration = o.now().Sub(started)

	slog.Info("aggregation complete",
		"fetched", r.summary.Fetched,
		"created", r.summary.Created,
		"skipped", r.summary.Skipped,
		"source_failures", r.summary.SourceFailures,
		"duration", r.summary.Duration)

	return r.summary, nil
}

// run is the state of one pass: the credential and the accumulating summary.
type run struct {
	o       *Orchestrator
	ctx     context.Context
	token   string
	summary *RunSummary
}

func (r *run) processSource(cfg source.Config) {
	slog.Info("processing source", "source", cfg.Name)

	fetch := r.o.fetchers[cfg.Parser]
	if fetch == nil {
		slog.Error("no parser for source", "source", cfg.Name, "parser", cfg.Parser)
		r.summary.SourceFailures++
		return
	}

	var items []source.RawItem
	err := retry.WithRetry(r.ctx, r.o.listingRetry, func() error {
		var ferr error
		items, ferr = fetch(r.o.client, cfg)
		return ferr
	})
	if err != nil {
		slog.Error("source fetch failed", "source", cfg.Name, "error", err)
		r.summary.SourceFailures++
		return
	}

	slog.Info("fetched items", "source", cfg.Name, "count", len(items))

	created := 0
	for i, item := range items {
		slog.Debug("processing item", "source", cfg.Name, "index", i+1, "total", len(items), "title", truncateRunes(item.Title, 60))
		if r.processItem(item) {
			created++
		}
	}

	r.summary.Fetched += len(items)
	r.summary.Created += created
	r.summary.Sources = append(r.summary.Sources, SourceSummary{
		Name:    cfg.Name,
		Fetched: len(items),
		Created: created,
	})

	slog.Info("source done", "source", cfg.Name, "created", created, "fetched", len(items))
}

// processItem runs the per-item pipeline. Returns true when an article was
// published. Any failure is isolated to this item.
func (r *run) processItem(item source.RawItem) bool {
	// Translation happens before slug derivation: the slug of the translated
	// title is the permanent identifier and the dedup key.
	title := item.Title
	if translate.NeedsTranslation(title) {
		res := r.o.translator.Translate(title, sourceLang, targetLang)
		r.o.throttle.Wait(ratelimit.Translate)
		if res.Degraded {
			r.summary.DegradedTranslations++
			slog.Warn("title translation degraded", "reason", res.Reason)
		}
		title = res.Text
	}

	id := slug.Make(title)
	if id == "" {
		slog.Warn("empty slug, dropping item", "title", truncateRunes(item.Title, 60))
		return false
	}

	if r.o.api.ExistsBySlug(r.ctx, id, r.token) {
		slog.Info("article already exists, skipping", "slug", id)
		return false
	}

	img := r.o.resolver.Resolve(item.ImageURL, item.Title)
	if img.Origin != images.OriginEmbedded {
		r.o.throttle.Wait(ratelimit.ImageSearch)
	}
	if img.URL == "" {
		slog.Warn("no image resolved, dropping item", "slug", id)
		return false
	}

	article := r.buildArticle(item, title, img.URL)

	externalID, err := r.publish(article)
	if err != nil {
		slog.Error("publish failed", "slug", id, "error", err)
		return false
	}

	slog.Info("article created", "slug", id, "id", externalID, "image_origin", img.Origin)
	return true
}

// publish submits the article, re-authenticating once when the credential
// has expired mid-run.
func (r *run) publish(article newsapi.Article) (string, error) {
	externalID, err := r.o.api.Create(r.ctx, article, r.token)
	r.o.throttle.Wait(ratelimit.Publish)
	if !errors.Is(err, newsapi.ErrUnauthorized) {
		return externalID, err
	}

	slog.Warn("credential rejected mid-run, re-authenticating")
	token, lerr := r.o.api.Login(r.ctx, r.o.username, r.o.password)
	if lerr != nil {
		return "", fmt.Errorf("re-authentication failed: %w", lerr)
	}
	r.token = token

	externalID, err = r.o.api.Create(r.ctx, article, r.token)
	r.o.throttle.Wait(ratelimit.Publish)
	return externalID, err
}

func (r *run) buildArticle(item source.RawItem, translatedTitle, imageURL string) newsapi.Article {
	category := mapCategory(item.Category)

	contentHTML := r.buildContent(item, translatedTitle)

	return newsapi.Article{
		Category:         category,
		Type:             articleType,
		Caption:          truncateRunes(translatedTitle, captionMaxRunes),
		Keywords:         fmt.Sprintf("%s, teknoloji, haber", category),
		SocialTags:       fmt.Sprintf("#%s #teknoloji", strings.ReplaceAll(category, " ", "")),
		Summary:          truncateRunes(translatedTitle, summaryMaxRunes),
		ImgAlt:           truncateRunes(translatedTitle, summaryMaxRunes),
		ImageURL:         imageURL,
		ThumbnailURL:     imageURL,
		Content:          contentHTML,
		Subjects:         []string{category},
		Authors:          []string{defaultAuthor},
		ExpressDate:      r.o.now().UTC().Format(time.RFC3339),
		Priority:         1,
		IsActive:         true,
		IsSecondPageNews: false,
	}
}

// buildContent renders the HTML body: the (translated) text when substantial,
// the title otherwise, always followed by the attribution link.
func (r *run) buildContent(item source.RawItem, translatedTitle string) string {
	var b strings.Builder

	if len(item.Content) > minContentLen {
		content := item.Content
		if translate.NeedsTranslation(item.Title) {
			res := r.o.translator.Translate(truncateRunes(content, contentTranslateMax), sourceLang, targetLang)
			r.o.throttle.Wait(ratelimit.Translate)
			if res.Degraded {
				r.summary.DegradedTranslations++
			}
			content = res.Text
		}
		b.WriteString("<p>" + content + "</p>")
	} else {
		b.WriteString("<p>" + translatedTitle + "</p>")
	}

	b.WriteString(fmt.Sprintf("<p><strong>Kaynak:</strong> <a href='%s' target='_blank'>Haberin devamını oku</a></p>", item.URL))
	return b.String()
}

// mapCategory folds free-form source categories into the closed set the
// content API understands.
func mapCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if validCategories[c] {
		return c
	}
	return "technology"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
