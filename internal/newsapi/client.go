// Package newsapi is the HTTP client for the content-management API: token
// acquisition, existence lookup by slug, and article submission.
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/newsportal/aggregator/internal/retry"
)

// ErrUnauthorized marks an auth-expiry-shaped publish failure; the caller may
// re-authenticate once and retry.
var ErrUnauthorized = errors.New("newsapi: unauthorized")

const (
	requestTimeout   = 15 * time.Second
	maxResponseBytes = 1 << 20
)

// Article is the JSON payload accepted by POST /NewsArticle.
type Article struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Caption          string   `json:"caption"`
	Keywords         string   `json:"keywords"`
	SocialTags       string   `json:"socialTags"`
	Summary          string   `json:"summary"`
	ImgPath          string   `json:"imgPath"`
	ImgAlt           string   `json:"imgAlt"`
	ImageURL         string   `json:"imageUrl"`
	ThumbnailURL     string   `json:"thumbnailUrl"`
	Content          string   `json:"content"`
	Subjects         []string `json:"subjects"`
	Authors          []string `json:"authors"`
	ExpressDate      string   `json:"expressDate"`
	Priority         int      `json:"priority"`
	IsActive         bool     `json:"isActive"`
	IsSecondPageNews bool     `json:"isSecondPageNews"`
}

type Client struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		retry:   retry.Config{MaxAttempts: 2, Delay: 2 * time.Second, Backoff: true},
	}
}

// Login obtains a bearer token. Failure here is fatal for the run.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("login: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("login: decode: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("login: empty token in response")
	}

	return out.Token, nil
}

// ExistsBySlug checks whether an article with the given slug is already
// published. A transport error deliberately reads as "does not exist": a
// possible duplicate beats silently dropping new content on a network blip.
func (c *Client) ExistsBySlug(ctx context.Context, slug, token string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/NewsArticle/by-slug", nil)
	if err != nil {
		return false
	}
	q := req.URL.Query()
	q.Set("slug", slug)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("newsapi: slug lookup failed, assuming new", "slug", slug, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Create submits one article. Transport errors are retried with backoff; an
// HTTP error status is not (it would just repeat). Returns the external id.
func (c *Client) Create(ctx context.Context, article Article, token string) (string, error) {
	payload, err := json.Marshal(article)
	if err != nil {
		return "", fmt.Errorf("create: marshal: %w", err)
	}

	var (
		id      string
		permErr error
	)

	err = retry.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/NewsArticle", bytes.NewReader(payload))
		if err != nil {
			permErr = fmt.Errorf("create: %w", err)
			return nil
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			permErr = ErrUnauthorized
			return nil
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			permErr = fmt.Errorf("create: status %d: %s", resp.StatusCode, string(body))
			return nil
		}

		var out struct {
			ID any `json:"id"`
		}
		if err := json.Unmarshal(body, &out); err == nil && out.ID != nil {
			id = fmt.Sprint(out.ID)
		}
		permErr = nil
		return nil
	})
	if err != nil {
		return "", err
	}
	if permErr != nil {
		return "", permErr
	}

	return id, nil
}
