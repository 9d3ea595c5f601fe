// Package translate provides best-effort text translation. The primary
// provider is the free Google Translate endpoint; when a Gemini API key is
// configured, one Gemini attempt follows a primary failure. Translation never
// fails the pipeline: the worst case is the original text passed through.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	googleEndpoint = "https://translate.googleapis.com/translate_a/single"

	// Oversized payloads get rejected outright, so cap before submission.
	maxInputLen = 5000

	requestTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20

	geminiModel   = "gemini-1.5-flash"
	geminiTimeout = 20 * time.Second
)

// Turkish-specific runes; their presence means the text is already in the
// target script and translation can be skipped.
const turkishRunes = "ğüşıöçĞÜŞİÖÇ"

// Result is the tagged outcome of one translation. Degraded means the
// original text came back unchanged because every provider failed.
type Result struct {
	Text     string
	Provider string
	Degraded bool
	Reason   string
}

// Translator holds provider clients for the duration of the process.
type Translator struct {
	endpoint string
	client   *http.Client
	gemini   *genai.Client
}

// New builds a Translator. geminiAPIKey may be empty, which disables the
// Gemini fallback.
func New(geminiAPIKey string) *Translator {
	t := &Translator{
		endpoint: googleEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}

	if geminiAPIKey != "" {
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiAPIKey))
		if err != nil {
			slog.Warn("translate: gemini client unavailable, fallback disabled", "error", err)
		} else {
			t.gemini = client
		}
	}

	return t
}

// NewWithEndpoint builds a Translator against a custom primary endpoint.
// Used by tests to stand in a local server.
func NewWithEndpoint(endpoint string) *Translator {
	return &Translator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// Close releases provider clients.
func (t *Translator) Close() {
	if t.gemini != nil {
		t.gemini.Close()
	}
}

// NeedsTranslation reports whether text still has to be translated to
// Turkish. Texts already carrying Turkish-specific characters are skipped to
// save quota and avoid double-translation artifacts.
func NeedsTranslation(text string) bool {
	return text != "" && !strings.ContainsAny(text, turkishRunes)
}

// Translate translates text between the given language codes. Empty or
// whitespace-only input returns unchanged with zero network calls.
func (t *Translator) Translate(text, from, to string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: text, Provider: "none"}
	}

	// Rune-based cap; a byte slice could split a multibyte character and
	// send invalid UTF-8 to the provider.
	if runes := []rune(text); len(runes) > maxInputLen {
		text = string(runes[:maxInputLen])
	}

	translated, err := t.googleTranslate(text, from, to)
	if err == nil && translated != "" {
		return Result{Text: translated, Provider: "google"}
	}
	slog.Warn("translate: google endpoint failed", "from", from, "to", to, "error", err)

	if t.gemini != nil {
		translated, gerr := t.geminiTranslate(text, from, to)
		if gerr == nil && translated != "" {
			return Result{Text: translated, Provider: "gemini"}
		}
		slog.Warn("translate: gemini fallback failed", "from", from, "to", to, "error", gerr)
	}

	return Result{Text: text, Provider: "none", Degraded: true, Reason: fmt.Sprintf("all providers failed: %v", err)}
}

func (t *Translator) googleTranslate(text, from, to string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	resp, err := t.client.Get(t.endpoint + "?" + params.Encode())
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return parseGoogleResponse(body)
}

// parseGoogleResponse reassembles the translated text from the nested-array
// response: the first element holds [translated, original, ...] segment pairs.
func parseGoogleResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response")
	}

	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, segment := range segments {
		pair, ok := segment.([]interface{})
		if !ok || len(pair) == 0 {
			continue
		}
		if part, ok := pair[0].(string); ok {
			result.WriteString(part)
		}
	}

	return strings.TrimSpace(result.String()), nil
}

func (t *Translator) geminiTranslate(text, from, to string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), geminiTimeout)
	defer cancel()

	model := t.gemini.GenerativeModel(geminiModel)
	prompt := fmt.Sprintf("Translate the following text from %s to %s. Reply with the translation only, no commentary.\n\n%s", from, to, text)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates returned")
	}

	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}
