package translate

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

// gtx responses are a nested array; the first element holds
// [translated, original, ...] segment pairs.
const gtxFixture = `[[["Merhaba dünya","Hello world",null,null,10],[" bugün"," today",null,null,3]],null,"en"]`

func TestTranslateParsesSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Hello world today" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("sl") != "en" || r.URL.Query().Get("tl") != "tr" {
			t.Errorf("language params wrong: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, gtxFixture)
	}))
	defer srv.Close()

	tr := NewWithEndpoint(srv.URL)
	res := tr.Translate("Hello world today", "en", "tr")

	if res.Degraded {
		t.Fatalf("unexpected degradation: %s", res.Reason)
	}
	if res.Text != "Merhaba dünya bugün" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Provider != "google" {
		t.Errorf("provider = %q", res.Provider)
	}
}

func TestTranslateEmptyInputNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, gtxFixture)
	}))
	defer srv.Close()

	tr := NewWithEndpoint(srv.URL)

	for _, in := range []string{"", "   ", "\t\n"} {
		res := tr.Translate(in, "en", "tr")
		if res.Text != in {
			t.Errorf("Translate(%q) = %q, want input unchanged", in, res.Text)
		}
		if res.Degraded {
			t.Errorf("empty input is not a degradation")
		}
	}

	if calls != 0 {
		t.Errorf("empty input triggered %d network calls, want 0", calls)
	}
}

func TestTranslateProviderFailurePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewWithEndpoint(srv.URL)
	res := tr.Translate("Hello world", "en", "tr")

	if res.Text != "Hello world" {
		t.Errorf("original text not passed through: %q", res.Text)
	}
	if !res.Degraded {
		t.Error("expected Degraded=true on provider failure")
	}
	if res.Reason == "" {
		t.Error("degraded result should carry a reason")
	}
}

func TestTranslateMalformedResponsePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totally": "unexpected"}`)
	}))
	defer srv.Close()

	tr := NewWithEndpoint(srv.URL)
	res := tr.Translate("Hello", "en", "tr")

	if res.Text != "Hello" || !res.Degraded {
		t.Errorf("malformed response must degrade to the original, got %+v", res)
	}
}

func TestTranslateTruncatesOversizedInput(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		fmt.Fprint(w, `[[["ok","orig"]]]`)
	}))
	defer srv.Close()

	tr := NewWithEndpoint(srv.URL)
	// Multibyte input: byte-based truncation would split a "ç" at the cap
	// and submit invalid UTF-8.
	tr.Translate("a"+strings.Repeat("ç", maxInputLen), "en", "tr")

	if n := utf8.RuneCountInString(gotQ); n != maxInputLen {
		t.Errorf("submitted %d runes, want the %d cap", n, maxInputLen)
	}
	if !utf8.ValidString(gotQ) {
		t.Error("truncation submitted invalid UTF-8 to the provider")
	}
}

func TestNeedsTranslation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Hello world", true},
		{"Türkiye gündemi", false},
		{"Yapay zeka çağı", false},
		{"İstanbul", false},
		{"", false},
		{"plain ascii only", true},
	}

	for _, tt := range tests {
		if got := NeedsTranslation(tt.in); got != tt.want {
			t.Errorf("NeedsTranslation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
