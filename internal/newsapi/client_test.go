package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/Auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds["username"] != "admin" || creds["password"] != "secret" {
			t.Errorf("credentials = %v", creds)
		}
		fmt.Fprint(w, `{"token":"jwt-token-123"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	token, err := c.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "jwt-token-123" {
		t.Errorf("token = %q", token)
	}
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Login(context.Background(), "admin", "wrong"); err == nil {
		t.Error("expected error on rejected login")
	}
}

func TestExistsBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header: %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("slug") == "mevcut-haber" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if !c.ExistsBySlug(ctx, "mevcut-haber", "tok") {
		t.Error("known slug should exist")
	}
	if c.ExistsBySlug(ctx, "yeni-haber", "tok") {
		t.Error("unknown slug should not exist")
	}
}

func TestExistsBySlugTransportErrorMeansNew(t *testing.T) {
	// Duplicate risk is preferred over dropping content: a dead endpoint
	// reads as "does not exist".
	c := NewClient("http://127.0.0.1:1")
	if c.ExistsBySlug(context.Background(), "herhangi", "tok") {
		t.Error("transport error must read as not-exists")
	}
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/NewsArticle" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header")
		}
		var got Article
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode article: %v", err)
		}
		if got.Caption != "Başlık" || got.Type != "Haber" || !got.IsActive {
			t.Errorf("payload reached server wrong: %+v", got)
		}
		fmt.Fprint(w, `{"id":"65bd01"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	article := Article{Caption: "Başlık", Type: "Haber", IsActive: true}

	id, err := c.Create(context.Background(), article, "tok")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "65bd01" {
		t.Errorf("id = %q", id)
	}
}

func TestCreateUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Create(context.Background(), Article{}, "stale")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateHTTPErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "validation failed: caption", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Create(context.Background(), Article{}, "tok")
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("error should carry status and body: %v", err)
	}
	if attempts != 1 {
		t.Errorf("HTTP error status was retried %d times; only transport errors retry", attempts)
	}
}
