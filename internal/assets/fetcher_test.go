package assets

import (
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher() *Fetcher {
	return NewFetcher(config.DefaultConfig(), testLogger)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "img-0.jpg")
	got, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/a.jpg", dest)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != dest {
		t.Errorf("returned path %q, want %q", got, dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("body = %q", data)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("arrived"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	if _, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/start", dest); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "arrived" {
		t.Errorf("body = %q", data)
	}
}

func TestFetchRedirectLoopCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	_, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/loop", dest)

	var netErr *types.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !errors.Is(err, types.ErrTooManyHops) {
		t.Errorf("expected hop-cap sentinel, got %v", err)
	}
}

func TestFetchFailedRemovesPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	// Pre-existing partial content from an earlier attempt.
	if err := os.WriteFile(dest, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/missing.jpg", dest)

	var fetchErr *types.FetchFailedError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchFailedError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", fetchErr.StatusCode)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("partial file was not removed")
	}
}

func TestFetchInvalidSource(t *testing.T) {
	f := newTestFetcher()
	dest := filepath.Join(t.TempDir(), "out")

	for _, bad := range []string{
		"//static.example.com/img.jpg",
		"/relative/img.jpg",
		"ftp://example.com/img.jpg",
		"not a url at all\x00",
	} {
		_, err := f.Fetch(context.Background(), bad, dest)
		var invalid *types.InvalidSourceError
		if !errors.As(err, &invalid) {
			t.Errorf("Fetch(%q): expected InvalidSourceError, got %v", bad, err)
		}
	}
}

func TestFetchDecompressesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed payload"))
		gz.Close()
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	if _, err := newTestFetcher().Fetch(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "compressed payload" {
		t.Errorf("body = %q", data)
	}
}

// --- Image URL Tests ---

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			"https://static.wixstatic.com/media/x.jpg/v1/fill/w_220,h_220,al_c/x.jpg",
			"https://static.wixstatic.com/media/x.jpg/v1/fill/w_800,h_800,al_c,q_85/x.jpg",
		},
		{
			"//static.wixstatic.com/media/y.png",
			"https://static.wixstatic.com/media/y.png",
		},
		{"data:image/gif;base64,AAAA", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeImageURL(tt.in); got != tt.want {
			t.Errorf("NormalizeImageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://cdn.example.com/a.png/v1/fill/w_800,h_800/a.png", ".png"},
		{"https://cdn.example.com/b.webp", ".webp"},
		{"https://cdn.example.com/c.jpg", ".jpg"},
		{"https://cdn.example.com/no-extension", ".jpg"},
	}
	for _, tt := range tests {
		if got := extFromURL(tt.in); got != tt.want {
			t.Errorf("extFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
