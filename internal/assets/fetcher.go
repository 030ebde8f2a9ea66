package assets

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/types"
)

// Fetcher downloads a single remote resource to a local path.
// One attempt per asset: no retry, no backoff, no checksum.
type Fetcher struct {
	client       *http.Client
	maxRedirects int
	userAgent    string
	logger       *slog.Logger
}

// NewFetcher creates an asset fetcher.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Assets.Timeout,
		// Redirects are re-issued manually in Fetch so the hop cap and
		// error taxonomy stay explicit.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Fetcher{
		client:       client,
		maxRedirects: cfg.Assets.MaxRedirects,
		userAgent:    cfg.Browser.UserAgent,
		logger:       logger.With("component", "asset_fetcher"),
	}
}

// Fetch retrieves url into destPath and returns destPath. The caller
// must ensure the destination directory exists. On any failure a
// partially-written destination file is removed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destPath string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &types.InvalidSourceError{URL: rawURL}
	}

	start := time.Now()
	current := u

	for hop := 0; ; hop++ {
		if hop > f.maxRedirects {
			f.discard(destPath)
			return "", &types.NetworkError{URL: rawURL, Err: types.ErrTooManyHops}
		}

		status, location, err := f.fetchOnce(ctx, current, destPath)
		if err != nil {
			f.discard(destPath)
			return "", &types.NetworkError{URL: current.String(), Err: err}
		}

		switch {
		case status >= 200 && status < 300:
			f.logger.Debug("asset downloaded",
				"url", rawURL,
				"dest", destPath,
				"hops", hop,
				"duration", time.Since(start),
			)
			return destPath, nil

		case isRedirect(status) && location != "":
			next, err := current.Parse(location)
			if err != nil {
				f.discard(destPath)
				return "", &types.NetworkError{URL: current.String(), Err: fmt.Errorf("bad redirect target %q: %w", location, err)}
			}
			current = next

		default:
			f.discard(destPath)
			return "", &types.FetchFailedError{URL: current.String(), StatusCode: status}
		}
	}
}

// fetchOnce issues one request and, on a 2xx, streams the body to
// destPath. For redirects it returns the Location target untouched.
func (f *Fetcher) fetchOnce(ctx context.Context, u *url.URL, destPath string) (status int, location string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		return resp.StatusCode, resp.Header.Get("Location"), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, "", nil
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}

	file, err := os.Create(destPath)
	if err != nil {
		return resp.StatusCode, "", err
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, "", file.Close()
}

// discard removes a partially-written destination file, if any.
func (f *Fetcher) discard(destPath string) {
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("failed to remove partial file", "path", destPath, "error", err)
	}
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
