package assets

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/memdex/merchpipe/internal/types"
)

// fillSegment is the CDN transform segment embedded in storefront
// image URLs. Rewriting it requests the 800x800 render instead of the
// listing thumbnail size.
var fillSegment = regexp.MustCompile(`/v1/fill/[^/]+/`)

const highResFill = "/v1/fill/w_800,h_800,al_c,q_85/"

// ImageDownloader saves each product's images under a per-slug
// directory. Downloads are independent of each other and of the
// browser session, so they run through a bounded worker pool.
type ImageDownloader struct {
	fetcher     *Fetcher
	dir         string
	concurrency int
	logger      *slog.Logger
}

// NewImageDownloader creates the product image downloader rooted at dir.
func NewImageDownloader(fetcher *Fetcher, dir string, concurrency int, logger *slog.Logger) *ImageDownloader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImageDownloader{
		fetcher:     fetcher,
		dir:         dir,
		concurrency: concurrency,
		logger:      logger.With("component", "image_downloader"),
	}
}

// DownloadAll fetches every image of every product. Failures are
// per-image: logged, counted, never fatal. Returns (saved, failed)
// counts.
func (d *ImageDownloader) DownloadAll(ctx context.Context, products []types.RawProduct) (int, int) {
	var saved, failed atomic.Int64

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup

	for _, p := range products {
		if p.Slug == "" || len(p.Images) == 0 {
			continue
		}
		productDir := filepath.Join(d.dir, p.Slug)
		if err := os.MkdirAll(productDir, 0o755); err != nil {
			d.logger.Error("create image dir failed", "slug", p.Slug, "error", err)
			failed.Add(int64(len(p.Images)))
			continue
		}

		for i, img := range p.Images {
			srcURL := NormalizeImageURL(img.Src)
			if srcURL == "" {
				continue
			}
			dest := filepath.Join(productDir, "img-"+strconv.Itoa(i)+extFromURL(srcURL))

			wg.Add(1)
			go func(srcURL, dest, slug string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				if _, err := d.fetcher.Fetch(ctx, srcURL, dest); err != nil {
					d.logger.Warn("image download failed", "slug", slug, "url", srcURL, "error", err)
					failed.Add(1)
					return
				}
				saved.Add(1)
			}(srcURL, dest, p.Slug)
		}
	}

	wg.Wait()
	d.logger.Info("image downloads complete", "saved", saved.Load(), "failed", failed.Load())
	return int(saved.Load()), int(failed.Load())
}

// NormalizeImageURL resolves protocol-relative sources and rewrites
// the CDN fill segment to the high-resolution variant.
func NormalizeImageURL(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return fillSegment.ReplaceAllString(src, highResFill)
}

// extFromURL infers the file extension from the source URL. Best
// effort only; it never inspects actual bytes.
func extFromURL(rawURL string) string {
	switch {
	case strings.Contains(rawURL, ".png"):
		return ".png"
	case strings.Contains(rawURL, ".webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
