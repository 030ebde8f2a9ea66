package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/memdex/merchpipe/internal/types"
)

// Files manages the pipeline's on-disk JSON artifacts: the raw
// extraction file, the failed-records file, and the canonical catalog.
// Each write fully replaces the previous artifact.
type Files struct {
	dataDir     string
	rawFile     string
	failedFile  string
	catalogFile string
	logger      *slog.Logger
}

// NewFiles creates the artifact store rooted at dataDir.
func NewFiles(dataDir, rawFile, failedFile, catalogFile string, logger *slog.Logger) *Files {
	return &Files{
		dataDir:     dataDir,
		rawFile:     rawFile,
		failedFile:  failedFile,
		catalogFile: catalogFile,
		logger:      logger.With("component", "file_store"),
	}
}

// RawPath returns the raw extraction file path.
func (f *Files) RawPath() string { return filepath.Join(f.dataDir, f.rawFile) }

// FailedPath returns the failed-records file path.
func (f *Files) FailedPath() string { return filepath.Join(f.dataDir, f.failedFile) }

// CatalogPath returns the canonical catalog file path.
func (f *Files) CatalogPath() string { return filepath.Join(f.dataDir, f.catalogFile) }

// WriteRaw persists the merged raw product records.
func (f *Files) WriteRaw(products []types.RawProduct) error {
	return f.writeJSON(f.RawPath(), products, len(products))
}

// WriteFailed persists the not-found and errored raw records so a
// later run can retarget just the failures.
func (f *Files) WriteFailed(products []types.RawProduct) error {
	return f.writeJSON(f.FailedPath(), products, len(products))
}

// WriteCatalog persists the canonical catalog, fully replacing any
// prior catalog file.
func (f *Files) WriteCatalog(products []types.CanonicalProduct) error {
	return f.writeJSON(f.CatalogPath(), products, len(products))
}

// ReadRaw loads the raw extraction file written by a prior crawl.
func (f *Files) ReadRaw() ([]types.RawProduct, error) {
	data, err := os.ReadFile(f.RawPath())
	if err != nil {
		return nil, fmt.Errorf("read raw products: %w", err)
	}
	var products []types.RawProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode raw products: %w", err)
	}
	return products, nil
}

func (f *Files) writeJSON(path string, v any, count int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	f.logger.Info("JSON written", "path", path, "records", count)
	return nil
}
