package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/normalize"
)

// Extension is the only file type kept in the icons directory.
const Extension = ".png"

// IsCatalogFile reports whether name is a visible PNG file name.
func IsCatalogFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// Scan reads every catalog file in dir and returns a fully built snapshot.
// Files that cannot be loaded are skipped with a warning. A missing directory
// yields an empty snapshot.
func Scan(ctx context.Context, dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Icons directory does not exist", "path", dir)
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to list icons directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsCatalogFile(e.Name()) {
			names = append(names, e.Name())
		}
	}

	icons := make([]*Icon, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			icon, err := LoadIcon(filepath.Join(dir, name))
			if err != nil {
				logger.Warn("Failed to load icon", "file", name, "error", err)
				return nil
			}
			icons[i] = icon
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(icons)
	logger.Debug("Catalog scanned", "path", dir, "files", len(names), "icons", snap.Len())
	return snap, nil
}

// LoadIcon reads and decodes a single catalog file. Catalog files must already
// be normalized; anything else is rejected so the served icon is always valid.
func LoadIcon(path string) (*Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, format, err := normalize.Decode(data)
	if err != nil {
		return nil, err
	}
	if format != "png" {
		return nil, apperrors.Newf(apperrors.KindInvalidImage, nil, "Icon is %s, not png.", format)
	}
	if !normalize.IsNormalized(img) {
		b := img.Bounds()
		return nil, apperrors.Newf(apperrors.KindInvalidImage, nil,
			"Icon is %dx%d; must be %dx%d (drop it into the input folder to convert it).",
			b.Dx(), b.Dy(), normalize.Size, normalize.Size)
	}
	return &Icon{Name: filepath.Base(path), Image: img, PNG: data}, nil
}
