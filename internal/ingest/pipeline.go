// Package ingest turns dropped or downloaded images into catalog icons.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/files"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/normalize"
)

const (
	iconPerms = 0o644
	dirPerms  = 0o755
)

// Result describes one committed icon.
type Result struct {
	Name    string
	Path    string
	Format  string
	Width   int
	Height  int
	Resized bool
}

// Failure records a drop-folder file that could not be ingested.
type Failure struct {
	Source string
	Err    error
}

// Report summarizes a drop-folder pass.
type Report struct {
	Committed []Result
	Failed    []Failure
}

// Changed reports whether the icons directory was modified.
func (r Report) Changed() bool {
	return len(r.Committed) > 0
}

type Pipeline struct {
	IconsDir string
	DropDir  string
}

func New(iconsDir, dropDir string) *Pipeline {
	return &Pipeline{IconsDir: iconsDir, DropDir: dropDir}
}

// Path returns where an icon named name is stored.
func (p *Pipeline) Path(name string) string {
	return filepath.Join(p.IconsDir, name)
}

// Exists reports whether an icon named name is already on disk.
func (p *Pipeline) Exists(name string) bool {
	_, err := os.Lstat(p.Path(name))
	return err == nil
}

// Commit normalizes data and writes it into the icons directory as name,
// replacing any existing icon with that name.
func (p *Pipeline) Commit(name string, data []byte) (Result, error) {
	if err := ValidateName(name); err != nil {
		return Result{}, err
	}
	name = EnsureExt(name)

	out, err := normalize.Process(data)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(p.IconsDir, dirPerms); err != nil {
		return Result{}, fmt.Errorf("create icons dir: %w", err)
	}
	path := p.Path(name)
	if err := files.AtomicWrite(path, out.PNG, iconPerms); err != nil {
		return Result{}, fmt.Errorf("write icon %s: %w", name, err)
	}
	logger.Debug("Icon committed", "name", name, "format", out.Format, "width", out.Width, "height", out.Height, "resized", out.Resized)
	return Result{
		Name:    name,
		Path:    path,
		Format:  out.Format,
		Width:   out.Width,
		Height:  out.Height,
		Resized: out.Resized,
	}, nil
}

// ProcessDropFolder commits every image waiting in the drop folder. A file
// that fails is left in place and recorded; the rest of the batch continues.
func (p *Pipeline) ProcessDropFolder(ctx context.Context) (Report, error) {
	var report Report
	entries, err := os.ReadDir(p.DropDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("read drop folder: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// Catalog names written in this pass, folded for case-insensitive volumes.
	taken := make(map[string]string)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.Type().IsRegular() || !IsDropFile(entry.Name()) {
			continue
		}
		target := CatalogName(entry.Name())
		if first, ok := taken[strings.ToLower(target)]; ok {
			err := apperrors.Newf(apperrors.KindNameConflict, nil,
				"%s would replace %s from %s in this batch; rename it and process again.", entry.Name(), target, first)
			logger.Warn("Skipped dropped image", "file", entry.Name(), "error", apperrors.PublicMessage(err))
			report.Failed = append(report.Failed, Failure{Source: entry.Name(), Err: err})
			continue
		}
		source := filepath.Join(p.DropDir, entry.Name())
		result, err := p.ingestFile(source, entry.Name(), target)
		if err != nil {
			logger.Warn("Failed to process dropped image", "file", entry.Name(), "error", apperrors.PublicMessage(err))
			report.Failed = append(report.Failed, Failure{Source: entry.Name(), Err: err})
			continue
		}
		taken[strings.ToLower(target)] = entry.Name()
		report.Committed = append(report.Committed, result)
		if err := os.Remove(source); err != nil {
			logger.Warn("Failed to delete processed image", "file", entry.Name(), "error", err)
		}
	}
	if report.Changed() {
		logger.Info("Processed drop folder", "committed", len(report.Committed), "failed", len(report.Failed))
	}
	return report, nil
}

func (p *Pipeline) ingestFile(source, name, target string) (Result, error) {
	data, err := readFile(source)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", name, err)
	}
	return p.Commit(target, data)
}

// readFile is swapped in tests.
var readFile = os.ReadFile
