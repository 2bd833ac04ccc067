package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/catalog"
)

// DropExtensions lists the file types picked up from the drop folder.
var DropExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// EnsureExt appends the catalog extension unless name already ends in it.
func EnsureExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), catalog.Extension) {
		return name
	}
	return name + catalog.Extension
}

// ValidateName rejects names that would escape the icons directory or be
// hidden from the catalog.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return apperrors.InvalidArgument("Icon name must not be empty.")
	}
	if trimmed != name {
		return apperrors.InvalidArgument("Icon name %q has leading or trailing spaces.", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return apperrors.InvalidArgument("Icon name %q must be a plain file name.", name)
	}
	if strings.HasPrefix(name, ".") {
		return apperrors.InvalidArgument("Icon name %q must not start with a dot.", name)
	}
	return nil
}

// GeneratedName is the name given to downloads without an explicit one.
func GeneratedName(now time.Time) string {
	return fmt.Sprintf("downloaded_%d%s", now.UnixMilli(), catalog.Extension)
}

// CatalogName maps a drop-folder file to its name in the icons directory.
func CatalogName(source string) string {
	ext := filepath.Ext(source)
	if strings.EqualFold(ext, catalog.Extension) {
		return source
	}
	return strings.TrimSuffix(source, ext) + catalog.Extension
}

// IsDropFile reports whether name is an ingestable drop-folder entry.
func IsDropFile(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	for _, allowed := range DropExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
