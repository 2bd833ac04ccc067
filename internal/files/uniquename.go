package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UniqueName returns a file name inside dir that does not exist yet. The
// requested name is kept when free; otherwise _1.._9 is tried before falling
// back to a UUID suffix. The extension is preserved.
func UniqueName(dir, name string) (string, bool, error) {
	if strings.TrimSpace(name) == "" {
		return "", false, fmt.Errorf("name is empty")
	}
	free, err := isFree(filepath.Join(dir, name))
	if err != nil {
		return "", false, err
	}
	if free {
		return name, false, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i <= 9; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		free, err := isFree(filepath.Join(dir, candidate))
		if err != nil {
			return "", false, err
		}
		if free {
			return candidate, true, nil
		}
	}

	suffix := uuid.NewString()[:8]
	if u, err := uuid.NewV7(); err == nil {
		suffix = u.String()
	}
	return fmt.Sprintf("%s_%s%s", base, suffix, ext), true, nil
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
