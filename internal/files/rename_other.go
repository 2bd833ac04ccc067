//go:build !linux && !windows

package files

func renameNoReplace(oldPath, newPath string) error {
	return renameChecked(oldPath, newPath)
}
