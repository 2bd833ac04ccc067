package files

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestRejectSymlinkPath_Target(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink not permitted on Windows")
	}
	tmp := t.TempDir()
	target := filepath.Join(tmp, "target.png")
	if err := os.WriteFile(target, []byte("original"), 0600); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(tmp, "out.png")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := RejectSymlinkPath(link); err == nil {
		t.Fatalf("expected symlink rejection")
	}
}

func TestRejectSymlinkPath_ParentDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink not permitted on Windows")
	}
	tmp := t.TempDir()
	realDir := filepath.Join(tmp, "real")
	if err := os.MkdirAll(realDir, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	linkDir := filepath.Join(tmp, "link")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Fatalf("symlink dir: %v", err)
	}
	path := filepath.Join(linkDir, "out.png")

	if err := RejectSymlinkPath(path); err == nil {
		t.Fatalf("expected symlinked directory rejection")
	}
}

func TestRejectSymlinkPath_AncestorDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink not permitted on Windows")
	}
	tmp := t.TempDir()
	realDir := filepath.Join(tmp, "real", "nested")
	if err := os.MkdirAll(realDir, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	linkDir := filepath.Join(tmp, "link")
	if err := os.Symlink(filepath.Join(tmp, "real"), linkDir); err != nil {
		t.Fatalf("symlink dir: %v", err)
	}
	path := filepath.Join(linkDir, "nested", "out.png")

	if err := RejectSymlinkPath(path); err == nil {
		t.Fatalf("expected ancestor symlink rejection")
	}
}

func TestAtomicWriteRejectsSymlinkTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink not permitted on Windows")
	}
	tmp := t.TempDir()
	target := filepath.Join(tmp, "target.png")
	if err := os.WriteFile(target, []byte("original"), 0600); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(tmp, "out.png")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := AtomicWrite(link, []byte("new"), 0600); err == nil {
		t.Fatalf("expected AtomicWrite to reject symlink")
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "original" {
		t.Fatalf("target modified via symlink: %s", string(data))
	}
}

func TestRenameNoClobber(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, "a.png")
	newPath := filepath.Join(tmp, "b.png")
	if err := os.WriteFile(oldPath, []byte("a"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RenameNoClobber(oldPath, newPath); err != nil {
		t.Fatalf("RenameNoClobber: %v", err)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone, got %v", err)
	}

	if err := os.WriteFile(oldPath, []byte("again"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := RenameNoClobber(oldPath, newPath)
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected os.ErrExist, got %v", err)
	}
	data, _ := os.ReadFile(newPath)
	if string(data) != "a" {
		t.Fatalf("destination was replaced: %q", string(data))
	}
	if data, err := os.ReadFile(oldPath); err != nil || string(data) != "again" {
		t.Fatalf("source should stay after a refused rename: %q err=%v", string(data), err)
	}
}

func TestRenameNoClobberRefusesDirectory(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, "a.png")
	newPath := filepath.Join(tmp, "b.png")
	if err := os.WriteFile(oldPath, []byte("a"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(newPath, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := RenameNoClobber(oldPath, newPath); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected os.ErrExist, got %v", err)
	}
	if info, err := os.Stat(newPath); err != nil || !info.IsDir() {
		t.Fatalf("destination directory changed: %v", err)
	}
}

func TestAtomicWriteReplacesContent(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "icon.png")
	if err := AtomicWrite(path, []byte("one"), 0644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	if err := AtomicWrite(path, []byte("two"), 0644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "two" {
		t.Fatalf("unexpected content %q err=%v", string(data), err)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}
