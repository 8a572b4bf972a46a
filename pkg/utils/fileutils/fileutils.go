package fileutils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}

func AbsPath(path string) (string, error) {
	expanded := ExpandHome(strings.TrimSpace(path))
	if expanded == "" {
		return "", fmt.Errorf("path is empty")
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	return filepath.Clean(abs), nil
}

// CopyFile copies src to dest through a temporary file, keeping the source
// permission bits and modification time.
func CopyFile(src, dest string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source file %s: %w", src, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", dest, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	tmpDest := dest + ".tmp"
	dstFile, err := os.OpenFile(tmpDest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create temporary file %s: %w", tmpDest, err)
	}

	_, copyErr := io.Copy(dstFile, srcFile)
	closeErr := dstFile.Close()
	if copyErr != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("copy %s to %s: %w", src, tmpDest, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("close temporary file %s: %w", tmpDest, closeErr)
	}

	mtime := srcInfo.ModTime()
	if err := os.Chtimes(tmpDest, mtime, mtime); err != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("set times on %s: %w", tmpDest, err)
	}

	if err := os.Rename(tmpDest, dest); err != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("replace %s with %s: %w", dest, tmpDest, err)
	}

	return nil
}

// LinkFile hard links dest to src. Both paths must be on the same volume.
func LinkFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", dest, err)
	}
	if err := os.Link(src, dest); err != nil {
		return fmt.Errorf("link %s to %s: %w", dest, src, err)
	}
	return nil
}

func RemovePath(path string) error {
	clean := filepath.Clean(path)
	if clean == "." || clean == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove unsafe path: %s", path)
	}

	info, err := os.Lstat(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
		return os.RemoveAll(clean)
	}

	return os.Remove(clean)
}

// IsDescendant reports whether path lies strictly below root. Both paths are
// cleaned lexically; root itself is not its own descendant.
func IsDescendant(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// FirstSymlink walks the components of path below root and returns the
// first one that is a symbolic link, or "" when there is none. The walk stops
// at the first missing component.
func FirstSymlink(root, path string) (string, error) {
	if !IsDescendant(root, path) {
		return "", fmt.Errorf("%s is not below %s", path, root)
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", err
	}

	cur := filepath.Clean(root)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", nil
			}
			return "", fmt.Errorf("lstat %s: %w", cur, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return cur, nil
		}
	}
	return "", nil
}

// Stat is os.Stat that reports a missing path as (nil, nil).
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}
