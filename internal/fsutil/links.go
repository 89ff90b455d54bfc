package fsutil

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// EnsureDir creates dir and any missing parents. It is a no-op when the
// directory already exists and an error when dir names a non-directory.
func EnsureDir(fs afero.Fs, dir string) error {
	info, err := fs.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", dir)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ReplaceSymlink removes whatever file or symlink currently sits at link and
// creates a symlink there pointing at target. The target itself is never
// touched and need not exist yet. Directories at link are refused.
func ReplaceSymlink(fs afero.Fs, target, link string) error {
	linker, ok := fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("filesystem %s does not support symlinks", fs.Name())
	}

	if err := removeLink(fs, link); err != nil {
		return err
	}
	if err := linker.SymlinkIfPossible(target, link); err != nil {
		return fmt.Errorf("failed to link %s -> %s: %w", link, target, err)
	}
	return nil
}

// ReadLink returns the target of the symlink at link.
func ReadLink(fs afero.Fs, link string) (string, error) {
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("filesystem %s does not support symlinks", fs.Name())
	}
	return reader.ReadlinkIfPossible(link)
}

func removeLink(fs afero.Fs, link string) error {
	info, err := lstat(fs, link)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", link, err)
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to replace directory %s with a symlink", link)
	}
	if err := fs.Remove(link); err != nil {
		return fmt.Errorf("failed to remove %s: %w", link, err)
	}
	return nil
}

func lstat(fs afero.Fs, name string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return fs.Stat(name)
}
