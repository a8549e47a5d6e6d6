// Package discovery finds the per-worker log directories under a root and
// groups same-named log files across them.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Defaults for the directory layout.
const (
	DefaultOutputDir = "merged-logs"
	DefaultSuffix    = ".log"
)

// ErrInvalidRoot is returned when the log root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid log root")

// LogDirectory is one worker's log directory and the log files it holds.
type LogDirectory struct {
	// Path is the directory path.
	Path string

	// Files are the full paths of the log files, sorted by name.
	Files []string
}

// ScanOptions controls which directories and files Scan returns.
type ScanOptions struct {
	// OutputDir is excluded from the scan. Relative paths are taken
	// relative to the root.
	OutputDir string

	// Suffix selects log files by name. Matched case-insensitively.
	Suffix string
}

// DefaultScanOptions returns the default layout options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		OutputDir: DefaultOutputDir,
		Suffix:    DefaultSuffix,
	}
}

// OutputPath resolves the output directory for the given root.
func (o ScanOptions) OutputPath(root string) string {
	out := o.OutputDir
	if out == "" {
		out = DefaultOutputDir
	}
	if filepath.IsAbs(out) {
		return filepath.Clean(out)
	}
	return filepath.Join(root, out)
}

// Scan returns every immediate subdirectory of root, except the output
// directory, with the log files it contains. Directories are sorted by name.
// A subdirectory that cannot be read is logged and skipped.
func Scan(root string, opts ScanOptions) ([]LogDirectory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	outPath := opts.OutputPath(root)

	var dirs []LogDirectory
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		if samePath(dirPath, outPath) {
			continue
		}

		files, err := listLogFiles(dirPath, suffix)
		if err != nil {
			log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read log directory")
			continue
		}
		dirs = append(dirs, LogDirectory{Path: dirPath, Files: files})
	}

	return dirs, nil
}

func listLogFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !hasSuffixFold(entry.Name(), suffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func hasSuffixFold(name, suffix string) bool {
	return len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix)
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
