package mediarecorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

var (
	ErrNoLocation          = errors.New("the directory does not resolve to a location")
	ErrInvalidSubDirectory = errors.New("invalid sub-directory")
)

type DirectoryResolver interface {
	ResolveDirectory(types.Directory) (string, bool)
	TempDirectory() string
}

// SanitizeSubDirectory strips leading and trailing separators. It returns
// false if nothing is left.
func SanitizeSubDirectory(subDirectory string) (string, bool, error) {
	trimmed := strings.Trim(filepath.ToSlash(subDirectory), "/")
	if trimmed == "" {
		return "", false, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", false, fmt.Errorf("%w: '%s' points outside of the directory", ErrInvalidSubDirectory, subDirectory)
	}
	return cleaned, true, nil
}

func outputDirectory(
	dirs DirectoryResolver,
	opts types.RecordOptions,
) (string, error) {
	if !opts.HasDirectory() {
		return dirs.TempDirectory(), nil
	}

	dir, ok := dirs.ResolveDirectory(opts.Directory)
	if !ok || dir == "" {
		return "", fmt.Errorf("%w: '%s'", ErrNoLocation, opts.Directory)
	}

	subDirectory, ok, err := SanitizeSubDirectory(opts.SubDirectory)
	if err != nil {
		return "", err
	}
	if ok {
		dir = filepath.Join(dir, subDirectory)
	}
	return dir, nil
}

func allocateOutputFile(
	dirs DirectoryResolver,
	opts types.RecordOptions,
	profile types.EncodingProfile,
	now time.Time,
) (string, error) {
	dir, err := outputDirectory(dirs, opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create directory '%s': %w", dir, err)
	}

	f, err := os.CreateTemp(dir, fmt.Sprintf("recording-%d-*%s", now.UnixMilli(), profile.FileExt))
	if err != nil {
		return "", fmt.Errorf("unable to create the output file in '%s': %w", dir, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("unable to close the output file '%s': %w", f.Name(), err)
	}
	return f.Name(), nil
}
