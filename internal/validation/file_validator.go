package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotWorkbook is returned for paths that cannot hold an xlsx workbook.
var ErrNotWorkbook = errors.New("not an xlsx workbook")

// workbookExtensions lists the OOXML spreadsheet extensions excelize reads.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// FileValidator checks command-line input and output paths before any
// aggregation work starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path names a readable regular file and returns
// its size.
func (v *FileValidator) ValidateFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return 0, fmt.Errorf("file %s does not exist: %w", path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return 0, fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info.Size(), nil
}

// ValidateWorkbook checks that path is a readable xlsx workbook no larger
// than maxBytes. A maxBytes of zero or less disables the size check.
func (v *FileValidator) ValidateWorkbook(path string, maxBytes int64) error {
	size, err := v.ValidateFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !workbookExtensions[ext] {
		v.logger.Error("File is not an xlsx workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s (extension %q)", ErrNotWorkbook, path, ext)
	}

	// Office lock files share the workbook extension.
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("%w: %s is a temporary Excel file", ErrNotWorkbook, path)
	}

	if size == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNotWorkbook, path)
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("workbook %s is %d bytes, limit is %d", path, size, maxBytes)
	}
	return nil
}

// ValidateOutputFile ensures the directory of path exists and is writable.
// An existing directory at path itself is rejected.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output path validated",
		slog.String("file", path))
	return nil
}
