package drivers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalFSDriver keeps reports on local disk, one directory per HS code.
type LocalFSDriver struct {
	BaseDir   string
	PublicURL string
}

// NewLocalFSDriver creates baseDir if needed. publicURL prefixes generated links,
// e.g. /api/v1/reports.
func NewLocalFSDriver(baseDir, publicURL string) (*LocalFSDriver, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &LocalFSDriver{BaseDir: baseDir, PublicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (d *LocalFSDriver) resolve(key ReportKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(d.BaseDir, key.HSCode, key.FileName()), nil
}

// Save writes through a temp file in the code's directory so a failed upload never
// leaves a truncated workbook behind.
func (d *LocalFSDriver) Save(ctx context.Context, key ReportKey, body io.Reader) error {
	fullPath, err := d.resolve(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

func (d *LocalFSDriver) Open(ctx context.Context, key ReportKey) (io.ReadCloser, error) {
	fullPath, err := d.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (d *LocalFSDriver) Delete(ctx context.Context, key ReportKey) error {
	fullPath, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GenerateURL ignores expires; local links are served by the report download route.
func (d *LocalFSDriver) GenerateURL(ctx context.Context, key ReportKey, expires time.Duration) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if d.PublicURL == "" {
		return key.String(), nil
	}
	return d.PublicURL + "/" + key.String(), nil
}
