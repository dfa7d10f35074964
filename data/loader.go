package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Download fetches url into path unless path already exists. A cached file is
// never refreshed or verified.
func Download(ctx context.Context, client *http.Client, url, path string) error {
	if _, err := os.Stat(path); err == nil {
		zap.L().Info("data already cached", zap.String("path", path))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if client == nil {
		client = http.DefaultClient
	}

	zap.L().Info("downloading data", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	zap.L().Info("data saved", zap.String("path", path), zap.Int64("bytes", n))
	return nil
}

// Load reads the raw dataset from path, downloading it from url first when the
// file is not cached yet.
func Load(ctx context.Context, client *http.Client, url, path string) (*Frame, error) {
	if err := Download(ctx, client, url, path); err != nil {
		return nil, err
	}
	frame, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded data",
		zap.String("path", path),
		zap.Int("rows", frame.Rows()),
		zap.Int("columns", frame.Width()),
	)
	return frame, nil
}
