package dnn

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// fetchTimeout bounds a single model artifact download
const fetchTimeout = 5 * time.Minute

// IsURL reports whether the model source is an HTTP location rather than
// a local file path
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// FetchModel downloads a model artifact into the cache directory and
// returns the local file path.  An artifact already present in the cache
// is reused without a download.
func FetchModel(ctx context.Context, src, cacheDir string) (string, error) {

	u, err := url.Parse(src)

	if err != nil {
		return "", fmt.Errorf("invalid model url %s: %w", src, err)
	}

	name := path.Base(u.Path)

	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("model url %s has no file name", src)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("error creating model cache: %w", err)
	}

	dest := filepath.Join(cacheDir, name)

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	client := resty.New().
		SetTimeout(fetchTimeout).
		SetRetryCount(3)

	resp, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(src)

	if err != nil {
		return "", fmt.Errorf("error fetching model %s: %w", src, err)
	}

	if resp.IsError() {
		// resty writes the error body to the output file, remove it
		_ = os.Remove(dest)
		return "", fmt.Errorf("error fetching model %s: status %s", src,
			resp.Status())
	}

	return dest, nil
}
