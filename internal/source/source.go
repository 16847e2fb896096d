// Package source reads spreadsheet bytes from paths, URLs or stdin and
// writes results back out.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Stdio is the name that selects stdin for reads and stdout for writes.
const Stdio = "-"

// Stdin and Stdout are swapped out by tests.
var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
)

// HTTPClient is used for http and https sources.
var HTTPClient = http.DefaultClient

// IsURL reports whether src names an http or https resource.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ReadAll returns the full contents of src.
func ReadAll(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == Stdio:
		data, err := io.ReadAll(Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	case IsURL(src):
		return fetch(ctx, src)
	default:
		return readFile(src)
	}
}

// readFile opens path, retrying with a URL-decoded name when the literal
// path does not exist. Dragged-in paths from browsers often arrive
// percent-encoded.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		if decoded, derr := url.PathUnescape(path); derr == nil && decoded != path {
			if data, derr := os.ReadFile(decoded); derr == nil {
				return data, nil
			}
		}
	}
	return nil, fmt.Errorf("reading %s: %w", path, err)
}

func fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", src, err)
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", src, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", src, err)
	}
	return data, nil
}

// Name returns a file name for src suitable for format detection.
func Name(src string) string {
	if src == Stdio {
		return "stdin"
	}
	if IsURL(src) {
		if u, err := url.Parse(src); err == nil {
			if base := filepath.Base(u.Path); base != "." && base != "/" {
				return base
			}
		}
		return "download"
	}
	return filepath.Base(src)
}

// WriteAll writes data to dst. Files are written through a temp file in
// the same directory and renamed into place; missing directories are created.
func WriteAll(dst string, data []byte) error {
	if dst == Stdio {
		if _, err := Stdout.Write(data); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".monthsum-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("renaming into %s: %w", dst, err)
	}
	return nil
}

// OutputName derives "<base>-<suffix><ext>" for an input path, keeping
// the directory. ext includes the leading dot.
func OutputName(input, suffix, ext string) string {
	name := Name(input)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	out := base + "-" + suffix + ext
	if input == Stdio || IsURL(input) {
		return out
	}
	return filepath.Join(filepath.Dir(input), out)
}
