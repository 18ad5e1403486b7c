// Package download fetches installer payloads, verifies their integrity and
// unpacks archives into the target tree.
//
// Fetches resume: an interrupted download leaves a partial file behind and the
// next attempt continues from its end with a Range request, so a flaky
// connection does not restart a multi-gigabyte payload from zero.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// partSuffix marks an in-progress download.
const partSuffix = ".part"

// Fetcher downloads files over HTTP with resume support.
type Fetcher struct {
	client *http.Client

	// Quiet suppresses the progress bar (tests, --auto runs)
	Quiet bool
}

// NewFetcher returns a Fetcher with sane timeouts for large payloads.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			// No overall timeout: payloads run to gigabytes. Per-request
			// stall detection comes from the transport defaults.
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Fetch downloads url into dest, resuming a previous partial download when
// one exists. The destination only appears under its final name once the
// download completed, so a present dest is always complete.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	part := dest + partSuffix
	var offset int64
	if info, err := os.Stat(part); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the Range header, start over.
		offset = 0
	case http.StatusPartialContent:
	default:
		return fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(part, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open partial file: %w", err)
	}

	var w io.Writer = out
	if !f.Quiet {
		bar := progressbar.DefaultBytes(offset+resp.ContentLength, filepath.Base(dest))
		bar.Add64(offset)
		w = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("download of %s interrupted: %w", url, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", part, err)
	}

	if err := os.Rename(part, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// FetchVerified downloads url into dest and checks it against the expected
// BLAKE3 digest. A corrupt file is removed so the next attempt starts clean.
func (f *Fetcher) FetchVerified(ctx context.Context, url, dest, checksum string) error {
	if err := f.Fetch(ctx, url, dest); err != nil {
		return err
	}
	if err := Verify(dest, checksum); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
