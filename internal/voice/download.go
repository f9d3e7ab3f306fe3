package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultMaxDownload     = 20 << 20
	defaultDownloadTimeout = 15 * time.Second
)

// Downloader fetches platform files with a size cap and a timeout.
type Downloader struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownload
	}
	return &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: bad status %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if int64(len(b)) > d.maxBytes {
		return nil, fmt.Errorf("download failed: file exceeds %d bytes", d.maxBytes)
	}
	return b, nil
}
