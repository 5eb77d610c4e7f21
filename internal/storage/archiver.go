package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RenderArchiver downloads a finished render from its provider-hosted URL
// and re-homes it into durable storage. It implements the video.Archiver
// port. Archiving is best-effort: the provider URL stays the source of
// truth for playback if an archive attempt fails.
type RenderArchiver struct {
	store  Storage
	client *http.Client
}

// NewRenderArchiver creates a new archiver over the given storage.
// A nil client falls back to a default with a 5 minute timeout, since
// finished videos can be large.
func NewRenderArchiver(store Storage, client *http.Client) *RenderArchiver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &RenderArchiver{store: store, client: client}
}

// Archive downloads srcURL and uploads it under a key derived from the
// video ID, returning the archived URL.
func (a *RenderArchiver) Archive(ctx context.Context, videoID, srcURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("archive: create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive: download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("archive: download failed with status %d", resp.StatusCode)
	}

	// Stage to disk first so a broken download never produces a truncated
	// archive object.
	tempPath, err := a.store.SaveTemp(ctx, videoID, resp.Body)
	if err != nil {
		return "", fmt.Errorf("archive: stage: %w", err)
	}
	defer func() { _ = a.store.CleanupTemp(ctx, []string{tempPath}) }()

	f, err := a.store.LoadTemp(ctx, tempPath)
	if err != nil {
		return "", fmt.Errorf("archive: reopen staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := a.store.Upload(ctx, "videos/"+videoID+".mp4", f)
	if err != nil {
		return "", fmt.Errorf("archive: upload: %w", err)
	}

	return url, nil
}
