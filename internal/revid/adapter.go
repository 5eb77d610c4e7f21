package revid

import (
	"context"
	"fmt"

	"github.com/scriptreel/scriptreel-api/internal/video"
)

// Adapter adapts the revid client to the video.Renderer port, translating
// the provider's raw vocabulary into canonical status results.
type Adapter struct {
	client Client
}

// Compile-time check that Adapter implements video.Renderer.
var _ video.Renderer = (*Adapter)(nil)

// NewAdapter creates a new renderer adapter around a revid client.
func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

// CreateRender submits a render job and returns the provider job ID.
func (a *Adapter) CreateRender(ctx context.Context, req video.SubmitRequest) (string, error) {
	jobID, err := a.client.Render(ctx, RenderRequest{
		Script:     req.Script,
		Title:      req.Title,
		Voice:      req.Voice,
		Style:      req.Style,
		Aspect:     req.Aspect,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		return "", fmt.Errorf("revid adapter: render: %w", err)
	}
	return jobID, nil
}

// RenderStatus reads and normalizes the current state of a render job.
func (a *Adapter) RenderStatus(ctx context.Context, jobID string) (video.StatusResult, error) {
	payload, err := a.client.Status(ctx, jobID)
	if err != nil {
		return video.StatusResult{}, fmt.Errorf("revid adapter: status: %w", err)
	}
	return Normalize(payload), nil
}
