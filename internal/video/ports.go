package video

import "context"

// StatusResult is the provider-neutral outcome of reading a render job's
// state, already translated into the canonical status vocabulary with a
// progress estimate.
type StatusResult struct {
	// Status is the canonical video status.
	Status Status
	// Progress is the completion percentage in [0,100].
	Progress int
	// URL is the finished video URL, when available.
	URL string
	// ErrorMessage is the provider error, when the render failed.
	ErrorMessage string
}

// SubmitRequest contains everything a rendering provider needs to start
// a job: the narration script, render settings, and the callback URL it
// should invoke on status changes.
type SubmitRequest struct {
	Script     string
	Title      string
	Voice      string
	Style      string
	Aspect     string
	WebhookURL string
}

// Renderer is the port to the external rendering provider. Implementations
// translate the provider's raw vocabulary into StatusResult.
type Renderer interface {
	// CreateRender submits a render job and returns the provider job ID.
	CreateRender(ctx context.Context, req SubmitRequest) (jobID string, err error)

	// RenderStatus reads the current state of a render job.
	RenderStatus(ctx context.Context, jobID string) (StatusResult, error)
}

// Archiver re-homes a finished render from the provider-hosted URL into
// storage we control. Best-effort: a failed archive never affects the
// video's lifecycle state.
type Archiver interface {
	Archive(ctx context.Context, videoID, srcURL string) (archivedURL string, err error)
}
