package video

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/token"
)

// RenderSettings contains the user-selected options for a render job.
type RenderSettings struct {
	Title  string
	Voice  string
	Style  string
	Aspect string
}

// RenderService orchestrates the render job lifecycle: submission to the
// provider, webhook ingestion, and read-triggered reconciliation of local
// records against the provider's job state.
type RenderService struct {
	manager       *Manager
	projects      project.Repository
	renderer      Renderer
	archiver      Archiver
	publicBaseURL string
	logger        *slog.Logger
}

// ServiceOption is a function that configures a RenderService.
type ServiceOption func(*RenderService)

// WithArchiver enables best-effort archiving of finished renders.
func WithArchiver(a Archiver) ServiceOption {
	return func(s *RenderService) {
		s.archiver = a
	}
}

// NewRenderService creates a new render service. publicBaseURL is the
// externally reachable base URL used to construct webhook callback URLs.
func NewRenderService(manager *Manager, projects project.Repository, renderer Renderer, publicBaseURL string, logger *slog.Logger, opts ...ServiceOption) *RenderService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &RenderService{
		manager:       manager,
		projects:      projects,
		renderer:      renderer,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a render job for a project's script and persists the local
// video record keyed by the provider's job ID. The provider call happens
// before local persistence because the ID is provider-assigned; if the save
// fails after submission the remote job is orphaned, which is an accepted
// degraded state recoverable by resubmitting.
func (s *RenderService) Submit(ctx context.Context, projectID string, settings RenderSettings) (string, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return "", err
	}

	webhookToken := token.NewWebhookToken()
	callbackURL := fmt.Sprintf("%s/webhooks/revid/%s", s.publicBaseURL, webhookToken)

	jobID, err := s.renderer.CreateRender(ctx, SubmitRequest{
		Script:     p.Script,
		Title:      settings.Title,
		Voice:      settings.Voice,
		Style:      settings.Style,
		Aspect:     settings.Aspect,
		WebhookURL: callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("video: submit render: %w", err)
	}

	// Upsert rather than create: an early webhook may have materialized the
	// record under this ID before we got here.
	if _, err := s.manager.CreateOrUpdate(ctx, jobID, CreateParams{
		ProjectID:    projectID,
		Title:        settings.Title,
		WebhookToken: webhookToken,
		Status:       StatusPending,
	}); err != nil {
		return "", fmt.Errorf("video: persist record: %w", err)
	}

	s.logger.Info("render job submitted",
		slog.String("project_id", projectID),
		slog.String("video_id", jobID),
		slog.String("voice", settings.Voice),
		slog.String("style", settings.Style),
		slog.String("aspect", settings.Aspect),
	)

	return jobID, nil
}

// Get retrieves a video without touching the provider.
func (s *RenderService) Get(ctx context.Context, id string) (*Video, error) {
	return s.manager.Get(ctx, id)
}

// List returns all videos.
func (s *RenderService) List(ctx context.Context) ([]*Video, error) {
	return s.manager.List(ctx)
}

// ListByProject returns a project's videos, newest first. The list is served
// from local records; only single-video reads reconcile against the provider.
func (s *RenderService) ListByProject(ctx context.Context, projectID string) ([]*Video, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.manager.ListByProject(ctx, projectID)
}

// Refresh is the read-triggered reconciliation path: for an in-flight video
// it asks the provider for the current job state and applies it locally.
// When the provider is unreachable the last-known local record is returned
// unchanged; stale-but-available beats erroring on the read path.
func (s *RenderService) Refresh(ctx context.Context, id string) (*Video, error) {
	v, err := s.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.IsTerminal() {
		return v, nil
	}

	result, err := s.renderer.RenderStatus(ctx, v.ID)
	if err != nil {
		s.logger.Warn("provider status fetch failed, serving last-known state",
			slog.String("video_id", v.ID),
			slog.String("error", err.Error()),
		)
		return v, nil
	}

	return s.apply(ctx, v.ID, result)
}

// Ingest is the webhook-triggered reconciliation path: it resolves the
// correlation token to a video and applies the normalized payload. An
// unknown token reports ErrTokenNotFound and never creates a record.
func (s *RenderService) Ingest(ctx context.Context, webhookToken string, result StatusResult) (*Video, error) {
	v, err := s.manager.GetByWebhookToken(ctx, webhookToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("webhook received",
		slog.String("video_id", v.ID),
		slog.String("status", string(result.Status)),
		slog.Int("progress", result.Progress),
	)

	return s.apply(ctx, v.ID, result)
}

// apply writes a normalized status result through the record manager and
// triggers the archive hook when the video just became ready.
func (s *RenderService) apply(ctx context.Context, id string, result StatusResult) (*Video, error) {
	fields := UpdateFields{
		Status:   &result.Status,
		Progress: &result.Progress,
	}
	if result.URL != "" {
		fields.URL = &result.URL
	}
	if result.ErrorMessage != "" {
		fields.ErrorMessage = &result.ErrorMessage
	}

	updated, err := s.manager.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil && updated.Status == StatusReady && updated.URL != "" && updated.ArchiveURL == "" {
		// Archive in the background with a detached context so a slow
		// download never holds up the webhook response.
		go s.archive(context.WithoutCancel(ctx), updated.ID, updated.URL)
	}

	return updated, nil
}

// archive re-homes the finished render and records the archived URL as
// video metadata. Best-effort only.
func (s *RenderService) archive(ctx context.Context, id, srcURL string) {
	archivedURL, err := s.archiver.Archive(ctx, id, srcURL)
	if err != nil {
		s.logger.Warn("archive failed",
			slog.String("video_id", id),
			slog.String("error", err.Error()),
		)
		return
	}
	if _, err := s.manager.Update(ctx, id, UpdateFields{ArchiveURL: &archivedURL}); err != nil {
		s.logger.Warn("failed to record archive URL",
			slog.String("video_id", id),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("render archived",
		slog.String("video_id", id),
		slog.String("archive_url", archivedURL),
	)
}
