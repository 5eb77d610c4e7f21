package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/token"
)

// CreateParams contains the fields for creating a new video record.
type CreateParams struct {
	// ID is optional; when empty a local ID is generated. The rendering
	// provider's job ID is used here once known.
	ID string
	// ProjectID references the owning project. Required.
	ProjectID string
	// Title is the user-facing title.
	Title string
	// WebhookToken is the correlation token for inbound webhooks.
	WebhookToken string
	// Status is the initial status; defaults to pending.
	Status Status
	// Progress is the initial progress; defaults to 0.
	Progress int
}

// UpdateFields contains the optional fields for a partial video update.
// Nil fields are left untouched.
type UpdateFields struct {
	Status       *Status
	Progress     *int
	URL          *string
	ErrorMessage *string
	Title        *string
	WebhookToken *string
	ArchiveURL   *string
}

// ErrProjectIDRequired is returned when a video is created without an owner.
var ErrProjectIDRequired = errors.New("video: project ID is required")

// Manager owns all mutations of video records and the cascading updates to
// the owning project: creating a video moves the project to pending, and a
// terminal video status is the sole path by which the project reaches a
// terminal state.
type Manager struct {
	videos   Repository
	projects project.Repository
	logger   *slog.Logger
}

// NewManager creates a new video record manager.
func NewManager(videos Repository, projects project.Repository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		videos:   videos,
		projects: projects,
		logger:   logger,
	}
}

// Create persists a new video record and cascades: the owning project is
// linked to the video and moved to pending.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Video, error) {
	if params.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}

	id := params.ID
	if id == "" {
		id = token.NewVideoID()
	}
	status := params.Status
	if status == "" {
		status = StatusPending
	}

	now := time.Now()
	v := &Video{
		ID:           id,
		ProjectID:    params.ProjectID,
		Title:        params.Title,
		Status:       status,
		Progress:     clampProgress(params.Progress),
		WebhookToken: params.WebhookToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.videos.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("video: save: %w", err)
	}

	if err := m.linkProject(ctx, v); err != nil {
		// The video record exists; the link will be repaired on the next
		// cascade. Log and keep going.
		m.logger.Warn("failed to link project to video",
			slog.String("video_id", v.ID),
			slog.String("project_id", v.ProjectID),
			slog.String("error", err.Error()),
		)
	}

	return v.Clone(), nil
}

// Get retrieves a video by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Video, error) {
	return m.videos.FindByID(ctx, id)
}

// GetByWebhookToken retrieves the video correlated with a webhook token.
func (m *Manager) GetByWebhookToken(ctx context.Context, tok string) (*Video, error) {
	return m.videos.FindByWebhookToken(ctx, tok)
}

// List returns all videos.
func (m *Manager) List(ctx context.Context) ([]*Video, error) {
	return m.videos.List(ctx)
}

// ListByProject returns a project's videos, newest first.
func (m *Manager) ListByProject(ctx context.Context, projectID string) ([]*Video, error) {
	return m.videos.FindByProject(ctx, projectID)
}

// Update applies the supplied fields to a video and stamps the update time.
// Once a video is terminal, status, progress, URL, and error are frozen;
// only metadata (title, archive URL) still changes. Applying the same
// terminal state twice is therefore a no-op, which makes duplicate webhook
// deliveries and webhook/poll races safe. Progress never regresses while
// the video is still in flight.
// A terminal status cascades to the owning project.
func (m *Manager) Update(ctx context.Context, id string, fields UpdateFields) (*Video, error) {
	v, err := m.videos.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasTerminal := v.IsTerminal()
	changed := false

	if !wasTerminal {
		if fields.Status != nil && fields.Status.IsValid() && *fields.Status != v.Status {
			v.Status = *fields.Status
			changed = true
		}
		if fields.Progress != nil {
			p := clampProgress(*fields.Progress)
			if v.IsTerminal() || p > v.Progress {
				v.Progress = p
				changed = true
			}
		}
		if fields.URL != nil && *fields.URL != "" && *fields.URL != v.URL {
			v.URL = *fields.URL
			changed = true
		}
		if fields.ErrorMessage != nil && *fields.ErrorMessage != "" && *fields.ErrorMessage != v.ErrorMessage {
			v.ErrorMessage = *fields.ErrorMessage
			changed = true
		}
		if fields.WebhookToken != nil && *fields.WebhookToken != "" && *fields.WebhookToken != v.WebhookToken {
			v.WebhookToken = *fields.WebhookToken
			changed = true
		}
		// Progress and terminal status must agree at the edges.
		if v.Status == StatusReady && v.Progress != 100 {
			v.Progress = 100
			changed = true
		}
	}

	if fields.Title != nil && *fields.Title != "" && *fields.Title != v.Title {
		v.Title = *fields.Title
		changed = true
	}
	if fields.ArchiveURL != nil && *fields.ArchiveURL != "" && *fields.ArchiveURL != v.ArchiveURL {
		v.ArchiveURL = *fields.ArchiveURL
		changed = true
	}

	if !changed {
		// Duplicate deliveries of an already-applied state are a no-op.
		return v, nil
	}

	v.UpdatedAt = time.Now()
	if err := m.videos.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("video: save: %w", err)
	}

	if !wasTerminal && v.IsTerminal() {
		m.cascadeTerminal(ctx, v)
	}

	return v, nil
}

// CreateOrUpdate upserts a video by ID: if a record exists it behaves as
// Update, otherwise as Create with the explicit ID. This collapses the race
// between job submission (which learns the provider ID late) and an early
// webhook or poll referencing the same ID.
func (m *Manager) CreateOrUpdate(ctx context.Context, id string, params CreateParams) (*Video, error) {
	if id == "" {
		return nil, ErrVideoNotFound
	}

	_, err := m.videos.FindByID(ctx, id)
	switch {
	case err == nil:
		status := params.Status
		fields := UpdateFields{}
		if status != "" {
			fields.Status = &status
		}
		if params.Title != "" {
			fields.Title = &params.Title
		}
		if params.WebhookToken != "" {
			fields.WebhookToken = &params.WebhookToken
		}
		if params.Progress != 0 {
			fields.Progress = &params.Progress
		}
		return m.Update(ctx, id, fields)
	case errors.Is(err, ErrVideoNotFound):
		params.ID = id
		return m.Create(ctx, params)
	default:
		return nil, err
	}
}

// linkProject records the project -> video forward reference and moves the
// project to pending.
func (m *Manager) linkProject(ctx context.Context, v *Video) error {
	p, err := m.projects.FindByID(ctx, v.ProjectID)
	if err != nil {
		return err
	}
	p.VideoID = v.ID
	if err := p.TransitionTo(project.StatusPending); err != nil {
		// Re-submissions against a non-draft project keep the link fresh
		// without forcing a backwards transition.
		p.UpdatedAt = time.Now()
	}
	return m.projects.Save(ctx, p)
}

// cascadeTerminal mirrors a terminal video status onto the owning project.
// Failures are logged, not surfaced: the video record is already correct
// and a later reconciliation repeats the cascade.
func (m *Manager) cascadeTerminal(ctx context.Context, v *Video) {
	p, err := m.projects.FindByID(ctx, v.ProjectID)
	if err != nil {
		m.logger.Warn("cascade: project not found",
			slog.String("video_id", v.ID),
			slog.String("project_id", v.ProjectID),
		)
		return
	}

	target := v.Status.ProjectStatus()
	if p.Status == target {
		return
	}
	if err := p.TransitionTo(target); err != nil {
		m.logger.Warn("cascade: invalid project transition",
			slog.String("project_id", p.ID),
			slog.String("from", string(p.Status)),
			slog.String("to", string(target)),
		)
		return
	}
	if err := m.projects.Save(ctx, p); err != nil {
		m.logger.Error("cascade: failed to save project",
			slog.String("project_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	m.logger.Info("project status cascaded",
		slog.String("project_id", p.ID),
		slog.String("video_id", v.ID),
		slog.String("status", string(target)),
	)
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
