package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/scriptreel/scriptreel-api/internal/poller"
	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/revid"
	"github.com/scriptreel/scriptreel-api/internal/video"
)

// VoiceLister exposes the provider's voice catalogue to the API.
type VoiceLister interface {
	Voices(ctx context.Context) ([]revid.Voice, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	projects         *project.Service
	videos           *video.RenderService
	watcher          *poller.Watcher
	voices           VoiceLister
	validator        *validator.Validate
	logger           *slog.Logger
	watchAfterSubmit bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithWatchAfterSubmit enables or disables the background watch started
// after a render submission. The watch drives the polling reconciliation
// path so lost webhooks self-heal without a client asking.
func WithWatchAfterSubmit(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.watchAfterSubmit = enabled
	}
}

// WithVoiceLister sets the provider voice catalogue source.
func WithVoiceLister(v VoiceLister) HandlerOption {
	return func(h *Handlers) {
		h.voices = v
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(projects *project.Service, videos *video.RenderService, watcher *poller.Watcher, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		projects:         projects,
		videos:           videos,
		watcher:          watcher,
		validator:        validator.New(),
		logger:           logger,
		watchAfterSubmit: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// AnalyzeSource handles POST /projects requests: it extracts content from
// the submitted source, generates a narration script, and creates a draft
// project.
func (h *Handlers) AnalyzeSource(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	p, err := h.projects.Analyze(r.Context(), project.AnalyzeInput{
		Type:    project.SourceType(req.Type),
		Content: req.Content,
		Title:   req.Title,
	})
	if err != nil {
		h.logger.Error("failed to analyze content",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to analyze content", "ANALYZE_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// ListProjects handles GET /projects requests.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list projects", "PROJECT_LIST_FAILED")
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProject handles GET /projects/{id} requests.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "project ID is required", "MISSING_PROJECT_ID")
		return
	}

	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get project",
			slog.String("project_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get project", "PROJECT_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// UpdateProject handles PATCH /projects/{id} requests. The script is only
// editable while the project is still draft.
func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "project ID is required", "MISSING_PROJECT_ID")
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	p, err := h.projects.Update(r.Context(), id, project.UpdateInput{
		Title:  req.Title,
		Script: req.Script,
	})
	if err != nil {
		switch {
		case errors.Is(err, project.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
		case errors.Is(err, project.ErrScriptNotEditable):
			writeError(w, http.StatusConflict, "script is only editable while draft", "SCRIPT_NOT_EDITABLE")
		default:
			h.logger.Error("failed to update project",
				slog.String("project_id", id),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to update project", "PROJECT_UPDATE_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// ListProjectVideos handles GET /projects/{id}/videos requests, returning
// the project's render history newest first.
func (h *Handlers) ListProjectVideos(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "project ID is required", "MISSING_PROJECT_ID")
		return
	}

	videos, err := h.videos.ListByProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to list project videos",
			slog.String("project_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list videos", "VIDEO_LIST_FAILED")
		return
	}

	resp := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, toVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateVideo handles POST /videos requests: it submits a render job for
// the project's script and persists the local video record.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	videoID, err := h.videos.Submit(r.Context(), req.ProjectID, video.RenderSettings{
		Title:  req.Settings.Title,
		Voice:  req.Settings.Voice,
		Style:  req.Settings.Style,
		Aspect: req.Settings.Aspect,
	})
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to submit render job",
			slog.String("project_id", req.ProjectID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to create video", "RENDER_SUBMIT_FAILED")
		return
	}

	// Watch in the background with a detached context so the reconciliation
	// loop outlives this request.
	if h.watchAfterSubmit && h.watcher != nil {
		go func(ctx context.Context, id string) {
			if _, err := h.watcher.Watch(ctx, id); err != nil {
				h.logger.Warn("background watch stopped",
					slog.String("video_id", id),
					slog.String("error", err.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), videoID)
	}

	writeJSON(w, http.StatusAccepted, CreateVideoResponse{VideoID: videoID})
}

// GetVideo handles GET /videos/{id} requests. For in-flight videos the read
// path reconciles against the provider first; if the provider is
// unreachable the last-known local state is served.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "video ID is required", "MISSING_VIDEO_ID")
		return
	}

	v, err := h.videos.Refresh(r.Context(), id)
	if err != nil {
		if errors.Is(err, video.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "video not found", "VIDEO_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get video",
			slog.String("video_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get video", "VIDEO_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

// RevidWebhook handles POST /webhooks/revid/{token} requests. A payload
// without a usable status is treated as still building rather than an
// error, so the provider never enters a retry storm over ambiguous bodies;
// only an unknown token or a store failure surfaces a non-2xx status.
func (h *Handlers) RevidWebhook(w http.ResponseWriter, r *http.Request) {
	tok := r.PathValue("token")
	if tok == "" {
		writeError(w, http.StatusBadRequest, "webhook token is required", "MISSING_WEBHOOK_TOKEN")
		return
	}

	var payload revid.StatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("malformed webhook payload, treating as still building",
			slog.String("token", tok),
			slog.String("error", err.Error()),
		)
		payload = revid.StatusPayload{}
	}

	_, err := h.videos.Ingest(r.Context(), tok, revid.Normalize(payload))
	if err != nil {
		if errors.Is(err, video.ErrTokenNotFound) {
			h.logger.Warn("webhook for unknown token",
				slog.String("token", tok),
			)
			writeError(w, http.StatusNotFound, "video not found", "VIDEO_NOT_FOUND")
			return
		}
		h.logger.Error("failed to process webhook",
			slog.String("token", tok),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to process webhook", "WEBHOOK_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Success: true})
}

// ListVoices handles GET /voices requests, proxying the provider's voice
// catalogue.
func (h *Handlers) ListVoices(w http.ResponseWriter, r *http.Request) {
	if h.voices == nil {
		writeError(w, http.StatusNotFound, "voice catalogue not available", "VOICES_UNAVAILABLE")
		return
	}

	voices, err := h.voices.Voices(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch voices",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch voices", "VOICES_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, voices)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
