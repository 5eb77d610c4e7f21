package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptreel/scriptreel-api/internal/poller"
	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/revid"
	"github.com/scriptreel/scriptreel-api/internal/video"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	script string
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.script, f.err
}

type fakeRenderer struct {
	jobID     string
	submitErr error
	status    video.StatusResult
	statusErr error
	lastReq   video.SubmitRequest
}

func (f *fakeRenderer) CreateRender(_ context.Context, req video.SubmitRequest) (string, error) {
	f.lastReq = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.jobID, nil
}

func (f *fakeRenderer) RenderStatus(_ context.Context, _ string) (video.StatusResult, error) {
	if f.statusErr != nil {
		return video.StatusResult{}, f.statusErr
	}
	return f.status, nil
}

type fakeVoiceLister struct {
	voices []revid.Voice
	err    error
}

func (f *fakeVoiceLister) Voices(_ context.Context) ([]revid.Voice, error) {
	return f.voices, f.err
}

type testEnv struct {
	router   http.Handler
	renderer *fakeRenderer
	projects project.Repository
	videos   *video.Manager
}

func setupTestServer(t *testing.T, opts ...HandlerOption) *testEnv {
	t.Helper()

	projectRepo := project.NewMemoryRepository()
	videoRepo := video.NewMemoryRepository()
	renderer := &fakeRenderer{jobID: "job-1"}

	projectSvc := project.NewService(projectRepo, &fakeExtractor{text: "extracted"}, &fakeGenerator{script: "a script"}, nil)
	manager := video.NewManager(videoRepo, projectRepo, nil)
	renderSvc := video.NewRenderService(manager, projectRepo, renderer, "https://api.example.com", nil)
	watcher := poller.NewWatcher(renderSvc, time.Millisecond, nil)

	base := []HandlerOption{WithWatchAfterSubmit(false)}
	h := NewHandlers(projectSvc, renderSvc, watcher, nil, append(base, opts...)...)
	router := NewRouter(h, nil, DefaultConfig())

	return &testEnv{
		router:   router,
		renderer: renderer,
		projects: projectRepo,
		videos:   manager,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedProject(t *testing.T) *project.Project {
	t.Helper()
	p := project.New("Seeded", "content", "seeded script")
	require.NoError(t, e.projects.Save(context.Background(), p))
	return p
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAnalyzeSource(t *testing.T) {
	t.Run("creates draft project from url", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/projects", AnalyzeRequest{
			Type:    "url",
			Content: "https://example.com/article",
			Title:   "My Video",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "My Video", resp.Title)
		assert.Equal(t, "extracted", resp.OriginalContent)
		assert.Equal(t, "a script", resp.Script)
	})

	t.Run("creates draft project from raw text", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/projects", AnalyzeRequest{
			Type:    "text",
			Content: "pasted text",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("rejects unknown source type", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/projects", AnalyzeRequest{
			Type:    "rss",
			Content: "x",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		env := setupTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JSON")
	})
}

func TestGetProject(t *testing.T) {
	env := setupTestServer(t)
	p := env.seedProject(t)

	t.Run("found", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects/"+p.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, p.ID, resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "PROJECT_NOT_FOUND")
	})
}

func TestListProjects(t *testing.T) {
	env := setupTestServer(t)
	env.seedProject(t)
	env.seedProject(t)

	rec := env.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestUpdateProject(t *testing.T) {
	t.Run("edits script while draft", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		script := "edited script"
		rec := env.do(t, http.MethodPatch, "/projects/"+p.ID, UpdateProjectRequest{Script: &script})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "edited script", resp.Script)
	})

	t.Run("script locked after submission", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "alloy", Style: "anime", Aspect: "16:9"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		script := "too late"
		rec = env.do(t, http.MethodPatch, "/projects/"+p.ID, UpdateProjectRequest{Script: &script})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "SCRIPT_NOT_EDITABLE")
	})

	t.Run("not found", func(t *testing.T) {
		env := setupTestServer(t)

		title := "x"
		rec := env.do(t, http.MethodPatch, "/projects/missing", UpdateProjectRequest{Title: &title})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateVideo(t *testing.T) {
	t.Run("submits render and returns job ID", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "My Video", Voice: "alloy", Style: "anime", Aspect: "9:16"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp CreateVideoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp.VideoID)

		// The render job got the project's script.
		assert.Equal(t, "seeded script", env.renderer.lastReq.Script)

		// The project left draft.
		stored, err := env.projects.FindByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, project.StatusPending, stored.Status)
	})

	t.Run("unknown project", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: "missing",
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "16:9"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "PROJECT_NOT_FOUND")
	})

	t.Run("provider failure", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)
		env.renderer.submitErr = errors.New("upstream down")

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "16:9"},
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "RENDER_SUBMIT_FAILED")
	})

	t.Run("rejects bad aspect ratio", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "4:3"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})
}

func TestGetVideo(t *testing.T) {
	t.Run("reconciles against provider on read", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "16:9"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		env.renderer.status = video.StatusResult{Status: video.StatusBuilding, Progress: 70}

		rec = env.do(t, http.MethodGet, "/videos/job-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp VideoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "building", resp.Status)
		assert.Equal(t, 70, resp.Progress)
	})

	t.Run("not found", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodGet, "/videos/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "VIDEO_NOT_FOUND")
	})
}

func TestListProjectVideos(t *testing.T) {
	t.Run("returns render history", func(t *testing.T) {
		env := setupTestServer(t)
		p := env.seedProject(t)

		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "16:9"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		rec = env.do(t, http.MethodGet, "/projects/"+p.ID+"/videos", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []VideoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "job-1", resp[0].ID)
		assert.Equal(t, p.ID, resp[0].ProjectID)
	})

	t.Run("unknown project", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodGet, "/projects/missing/videos", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "PROJECT_NOT_FOUND")
	})
}

func TestRevidWebhook(t *testing.T) {
	submit := func(t *testing.T, env *testEnv) (projectID, token string) {
		t.Helper()
		p := env.seedProject(t)
		rec := env.do(t, http.MethodPost, "/videos", CreateVideoRequest{
			ProjectID: p.ID,
			Settings:  RenderSettingsRequest{Title: "t", Voice: "v", Style: "s", Aspect: "16:9"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
		token = strings.TrimPrefix(env.renderer.lastReq.WebhookURL, "https://api.example.com/webhooks/revid/")
		require.NotEmpty(t, token)
		return p.ID, token
	}

	t.Run("completion webhook finalizes video and project", func(t *testing.T) {
		env := setupTestServer(t)
		projectID, token := submit(t, env)

		rec := env.do(t, http.MethodPost, "/webhooks/revid/"+token, revid.StatusPayload{
			Status:   "completed",
			VideoURL: "https://cdn.example.com/v.mp4",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)

		v, err := env.videos.Get(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, video.StatusReady, v.Status)
		assert.Equal(t, 100, v.Progress)
		assert.Equal(t, "https://cdn.example.com/v.mp4", v.URL)

		stored, err := env.projects.FindByID(context.Background(), projectID)
		require.NoError(t, err)
		assert.Equal(t, project.StatusReady, stored.Status)
	})

	t.Run("unknown token returns 404", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/webhooks/revid/no-such-token", revid.StatusPayload{Status: "completed"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "VIDEO_NOT_FOUND")
	})

	t.Run("malformed payload treated as still building", func(t *testing.T) {
		env := setupTestServer(t)
		_, token := submit(t, env)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/revid/"+token, strings.NewReader("{broken"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		v, err := env.videos.Get(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, video.StatusBuilding, v.Status)
		assert.Equal(t, 50, v.Progress)
	})

	t.Run("duplicate terminal delivery is idempotent", func(t *testing.T) {
		env := setupTestServer(t)
		_, token := submit(t, env)

		payload := revid.StatusPayload{Status: "completed", VideoURL: "https://cdn.example.com/v.mp4"}
		rec := env.do(t, http.MethodPost, "/webhooks/revid/"+token, payload)
		require.Equal(t, http.StatusOK, rec.Code)

		first, err := env.videos.Get(context.Background(), "job-1")
		require.NoError(t, err)

		rec = env.do(t, http.MethodPost, "/webhooks/revid/"+token, payload)
		require.Equal(t, http.StatusOK, rec.Code)

		second, err := env.videos.Get(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.Progress, second.Progress)
		assert.Equal(t, first.URL, second.URL)
		assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))
	})
}

func TestListVoices(t *testing.T) {
	t.Run("returns catalogue", func(t *testing.T) {
		lister := &fakeVoiceLister{voices: []revid.Voice{{ID: "alloy", Name: "Alloy"}}}
		env := setupTestServer(t, WithVoiceLister(lister))

		rec := env.do(t, http.MethodGet, "/voices", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []revid.Voice
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "alloy", resp[0].ID)
	})

	t.Run("provider failure returns 502", func(t *testing.T) {
		lister := &fakeVoiceLister{err: errors.New("provider down")}
		env := setupTestServer(t, WithVoiceLister(lister))

		rec := env.do(t, http.MethodGet, "/voices", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "VOICES_FETCH_FAILED")
	})

	t.Run("unavailable without a lister", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodGet, "/voices", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
