package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scriptreel/scriptreel-api/internal/content"
	"github.com/scriptreel/scriptreel-api/internal/script"
)

// Static errors for the project service.
var (
	// ErrInvalidSourceType is returned when the analyze source type is unknown.
	ErrInvalidSourceType = errors.New("project: invalid source type")
	// ErrScriptNotEditable is returned when a script edit is attempted after
	// a render job has been created for the project.
	ErrScriptNotEditable = errors.New("project: script is only editable while draft")
)

// SourceType identifies how the submitted content should be interpreted.
type SourceType string

const (
	// SourceURL means the content is a URL whose text must be extracted.
	SourceURL SourceType = "url"
	// SourceText means the content is raw text used as-is.
	SourceText SourceType = "text"
)

// AnalyzeInput contains the parameters for creating a project from a source.
type AnalyzeInput struct {
	// Type selects between URL extraction and raw text.
	Type SourceType
	// Content is the URL or raw text, per Type.
	Content string
	// Title is optional; a dated default is used when empty.
	Title string
}

// UpdateInput contains the optional fields for a project edit.
// Nil fields are left untouched.
type UpdateInput struct {
	Title  *string
	Script *string
}

// Service orchestrates project creation and editing: content extraction,
// script generation, and the draft-only edit rules.
type Service struct {
	repo      Repository
	extractor content.Extractor
	generator script.Generator
	logger    *slog.Logger
}

// NewService creates a new project Service.
func NewService(repo Repository, extractor content.Extractor, generator script.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		extractor: extractor,
		generator: generator,
		logger:    logger,
	}
}

// Analyze creates a draft project from a content source: it extracts text
// when the source is a URL, generates a narration script, and persists the
// new project in draft status.
func (s *Service) Analyze(ctx context.Context, input AnalyzeInput) (*Project, error) {
	var extracted string
	switch input.Type {
	case SourceURL:
		text, err := s.extractor.Extract(ctx, input.Content)
		if err != nil {
			return nil, fmt.Errorf("project: extract content: %w", err)
		}
		extracted = text
	case SourceText:
		extracted = input.Content
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceType, input.Type)
	}

	generated, err := s.generator.Generate(ctx, extracted)
	if err != nil {
		return nil, fmt.Errorf("project: generate script: %w", err)
	}

	title := input.Title
	if title == "" {
		title = "Video " + time.Now().Format("2006-01-02")
	}

	p := New(title, extracted, generated)
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("project: save: %w", err)
	}

	s.logger.Info("project created",
		slog.String("project_id", p.ID),
		slog.String("source_type", string(input.Type)),
		slog.Int("content_chars", len(extracted)),
	)

	return p, nil
}

// Get retrieves a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

// Update applies a partial edit to a project. The title may change at any
// time; the script is editable only while the project is still draft.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Title != nil && *input.Title != "" {
		p.Title = *input.Title
		changed = true
	}
	if input.Script != nil {
		if p.Status != StatusDraft {
			return nil, ErrScriptNotEditable
		}
		p.Script = *input.Script
		changed = true
	}

	if !changed {
		return p, nil
	}

	p.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("project: save: %w", err)
	}
	return p, nil
}
