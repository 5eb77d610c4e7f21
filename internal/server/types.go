// Package server provides the HTTP server for the ScriptReel API.
// It includes handlers, middleware, routes, and DTOs separated from domain
// types. DTO fields use camelCase JSON regardless of the store's internal
// naming convention.
package server

import (
	"time"

	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/video"
)

// AnalyzeRequest is the HTTP request body for creating a project from a
// content source.
type AnalyzeRequest struct {
	// Type selects the source interpretation: "url" or "text".
	Type string `json:"type" validate:"required,oneof=url text"`
	// Content is the URL to extract from or the raw text itself.
	Content string `json:"content" validate:"required"`
	// Title is optional; a dated default is used when empty.
	Title string `json:"title,omitempty"`
}

// UpdateProjectRequest is the HTTP request body for editing a project.
type UpdateProjectRequest struct {
	Title  *string `json:"title,omitempty"`
	Script *string `json:"script,omitempty"`
}

// ProjectResponse is the HTTP representation of a project.
type ProjectResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	OriginalContent string    `json:"originalContent"`
	Script          string    `json:"script"`
	Status          string    `json:"status"`
	VideoID         string    `json:"videoId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:              p.ID,
		Title:           p.Title,
		OriginalContent: p.OriginalContent,
		Script:          p.Script,
		Status:          string(p.Status),
		VideoID:         p.VideoID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// RenderSettingsRequest contains the user-selected render options.
type RenderSettingsRequest struct {
	Title  string `json:"title" validate:"required"`
	Voice  string `json:"voice" validate:"required"`
	Style  string `json:"style" validate:"required"`
	Aspect string `json:"aspect" validate:"required,oneof=16:9 9:16 1:1"`
}

// CreateVideoRequest is the HTTP request body for submitting a render job.
type CreateVideoRequest struct {
	ProjectID string                `json:"projectId" validate:"required"`
	Settings  RenderSettingsRequest `json:"settings" validate:"required"`
}

// CreateVideoResponse is the HTTP response after submitting a render job.
type CreateVideoResponse struct {
	VideoID string `json:"videoId"`
}

// VideoResponse is the HTTP representation of a video record.
type VideoResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	URL        string    `json:"url,omitempty"`
	ArchiveURL string    `json:"archiveUrl,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toVideoResponse(v *video.Video) VideoResponse {
	return VideoResponse{
		ID:         v.ID,
		ProjectID:  v.ProjectID,
		Title:      v.Title,
		Status:     string(v.Status),
		Progress:   v.Progress,
		URL:        v.URL,
		ArchiveURL: v.ArchiveURL,
		Error:      v.ErrorMessage,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

// WebhookResponse acknowledges a processed webhook delivery.
type WebhookResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
