// Package video provides the Video aggregate mirroring one external
// rendering job's lifecycle, the record manager that keeps video and
// project state consistent, and the render service that reconciles local
// records against the provider via webhooks and polling.
package video

import (
	"time"

	"github.com/scriptreel/scriptreel-api/internal/project"
)

// Status represents the current state of a Video.
// The vocabulary is canonical and decoupled from the provider's raw strings.
type Status string

const (
	// StatusPending indicates the render job was submitted but has not started.
	StatusPending Status = "pending"
	// StatusBuilding indicates the provider is generating or rendering the video.
	StatusBuilding Status = "building"
	// StatusReady indicates the render finished and a video URL is available.
	StatusReady Status = "ready"
	// StatusFailed indicates the render failed.
	StatusFailed Status = "failed"
)

// IsValid returns true if the status is one of the known video states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusBuilding, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is a terminal state. Terminal
// records are immutable for status, progress, URL, and error.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// ProjectStatus translates a video status into the owning project's status
// vocabulary. Project and video enums diverge (draft is project-only), so
// cross-entity copying always goes through this translation.
func (s Status) ProjectStatus() project.Status {
	switch s {
	case StatusPending:
		return project.StatusPending
	case StatusBuilding:
		return project.StatusBuilding
	case StatusReady:
		return project.StatusReady
	case StatusFailed:
		return project.StatusFailed
	default:
		return project.StatusPending
	}
}

// Video represents a local record mirroring one external rendering job.
// Its ID is the provider-assigned job ID once a render has been submitted.
type Video struct {
	// ID is the unique identifier for this video record.
	ID string
	// ProjectID references the owning project.
	ProjectID string
	// Title is the user-facing video title.
	Title string
	// Status is the current canonical state.
	Status Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// URL is the finished video URL, set when the render completes.
	URL string
	// ArchiveURL is the re-homed URL when the finished render was archived
	// to our own storage. Metadata only; never required for correctness.
	ArchiveURL string
	// ErrorMessage contains the provider error if the render failed.
	ErrorMessage string
	// WebhookToken is the correlation token embedded in the callback URL.
	// Exactly one video maps to a given token.
	WebhookToken string
	// CreatedAt is when the record was created.
	CreatedAt time.Time
	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// IsTerminal returns true if the video is in a terminal state.
func (v *Video) IsTerminal() bool {
	return v.Status.IsTerminal()
}

// Clone creates a copy of the video for safe reads.
func (v *Video) Clone() *Video {
	cp := *v
	return &cp
}
