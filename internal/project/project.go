// Package project provides the Project aggregate: a user's content source,
// its generated narration script, and the lifecycle state mirroring the
// associated render job. It includes the repository port for persistence.
package project

import (
	"errors"
	"time"

	"github.com/scriptreel/scriptreel-api/internal/token"
)

// Status represents the current state of a Project.
// Draft is Project-only; the remaining states mirror the associated video.
type Status string

const (
	// StatusDraft indicates the script is still editable and no render job exists.
	StatusDraft Status = "draft"
	// StatusPending indicates a render job has been submitted for the project.
	StatusPending Status = "pending"
	// StatusBuilding indicates the render job is in progress.
	StatusBuilding Status = "building"
	// StatusReady indicates the render job finished and a video URL exists.
	StatusReady Status = "ready"
	// StatusFailed indicates the render job failed.
	StatusFailed Status = "failed"
)

// IsValid returns true if the status is one of the known project states.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusBuilding, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// ErrInvalidTransition is returned when a project status change would move
// the lifecycle backwards.
var ErrInvalidTransition = errors.New("project: invalid status transition")

// validTransitions defines the forward-only project lifecycle. The draft
// state is left again only when a video is created; terminal states are
// reached exclusively by the video cascade.
var validTransitions = map[Status][]Status{
	StatusDraft:    {StatusPending},
	StatusPending:  {StatusBuilding, StatusReady, StatusFailed},
	StatusBuilding: {StatusReady, StatusFailed},
	StatusReady:    {},
	StatusFailed:   {},
}

// CanTransition checks if moving from one project status to another is allowed.
// A no-op transition (same status) is always permitted.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Project represents a unit of user work: extracted content plus an
// editable narration script, owning at most one rendering job.
type Project struct {
	// ID is the unique identifier for this project.
	ID string
	// Title is the user-facing project title.
	Title string
	// OriginalContent is the extracted source text the script was built from.
	OriginalContent string
	// Script is the narration script submitted to the rendering provider.
	Script string
	// Status is the current lifecycle state.
	Status Status
	// VideoID references the project's current video record, if any.
	VideoID string
	// CreatedAt is when the project was created.
	CreatedAt time.Time
	// UpdatedAt is when the project was last updated.
	UpdatedAt time.Time
}

// New creates a draft Project with a generated ID.
func New(title, originalContent, script string) *Project {
	now := time.Now()
	return &Project{
		ID:              token.NewProjectID(),
		Title:           title,
		OriginalContent: originalContent,
		Script:          script,
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// TransitionTo changes the project status, enforcing the forward-only
// lifecycle. Returns ErrInvalidTransition if the move is not allowed.
func (p *Project) TransitionTo(status Status) error {
	if !CanTransition(p.Status, status) {
		return ErrInvalidTransition
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// Clone creates a copy of the project for safe reads.
func (p *Project) Clone() *Project {
	cp := *p
	return &cp
}
