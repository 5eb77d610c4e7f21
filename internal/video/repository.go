package video

import (
	"context"
	"errors"
)

// Static errors for video lookups. Absence is an expected transient case
// for callers (a webhook may race the submission path), not a defect.
var (
	// ErrVideoNotFound is returned when a video cannot be found by ID.
	ErrVideoNotFound = errors.New("video not found")
	// ErrTokenNotFound is returned when no video matches a webhook token.
	ErrTokenNotFound = errors.New("video not found for webhook token")
)

// Repository defines the interface for video persistence.
// Save is an upsert: the provider-assigned job ID is only known after an
// external call completes, so insert-or-replace by ID is the primitive
// operation rather than separate create and update paths.
type Repository interface {
	// Save persists a video, replacing any existing record with the same ID.
	Save(ctx context.Context, v *Video) error

	// FindByID retrieves a video by its unique identifier.
	// Returns ErrVideoNotFound if the video does not exist.
	FindByID(ctx context.Context, id string) (*Video, error)

	// FindByWebhookToken retrieves the video correlated with a webhook token.
	// Returns ErrTokenNotFound if no video carries the token.
	FindByWebhookToken(ctx context.Context, token string) (*Video, error)

	// FindByProject returns the videos owned by a project, newest first.
	FindByProject(ctx context.Context, projectID string) ([]*Video, error)

	// List returns all videos.
	List(ctx context.Context) ([]*Video, error)
}
