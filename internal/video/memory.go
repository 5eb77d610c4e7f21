package video

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It keeps a secondary index from webhook token to video ID, matching the
// unique-token-per-video invariant.
// Suitable for development and testing; swap for persistent storage in production.
type MemoryRepository struct {
	mu      sync.RWMutex
	videos  map[string]*Video
	byToken map[string]string
}

// NewMemoryRepository creates a new in-memory video repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		videos:  make(map[string]*Video),
		byToken: make(map[string]string),
	}
}

// Save persists a video, replacing any existing record with the same ID.
// Creates a clone to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.videos[v.ID]; ok && prev.WebhookToken != "" && prev.WebhookToken != v.WebhookToken {
		delete(r.byToken, prev.WebhookToken)
	}
	r.videos[v.ID] = v.Clone()
	if v.WebhookToken != "" {
		r.byToken[v.WebhookToken] = v.ID
	}
	return nil
}

// FindByID retrieves a video by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return v.Clone(), nil
}

// FindByWebhookToken retrieves the video correlated with a webhook token.
func (r *MemoryRepository) FindByWebhookToken(_ context.Context, tok string) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[tok]
	if !ok {
		return nil, ErrTokenNotFound
	}
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return v.Clone(), nil
}

// FindByProject returns the videos owned by a project, newest first.
func (r *MemoryRepository) FindByProject(_ context.Context, projectID string) ([]*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Video, 0)
	for _, v := range r.videos {
		if v.ProjectID == projectID {
			result = append(result, v.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// List returns all videos in the repository.
func (r *MemoryRepository) List(_ context.Context) ([]*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Video, 0, len(r.videos))
	for _, v := range r.videos {
		result = append(result, v.Clone())
	}
	return result, nil
}
