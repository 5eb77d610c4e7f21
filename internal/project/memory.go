package project

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; swap for persistent storage in production.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewMemoryRepository creates a new in-memory project repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[string]*Project),
	}
}

// Save persists a project to the in-memory storage.
// Creates a clone to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p.Clone()
	return nil
}

// FindByID retrieves a project by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return p.Clone(), nil
}

// List returns all projects ordered by creation time, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
