package video

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	v := &Video{ID: "vid-1", ProjectID: "prj-1", Status: StatusPending, WebhookToken: "tok-1"}
	if err := repo.Save(ctx, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByID(ctx, "vid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ProjectID != "prj-1" {
		t.Errorf("expected project 'prj-1', got %q", found.ProjectID)
	}

	// Mutating the returned record must not leak into the store.
	found.Status = StatusFailed
	again, _ := repo.FindByID(ctx, "vid-1")
	if again.Status != StatusPending {
		t.Error("expected repository to store clones")
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindByWebhookToken(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &Video{ID: "vid-1", WebhookToken: "tok-1"})
	_ = repo.Save(ctx, &Video{ID: "vid-2", WebhookToken: "tok-2"})

	found, err := repo.FindByWebhookToken(ctx, "tok-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != "vid-2" {
		t.Errorf("expected 'vid-2', got %q", found.ID)
	}

	_, err = repo.FindByWebhookToken(ctx, "tok-404")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestMemoryRepository_Save_ReindexesToken(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &Video{ID: "vid-1", WebhookToken: "tok-old"})
	_ = repo.Save(ctx, &Video{ID: "vid-1", WebhookToken: "tok-new"})

	if _, err := repo.FindByWebhookToken(ctx, "tok-old"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected old token to be unindexed, got %v", err)
	}
	found, err := repo.FindByWebhookToken(ctx, "tok-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != "vid-1" {
		t.Errorf("expected 'vid-1', got %q", found.ID)
	}
}

func TestMemoryRepository_FindByProject(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	older := &Video{ID: "vid-1", ProjectID: "prj-1", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Video{ID: "vid-2", ProjectID: "prj-1", CreatedAt: time.Now()}
	other := &Video{ID: "vid-3", ProjectID: "prj-2", CreatedAt: time.Now()}
	_ = repo.Save(ctx, older)
	_ = repo.Save(ctx, newer)
	_ = repo.Save(ctx, other)

	got, err := repo.FindByProject(ctx, "prj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(got))
	}
	if got[0].ID != "vid-2" || got[1].ID != "vid-1" {
		t.Errorf("expected newest first, got [%q, %q]", got[0].ID, got[1].ID)
	}

	empty, err := repo.FindByProject(ctx, "prj-404")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no videos for unknown project, got %d", len(empty))
	}
}

func TestMemoryRepository_Save_UpsertsByID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &Video{ID: "vid-1", Status: StatusPending})
	_ = repo.Save(ctx, &Video{ID: "vid-1", Status: StatusBuilding})

	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 video after upsert, got %d", len(all))
	}
	if all[0].Status != StatusBuilding {
		t.Errorf("expected latest write to win, got %q", all[0].Status)
	}
}
