package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check that GormRepository implements Repository.
var _ Repository = (*GormRepository)(nil)

// videoRecord is the database representation of a Video. Columns use
// snake_case; the webhook token carries a unique index to enforce the
// one-video-per-token invariant at the store.
type videoRecord struct {
	ID           string    `gorm:"column:id;primaryKey;size:64"`
	ProjectID    string    `gorm:"column:project_id;size:64;index"`
	Title        string    `gorm:"column:title;size:255"`
	Status       string    `gorm:"column:status;size:16;index"`
	Progress     int       `gorm:"column:progress"`
	URL          string    `gorm:"column:url;size:1024"`
	ArchiveURL   string    `gorm:"column:archive_url;size:1024"`
	ErrorMessage string    `gorm:"column:error;type:text"`
	WebhookToken string    `gorm:"column:webhook_token;size:64;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName sets the table name for GORM.
func (videoRecord) TableName() string { return "videos" }

func toVideoRecord(v *Video) *videoRecord {
	return &videoRecord{
		ID:           v.ID,
		ProjectID:    v.ProjectID,
		Title:        v.Title,
		Status:       string(v.Status),
		Progress:     v.Progress,
		URL:          v.URL,
		ArchiveURL:   v.ArchiveURL,
		ErrorMessage: v.ErrorMessage,
		WebhookToken: v.WebhookToken,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func (rec *videoRecord) toVideo() *Video {
	return &Video{
		ID:           rec.ID,
		ProjectID:    rec.ProjectID,
		Title:        rec.Title,
		Status:       Status(rec.Status),
		Progress:     rec.Progress,
		URL:          rec.URL,
		ArchiveURL:   rec.ArchiveURL,
		ErrorMessage: rec.ErrorMessage,
		WebhookToken: rec.WebhookToken,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// GormRepository is a GORM-backed implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a GORM video repository and migrates its schema.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&videoRecord{}); err != nil {
		return nil, fmt.Errorf("video: migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// Save persists a video, replacing any existing row with the same ID.
func (r *GormRepository) Save(ctx context.Context, v *Video) error {
	rec := toVideoRecord(v)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("video: save: %w", err)
	}
	return nil
}

// FindByID retrieves a video by its ID.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*Video, error) {
	var rec videoRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("video: find: %w", err)
	}
	return rec.toVideo(), nil
}

// FindByWebhookToken retrieves the video correlated with a webhook token.
func (r *GormRepository) FindByWebhookToken(ctx context.Context, tok string) (*Video, error) {
	var rec videoRecord
	err := r.db.WithContext(ctx).First(&rec, "webhook_token = ?", tok).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("video: find by token: %w", err)
	}
	return rec.toVideo(), nil
}

// FindByProject returns the videos owned by a project, newest first.
func (r *GormRepository) FindByProject(ctx context.Context, projectID string) ([]*Video, error) {
	var recs []videoRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("video: find by project: %w", err)
	}
	result := make([]*Video, 0, len(recs))
	for i := range recs {
		result = append(result, recs[i].toVideo())
	}
	return result, nil
}

// List returns all videos ordered by creation time, newest first.
func (r *GormRepository) List(ctx context.Context) ([]*Video, error) {
	var recs []videoRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("video: list: %w", err)
	}
	result := make([]*Video, 0, len(recs))
	for i := range recs {
		result = append(result, recs[i].toVideo())
	}
	return result, nil
}
