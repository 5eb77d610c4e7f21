package project

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

// projectRecord is the database representation of a Project. Columns use
// snake_case; the translation to the application's naming happens here,
// never in the handlers.
type projectRecord struct {
	ID              string    `gorm:"column:id;primaryKey;size:64"`
	Title           string    `gorm:"column:title;size:255"`
	OriginalContent string    `gorm:"column:original_content;type:text"`
	Script          string    `gorm:"column:script;type:text"`
	Status          string    `gorm:"column:status;size:16;index"`
	VideoID         string    `gorm:"column:video_id;size:64"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

// TableName sets the table name for GORM.
func (projectRecord) TableName() string { return "projects" }

func toProjectRecord(p *Project) *projectRecord {
	return &projectRecord{
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

func (rec *projectRecord) toProject() *Project {
	return &Project{
		ID:              rec.ID,
		Title:           rec.Title,
		OriginalContent: rec.OriginalContent,
		Script:          rec.Script,
		Status:          Status(rec.Status),
		VideoID:         rec.VideoID,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

// GormRepository is a GORM-backed implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a GORM project repository and migrates its schema.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&projectRecord{}); err != nil {
		return nil, fmt.Errorf("project: migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// Save persists a project, replacing any existing row with the same ID.
func (r *GormRepository) Save(ctx context.Context, p *Project) error {
	rec := toProjectRecord(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("project: save: %w", err)
	}
	return nil
}

// FindByID retrieves a project by its ID.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	var rec projectRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project: find: %w", err)
	}
	return rec.toProject(), nil
}

// List returns all projects ordered by creation time, newest first.
func (r *GormRepository) List(ctx context.Context) ([]*Project, error) {
	var recs []projectRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	result := make([]*Project, 0, len(recs))
	for i := range recs {
		result = append(result, recs[i].toProject())
	}
	return result, nil
}
