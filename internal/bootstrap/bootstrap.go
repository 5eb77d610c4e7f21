// Package bootstrap wires together the application's dependency graph:
// repositories, provider clients, services, and the polling watcher.
package bootstrap

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/scriptreel/scriptreel-api/internal/config"
	"github.com/scriptreel/scriptreel-api/internal/content"
	"github.com/scriptreel/scriptreel-api/internal/poller"
	"github.com/scriptreel/scriptreel-api/internal/project"
	"github.com/scriptreel/scriptreel-api/internal/revid"
	"github.com/scriptreel/scriptreel-api/internal/script"
	"github.com/scriptreel/scriptreel-api/internal/storage"
	"github.com/scriptreel/scriptreel-api/internal/video"
)

// Dependencies holds the initialized application services.
type Dependencies struct {
	// Projects is the project service (analyze, list, edit).
	Projects *project.Service
	// Videos is the render service (submit, refresh, ingest).
	Videos *video.RenderService
	// Watcher drives the polling reconciliation loop.
	Watcher *poller.Watcher
	// Revid is the rendering provider client (also the voice catalogue).
	Revid *revid.HTTPClient
}

// NewDependencies initializes all application dependencies from config.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	projectRepo, videoRepo, err := newRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	revidClient, err := revid.NewClient(
		revid.WithAPIKey(cfg.RevidAPIKey),
		revid.WithBaseURL(cfg.RevidBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create revid client: %w", err)
	}

	generator, err := script.NewOpenAIGenerator(
		script.WithAPIKey(cfg.OpenAIAPIKey),
		script.WithModel(cfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create script generator: %w", err)
	}

	extractor := content.NewHTTPExtractor(nil)
	projectService := project.NewService(projectRepo, extractor, generator, logger)

	manager := video.NewManager(videoRepo, projectRepo, logger)

	var serviceOpts []video.ServiceOption
	if cfg.ArchiveEnabled() {
		store, err := storage.NewS3Storage(cfg.TempDir, storage.S3Config{
			Bucket:          cfg.ArchiveBucket,
			Region:          cfg.ArchiveRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create archive storage: %w", err)
		}
		serviceOpts = append(serviceOpts, video.WithArchiver(storage.NewRenderArchiver(store, nil)))
		logger.Info("archive storage configured",
			slog.String("bucket", cfg.ArchiveBucket),
			slog.String("region", cfg.ArchiveRegion),
		)
	}

	renderService := video.NewRenderService(
		manager,
		projectRepo,
		revid.NewAdapter(revidClient),
		cfg.PublicBaseURL,
		logger,
		serviceOpts...,
	)

	watcher := poller.NewWatcher(renderService, cfg.PollInterval, logger)

	return &Dependencies{
		Projects: projectService,
		Videos:   renderService,
		Watcher:  watcher,
		Revid:    revidClient,
	}, nil
}

// newRepositories selects the persistence backend: GORM over MySQL when a
// DSN is configured, in-memory otherwise.
func newRepositories(cfg *config.Config, logger *slog.Logger) (project.Repository, video.Repository, error) {
	if cfg.DatabaseDSN == "" {
		logger.Info("using in-memory repositories")
		return project.NewMemoryRepository(), video.NewMemoryRepository(), nil
	}

	db, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	projectRepo, err := project.NewGormRepository(db)
	if err != nil {
		return nil, nil, err
	}
	videoRepo, err := video.NewGormRepository(db)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("using MySQL repositories")
	return projectRepo, videoRepo, nil
}
