// Package app is the composition root shared by the server, worker and CLI
// binaries: it connects the backing services and assembles the pipeline.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanrose/claimdocs/internal/casedata"
	"github.com/rowanrose/claimdocs/internal/config"
	"github.com/rowanrose/claimdocs/internal/database"
	"github.com/rowanrose/claimdocs/internal/docvars"
	"github.com/rowanrose/claimdocs/internal/lender"
	"github.com/rowanrose/claimdocs/internal/pipeline"
	"github.com/rowanrose/claimdocs/internal/publish"
	"github.com/rowanrose/claimdocs/internal/rasterize"
	"github.com/rowanrose/claimdocs/internal/repository"
	"github.com/rowanrose/claimdocs/internal/s3storage"
	"github.com/rowanrose/claimdocs/internal/sigimage"
	"github.com/rowanrose/claimdocs/internal/template"
)

// templateCacheTTL bounds how stale an operator template override can be.
const templateCacheTTL = 5 * time.Minute

// App bundles the wired collaborators a binary needs.
type App struct {
	Config    *config.Config
	DB        *pgxpool.Pool
	Store     *s3storage.Storage
	Templates *template.Resolver
	Repo      *repository.Repository
	Pipeline  *pipeline.Pipeline
}

// Build connects Postgres and object storage and assembles the pipeline.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, err := s3storage.New(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	logoURI, err := loadLogo(cfg.LogoPath)
	if err != nil {
		pool.Close()
		return nil, err
	}

	templates := &template.Resolver{
		DB:    pool,
		Store: store,
		Cache: template.NewCache(templateCacheTTL),
	}
	repo := &repository.Repository{DB: pool}

	pipe := &pipeline.Pipeline{
		Cases:      casedata.New(pool),
		Lenders:    lender.NewLookup(pool),
		Signatures: &sigimage.Prober{Store: store},
		Templates:  templates,
		Raster: &rasterize.Rasterizer{
			ChromePath: cfg.ChromePath,
			Timeout:    cfg.RasterizeTimeout,
		},
		Publisher: &publish.Publisher{
			Store:     store,
			Documents: repo,
			URLExpiry: cfg.SignedURLTTL,
		},
		State: repo,
		Firm: docvars.Firm{
			Name:    cfg.FirmName,
			Address: cfg.FirmAddress,
			Phone:   cfg.FirmPhone,
		},
		LogoDataURI: logoURI,
		FooterText:  cfg.FooterText,
	}

	return &App{
		Config:    cfg,
		DB:        pool,
		Store:     store,
		Templates: templates,
		Repo:      repo,
		Pipeline:  pipe,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.DB.Close()
}

// loadLogo reads the letterhead logo from disk and encodes it as a data URI.
// An unset path simply produces letters without a logo.
func loadLogo(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read logo %s: %w", path, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
