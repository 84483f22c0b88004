// Package bootstrap opens the adapters selected by the config. Both the API
// server and reviewctl go through it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/partner-review/internal/config"
	"github.com/bryanwahyu/partner-review/internal/domain/audit"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
	mysqlp "github.com/bryanwahyu/partner-review/internal/infra/db/mysql"
	"github.com/bryanwahyu/partner-review/internal/infra/db/postgres"
	"github.com/bryanwahyu/partner-review/internal/infra/memory"
	minioStore "github.com/bryanwahyu/partner-review/internal/infra/storage"
)

// Stores groups the persistence adapters for one driver.
type Stores struct {
	Repo     domain.RecordStore
	Outputs  domain.AnalysisOutputs
	Audit    audit.Repository
	Settings domain.SettingsProvider
	// DB is nil for the memory driver
	DB *sql.DB
	// MySQLSettings is set for the mysql driver only
	MySQLSettings *mysqlp.SettingsRepository
}

func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStores connects and migrates the configured database.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	d := cfg.Database
	static := config.StaticSettings{Threshold: cfg.Review.ConfidenceThreshold}

	switch d.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, mysqlp.DSN(d.Host, d.Port, d.User, d.Password, d.Name))
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		settings := mysqlp.NewSettingsRepository(db, cfg.Review.ConfidenceThreshold)
		return &Stores{
			Repo:          mysqlp.NewSubmissionRepository(db),
			Outputs:       mysqlp.NewOutputRepository(db),
			Audit:         mysqlp.NewAuditRepository(db),
			Settings:      settings,
			DB:            db,
			MySQLSettings: settings,
		}, nil

	case "postgres":
		db, err := postgres.Connect(ctx, postgres.DSN(d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode))
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			Repo:     postgres.NewSubmissionRepository(db),
			Outputs:  postgres.NewOutputRepository(db),
			Audit:    postgres.NewAuditRepository(db),
			Settings: static,
			DB:       db,
		}, nil
	}

	slog.Warn("memory driver selected, data is lost on restart")
	return &Stores{
		Repo:     memory.NewRecordStore(),
		Outputs:  memory.NewAnalysisOutputs(),
		Audit:    memory.NewAuditLog(),
		Settings: static,
	}, nil
}

// Blobs returned with an optional ping for readiness checks.
type Blobs struct {
	Store domain.BlobStore
	Ping  func(context.Context) error
}

// OpenBlobs uses MinIO when an endpoint is configured, memory otherwise.
func OpenBlobs(ctx context.Context, cfg *config.Config) (*Blobs, error) {
	m := cfg.Minio
	if m.Endpoint == "" {
		slog.Warn("minio endpoint not set, artifacts are kept in memory")
		return &Blobs{Store: memory.NewBlobStore()}, nil
	}
	store, err := minioStore.New(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	return &Blobs{Store: store, Ping: store.Ping}, nil
}
