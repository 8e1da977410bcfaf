package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
)

type MigrationConfig struct {
	Timeout   time.Duration `json:"timeout"`
	TableName string        `json:"table_name"`
	Enabled   bool          `json:"enabled"`
}

// MigrationStatus compares the applied schema version with the newest
// embedded migration.
type MigrationStatus struct {
	Current int32
	Latest  int32
}

func (s MigrationStatus) Pending() int32 {
	if s.Latest <= s.Current {
		return 0
	}
	return s.Latest - s.Current
}

type Migrator struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	config *MigrationConfig
}

func NewMigrator(pool *pgxpool.Pool, config *MigrationConfig, logger *logger.Logger) *Migrator {
	return &Migrator{
		pool:   pool,
		logger: logger.Component("postgres/migrator"),
		config: config,
	}
}

// RunMigrations brings the schema to the latest embedded version. It is a
// no-op when migrations are disabled.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.Info("migrations disabled, skipping")
		return nil
	}

	start := time.Now()
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	return m.withMigrator(ctx, func(migrator *migrate.Migrator) error {
		status, err := readStatus(ctx, migrator)
		if err != nil {
			return err
		}

		if status.Pending() == 0 {
			m.logger.Info("database schema up to date",
				"current_version", status.Current,
				"latest_version", status.Latest)
			return nil
		}

		m.logger.Info("applying database migrations",
			"current_version", status.Current,
			"target_version", status.Latest,
			"pending_migrations", status.Pending())

		if err = migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		finalVersion, err := migrator.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("get final version: %w", err)
		}

		m.logger.Info("migrations completed",
			"from_version", status.Current,
			"to_version", finalVersion,
			"duration", time.Since(start))
		return nil
	})
}

func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	var result MigrationStatus
	err := m.withMigrator(ctx, func(migrator *migrate.Migrator) error {
		var err error
		result, err = readStatus(ctx, migrator)
		return err
	})
	return result, err
}

func (m *Migrator) Health(ctx context.Context) error {
	if _, err := m.Status(ctx); err != nil {
		return fmt.Errorf("migration health check failed: %w", err)
	}
	return nil
}

func (m *Migrator) withMigrator(ctx context.Context, fn func(*migrate.Migrator) error) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	migrator, err := migrate.NewMigrator(ctx, conn.Conn(), m.config.TableName)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err = migrator.LoadMigrations(migrations.MigrationFiles); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	return fn(migrator)
}

func readStatus(ctx context.Context, migrator *migrate.Migrator) (MigrationStatus, error) {
	current, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("get current version: %w", err)
	}

	var latest int32
	for _, migration := range migrator.Migrations {
		if migration.Sequence > latest {
			latest = migration.Sequence
		}
	}

	return MigrationStatus{Current: current, Latest: latest}, nil
}
