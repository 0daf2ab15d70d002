package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/database"
)

//go:embed sql/*.sql
var migrations embed.FS

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies the embedded schema of the orders collection.
type Migrator struct {
	provider *goose.Provider
	logger   *zap.Logger
}

// Applied describes one migration and whether the database has it.
type Applied struct {
	Version int64
	Source  string
	Applied bool
}

// New builds a migrator bound to the writer connection.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	scripts, err := fs.Sub(migrations, "sql")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, conns.Writer.DB, scripts)
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{provider: provider, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil && !isNoMigrationErr(err) {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(results) == 0 {
		m.logger.Info("no migrations to apply")
		return nil
	}
	for _, r := range results {
		m.logger.Info("migration applied", zap.String("source", r.Source.Path), zap.Duration("took", r.Duration))
	}
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		results, err := m.provider.DownTo(ctx, 0)
		if err != nil && !isNoMigrationErr(err) {
			return fmt.Errorf("migrate down: %w", err)
		}
		m.logger.Info("migrations rolled back", zap.Int("count", len(results)))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		r, err := m.provider.Down(ctx)
		if err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to roll back", zap.Int("rolled_back", i))
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
		m.logger.Info("migration rolled back", zap.String("source", r.Source.Path))
	}
	return nil
}

// Status lists every embedded migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]Applied, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Applied, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Applied{
			Version: s.Source.Version,
			Source:  s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) || errors.Is(err, goose.ErrNoCurrentVersion) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "no migrations")
}
