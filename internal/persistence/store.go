package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/repository"
)

// Store bundles the employee repository with the handle it runs on.
type Store struct {
	Employees repository.EmployeeStore
	Driver    string

	postgres *Postgres
	sqlite   *SQLite
}

// OpenStore connects to the configured relational store. Migrations run when
// migrate is true.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if migrate {
			if err := RunSQLiteMigrations(ctx, lite.DB, logger); err != nil {
				lite.Close()
				return nil, err
			}
		}
		return &Store{
			Employees: repository.NewSQLiteEmployeeRepository(lite.DB),
			Driver:    cfg.Store.Driver,
			sqlite:    lite,
		}, nil
	case config.StoreDriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &Store{
			Employees: repository.NewEmployeeRepository(pg.PoolHandle()),
			Driver:    cfg.Store.Driver,
			postgres:  pg,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.sqlite != nil {
		return s.sqlite.Ping(ctx)
	}
	return s.postgres.Ping(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.sqlite.Close()
	s.postgres.Close()
}
