// Package testutil provides store fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/persistence"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/seed"
)

// PostgresDSNEnv names the variable enabling Postgres-backed tests.
const PostgresDSNEnv = "EMPLOYEE_TEST_POSTGRES_DSN"

// FirstHire is the hire date of the first seeded employee.
var FirstHire = time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)

// NewSQLiteStore opens a migrated SQLite store in a temp dir.
func NewSQLiteStore(t testing.TB) repository.EmployeeStore {
	t.Helper()
	ctx := context.Background()
	lite, err := persistence.NewSQLite(ctx, config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "employees.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(lite.Close)
	require.NoError(t, persistence.RunSQLiteMigrations(ctx, lite.DB, zap.NewNop()))
	return repository.NewSQLiteEmployeeRepository(lite.DB)
}

// NewPostgresStore connects to the database named by EMPLOYEE_TEST_POSTGRES_DSN,
// migrates it and empties the employees table. The test is skipped when unset.
func NewPostgresStore(t testing.TB) repository.EmployeeStore {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pg.PoolHandle(), zap.NewNop()))
	_, err = pg.Pool.Exec(ctx, `TRUNCATE employees RESTART IDENTITY`)
	require.NoError(t, err)
	return repository.NewEmployeeRepository(pg.PoolHandle())
}

// SeedEmployees inserts n generated employees with sequential hire dates.
func SeedEmployees(t testing.TB, repo repository.EmployeeRepository, n int) []domain.Employee {
	t.Helper()
	employees := seed.Employees(n, FirstHire)
	require.NoError(t, seed.Insert(context.Background(), repo, employees))
	return employees
}

// InsertNamed inserts one employee per name, hired on consecutive days.
func InsertNamed(t testing.TB, repo repository.EmployeeRepository, names ...string) []domain.Employee {
	t.Helper()
	employees := seed.Employees(len(names), FirstHire)
	for i := range employees {
		employees[i].Name = names[i]
	}
	require.NoError(t, seed.Insert(context.Background(), repo, employees))
	return employees
}
