package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/employee-directory/internal/domain"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type employeeRepository struct {
	db pgQuerier
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeStore {
	return &employeeRepository{db: pool}
}

func (r *employeeRepository) WithinTx(ctx context.Context, fn func(EmployeeRepository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&employeeRepository{db: tx})
	})
}

func (r *employeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees ORDER BY hire_date ASC, id ASC`
	return r.list(ctx, "find employees", query)
}

func (r *employeeRepository) FindWithPagination(ctx context.Context, offset, limit int) ([]domain.Employee, error) {
	if err := checkPageSize(limit); err != nil {
		return nil, err
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees ORDER BY hire_date ASC, id ASC
        LIMIT $1 OFFSET $2`
	return r.list(ctx, "find employee page", query, limit, clampOffset(offset))
}

func (r *employeeRepository) CountPages(ctx context.Context, size int) (int, error) {
	if err := checkPageSize(size); err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return 0, apperrors.NewStoreError("count employees", err)
	}
	return pageCount(total, size), nil
}

func (r *employeeRepository) Load(ctx context.Context, id int) (*domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE id=$1`
	employee, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, apperrors.NewStoreError("load employee", err)
	}
	return employee, nil
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `UPDATE employees SET dependents_count=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, employee.DependentsCount, employee.ID)
	if err != nil {
		return apperrors.NewStoreError("update employee", err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound(employee.ID)
	}
	return nil
}

func (r *employeeRepository) FindByNameContaining(ctx context.Context, term string) ([]domain.Employee, error) {
	if term == "" {
		return r.FindAll(ctx)
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE name LIKE $1 ESCAPE '\'
        ORDER BY hire_date ASC, id ASC`
	return r.list(ctx, "search employees", query, containsPattern(term))
}

func (r *employeeRepository) FindByNameContainingWithPagination(ctx context.Context, term string, offset, limit int) ([]domain.Employee, error) {
	if term == "" {
		return r.FindWithPagination(ctx, offset, limit)
	}
	if err := checkPageSize(limit); err != nil {
		return nil, err
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE name LIKE $1 ESCAPE '\'
        ORDER BY hire_date ASC, id ASC
        LIMIT $2 OFFSET $3`
	return r.list(ctx, "search employee page", query, containsPattern(term), limit, clampOffset(offset))
}

func (r *employeeRepository) CountPagesForName(ctx context.Context, term string, size int) (int, error) {
	if term == "" {
		return r.CountPages(ctx, size)
	}
	if err := checkPageSize(size); err != nil {
		return 0, err
	}
	const query = `SELECT COUNT(*) FROM employees WHERE name LIKE $1 ESCAPE '\'`
	var total int64
	if err := r.db.QueryRow(ctx, query, containsPattern(term)).Scan(&total); err != nil {
		return 0, apperrors.NewStoreError("count employee matches", err)
	}
	return pageCount(total, size), nil
}

func (r *employeeRepository) Insert(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (name, image, gender, hire_date, mail_address, zip_code, address,
                               telephone, salary, characteristics, dependents_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		employee.Name,
		employee.Image,
		employee.Gender,
		employee.HireDate,
		employee.MailAddress,
		employee.ZipCode,
		employee.Address,
		employee.Telephone,
		employee.Salary,
		employee.Characteristics,
		employee.DependentsCount,
	).Scan(&employee.ID)
	if err != nil {
		return apperrors.NewStoreError("insert employee", err)
	}
	return nil
}

func (r *employeeRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(op, err)
		}
		result = append(result, *employee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	return result, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Image,
		&employee.Gender,
		&employee.HireDate,
		&employee.MailAddress,
		&employee.ZipCode,
		&employee.Address,
		&employee.Telephone,
		&employee.Salary,
		&employee.Characteristics,
		&employee.DependentsCount,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}
