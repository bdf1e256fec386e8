package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spec-kit/employee-directory/internal/domain"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteEmployeeRepository stores employees in an embedded SQLite database.
// Substring search uses instr, which compares bytes and is therefore
// case-sensitive like the Postgres LIKE query.
type sqliteEmployeeRepository struct {
	db *sql.DB
	q  sqlQuerier
}

// NewSQLiteEmployeeRepository returns a SQLite-backed implementation.
func NewSQLiteEmployeeRepository(db *sql.DB) EmployeeStore {
	return &sqliteEmployeeRepository{db: db, q: db}
}

func (r *sqliteEmployeeRepository) WithinTx(ctx context.Context, fn func(EmployeeRepository) error) error {
	if r.db == nil {
		// already inside a transaction
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("begin transaction", err)
	}
	if err := fn(&sqliteEmployeeRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit transaction", err)
	}
	return nil
}

func (r *sqliteEmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees ORDER BY hire_date ASC, id ASC`
	return r.list(ctx, "find employees", query)
}

func (r *sqliteEmployeeRepository) FindWithPagination(ctx context.Context, offset, limit int) ([]domain.Employee, error) {
	if err := checkPageSize(limit); err != nil {
		return nil, err
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees ORDER BY hire_date ASC, id ASC
        LIMIT ? OFFSET ?`
	return r.list(ctx, "find employee page", query, limit, clampOffset(offset))
}

func (r *sqliteEmployeeRepository) CountPages(ctx context.Context, size int) (int, error) {
	if err := checkPageSize(size); err != nil {
		return 0, err
	}
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return 0, apperrors.NewStoreError("count employees", err)
	}
	return pageCount(total, size), nil
}

func (r *sqliteEmployeeRepository) Load(ctx context.Context, id int) (*domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE id=?`
	employee, err := scanSQLiteEmployee(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, apperrors.NewStoreError("load employee", err)
	}
	return employee, nil
}

func (r *sqliteEmployeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	res, err := r.q.ExecContext(ctx, `UPDATE employees SET dependents_count=? WHERE id=?`,
		employee.DependentsCount, employee.ID)
	if err != nil {
		return apperrors.NewStoreError("update employee", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError("update employee", err)
	}
	if affected == 0 {
		return notFound(employee.ID)
	}
	return nil
}

func (r *sqliteEmployeeRepository) FindByNameContaining(ctx context.Context, term string) ([]domain.Employee, error) {
	if term == "" {
		return r.FindAll(ctx)
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE instr(name, ?) > 0
        ORDER BY hire_date ASC, id ASC`
	return r.list(ctx, "search employees", query, term)
}

func (r *sqliteEmployeeRepository) FindByNameContainingWithPagination(ctx context.Context, term string, offset, limit int) ([]domain.Employee, error) {
	if term == "" {
		return r.FindWithPagination(ctx, offset, limit)
	}
	if err := checkPageSize(limit); err != nil {
		return nil, err
	}
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE instr(name, ?) > 0
        ORDER BY hire_date ASC, id ASC
        LIMIT ? OFFSET ?`
	return r.list(ctx, "search employee page", query, term, limit, clampOffset(offset))
}

func (r *sqliteEmployeeRepository) CountPagesForName(ctx context.Context, term string, size int) (int, error) {
	if term == "" {
		return r.CountPages(ctx, size)
	}
	if err := checkPageSize(size); err != nil {
		return 0, err
	}
	var total int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE instr(name, ?) > 0`, term).Scan(&total)
	if err != nil {
		return 0, apperrors.NewStoreError("count employee matches", err)
	}
	return pageCount(total, size), nil
}

func (r *sqliteEmployeeRepository) Insert(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (name, image, gender, hire_date, mail_address, zip_code, address,
                               telephone, salary, characteristics, dependents_count)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.q.ExecContext(ctx, query,
		employee.Name,
		employee.Image,
		employee.Gender,
		employee.HireDate.Format(hireDateLayout),
		employee.MailAddress,
		employee.ZipCode,
		employee.Address,
		employee.Telephone,
		employee.Salary,
		employee.Characteristics,
		employee.DependentsCount,
	)
	if err != nil {
		return apperrors.NewStoreError("insert employee", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperrors.NewStoreError("insert employee", err)
	}
	employee.ID = int(id)
	return nil
}

func (r *sqliteEmployeeRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		employee, err := scanSQLiteEmployee(rows)
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

type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLiteEmployee(row sqlRow) (*domain.Employee, error) {
	var (
		employee domain.Employee
		hireDate string
	)
	if err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Image,
		&employee.Gender,
		&hireDate,
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
	parsed, err := time.Parse(hireDateLayout, hireDate)
	if err != nil {
		return nil, err
	}
	employee.HireDate = parsed
	return &employee, nil
}
