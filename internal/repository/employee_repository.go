package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/employee-directory/internal/domain"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// EmployeeRepository encapsulates employee persistence.
//
// Reads are ordered by hire date, oldest first, with the id as tie breaker so
// that consecutive pages never overlap. Name search is a case-sensitive
// substring match and an empty term matches every employee.
type EmployeeRepository interface {
	FindAll(ctx context.Context) ([]domain.Employee, error)
	FindWithPagination(ctx context.Context, offset, limit int) ([]domain.Employee, error)
	CountPages(ctx context.Context, size int) (int, error)
	Load(ctx context.Context, id int) (*domain.Employee, error)
	Update(ctx context.Context, employee *domain.Employee) error
	FindByNameContaining(ctx context.Context, term string) ([]domain.Employee, error)
	FindByNameContainingWithPagination(ctx context.Context, term string, offset, limit int) ([]domain.Employee, error)
	CountPagesForName(ctx context.Context, term string, size int) (int, error)
	Insert(ctx context.Context, employee *domain.Employee) error
}

// Transactor runs fn against a repository bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(EmployeeRepository) error) error
}

// EmployeeStore is a repository that can also open transactions.
type EmployeeStore interface {
	EmployeeRepository
	Transactor
}

const employeeColumns = `id, name, image, gender, hire_date, mail_address, zip_code, address,
               telephone, salary, characteristics, dependents_count`

// hireDateLayout is the storage format of hire_date for stores without a DATE type.
const hireDateLayout = "2006-01-02"

func pageCount(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	s := int64(size)
	return int((total + s - 1) / s)
}

func checkPageSize(size int) error {
	if size < 1 {
		return apperrors.NewValidationError("page size must be positive", map[string]any{"size": size})
	}
	return nil
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term literally anywhere in the value.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func notFound(id int) error {
	return apperrors.NewNotFound("employee", map[string]any{"id": id})
}
