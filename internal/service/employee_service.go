package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/repository"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// EmployeeService coordinates employee listing, search and updates.
type EmployeeService struct {
	employees  repository.EmployeeStore
	dispatcher events.Dispatcher
	now        func() time.Time
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeStore
	Dispatcher   events.Dispatcher
}

// UpdateDependentsInput describes a dependents count change.
type UpdateDependentsInput struct {
	ID              int
	DependentsCount int
	Actor           string
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// ShowList returns every employee ordered by hire date.
func (s *EmployeeService) ShowList(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.FindAll(ctx)
}

// ShowPage returns one page of employees. Pages are 1-based; page < 1 reads the first page.
func (s *EmployeeService) ShowPage(ctx context.Context, page, size int) ([]domain.Employee, error) {
	return s.employees.FindWithPagination(ctx, pageOffset(page, size), size)
}

// TotalPages returns how many pages of size the full list spans.
func (s *EmployeeService) TotalPages(ctx context.Context, size int) (int, error) {
	return s.employees.CountPages(ctx, size)
}

// ShowDetail loads a single employee.
func (s *EmployeeService) ShowDetail(ctx context.Context, id int) (*domain.Employee, error) {
	return s.employees.Load(ctx, id)
}

// FindByNameContaining returns employees whose name contains term.
func (s *EmployeeService) FindByNameContaining(ctx context.Context, term string) ([]domain.Employee, error) {
	return s.employees.FindByNameContaining(ctx, term)
}

// SearchPage returns one page of the employees whose name contains term.
func (s *EmployeeService) SearchPage(ctx context.Context, term string, page, size int) ([]domain.Employee, error) {
	return s.employees.FindByNameContainingWithPagination(ctx, term, pageOffset(page, size), size)
}

// TotalPagesForName returns how many pages of size the matches for term span.
func (s *EmployeeService) TotalPagesForName(ctx context.Context, term string, size int) (int, error) {
	return s.employees.CountPagesForName(ctx, term, size)
}

// Update stores a new dependents count for an existing employee.
func (s *EmployeeService) Update(ctx context.Context, input UpdateDependentsInput) (*domain.Employee, error) {
	if input.DependentsCount < 0 {
		return nil, apperrors.NewValidationError("dependents count must not be negative", map[string]any{
			"dependentsCount": input.DependentsCount,
		})
	}

	var (
		previous int
		updated  *domain.Employee
	)
	err := s.employees.WithinTx(ctx, func(repo repository.EmployeeRepository) error {
		current, err := repo.Load(ctx, input.ID)
		if err != nil {
			return err
		}
		previous = current.DependentsCount
		current.DependentsCount = input.DependentsCount
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventDependentsUpdated,
		EmployeeID: updated.ID,
		Actor:      input.Actor,
		Payload: events.DependentsUpdatedPayload{
			OldCount: previous,
			NewCount: updated.DependentsCount,
		},
	})
	return updated, nil
}

func (s *EmployeeService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}

// pageOffset returns the row offset of page. Pages too far out to address
// saturate at math.MaxInt, which is past the last row.
func pageOffset(page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}
