package handlers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-directory/internal/api/dto"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/service"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// NoResultsMessage is shown when a name search matches nobody.
const NoResultsMessage = "1件もありませんでした"

// EmployeeService is the subset of the service layer the handler needs.
type EmployeeService interface {
	ShowList(ctx context.Context) ([]domain.Employee, error)
	ShowPage(ctx context.Context, page, size int) ([]domain.Employee, error)
	TotalPages(ctx context.Context, size int) (int, error)
	ShowDetail(ctx context.Context, id int) (*domain.Employee, error)
	FindByNameContaining(ctx context.Context, term string) ([]domain.Employee, error)
	SearchPage(ctx context.Context, term string, page, size int) ([]domain.Employee, error)
	TotalPagesForName(ctx context.Context, term string, size int) (int, error)
	Update(ctx context.Context, input service.UpdateDependentsInput) (*domain.Employee, error)
}

// EmployeeHandler serves the /employee pages.
type EmployeeHandler struct {
	employees       EmployeeService
	defaultPageSize int
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(employees EmployeeService, defaultPageSize int) *EmployeeHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &EmployeeHandler{employees: employees, defaultPageSize: defaultPageSize}
}

// ShowList GET /employee/showList.
func (h *EmployeeHandler) ShowList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("size"), h.defaultPageSize)

	employees, err := h.employees.ShowPage(ctx, page, size)
	if err != nil {
		return err
	}
	totalPages, err := h.employees.TotalPages(ctx, size)
	if err != nil {
		return err
	}

	return c.Render("employee/list", fiber.Map{
		"employeeList": employees,
		"currentPage":  page,
		"totalPages":   totalPages,
		"size":         size,
		"pageBase":     "/employee/showList?",
		"username":     auth.UsernameFromContext(c),
	})
}

// Search GET /employee/search. A blank name lists everyone; a search without
// matches falls back to the full list with an informational message.
func (h *EmployeeHandler) Search(c *fiber.Ctx) error {
	ctx := c.UserContext()
	name := c.Query("name")
	bind := fiber.Map{
		"searchName": name,
		"username":   auth.UsernameFromContext(c),
	}

	if strings.TrimSpace(name) == "" {
		employees, err := h.employees.ShowList(ctx)
		if err != nil {
			return err
		}
		bind["employeeList"] = employees
		return c.Render("employee/list", bind)
	}

	if c.Query("page") != "" {
		return h.searchPage(c, name, bind)
	}

	employees, err := h.employees.FindByNameContaining(ctx, name)
	if err != nil {
		return err
	}
	if len(employees) == 0 {
		bind["message"] = NoResultsMessage
		if employees, err = h.employees.ShowList(ctx); err != nil {
			return err
		}
	}
	bind["employeeList"] = employees
	return c.Render("employee/list", bind)
}

func (h *EmployeeHandler) searchPage(c *fiber.Ctx, name string, bind fiber.Map) error {
	ctx := c.UserContext()
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("size"), h.defaultPageSize)

	totalPages, err := h.employees.TotalPagesForName(ctx, name, size)
	if err != nil {
		return err
	}
	if totalPages == 0 {
		employees, err := h.employees.ShowList(ctx)
		if err != nil {
			return err
		}
		bind["message"] = NoResultsMessage
		bind["employeeList"] = employees
		return c.Render("employee/list", bind)
	}

	employees, err := h.employees.SearchPage(ctx, name, page, size)
	if err != nil {
		return err
	}
	bind["employeeList"] = employees
	bind["currentPage"] = page
	bind["totalPages"] = totalPages
	bind["size"] = size
	bind["pageBase"] = "/employee/search?" + url.Values{"name": {name}}.Encode() + "&"
	return c.Render("employee/list", bind)
}

// Autocomplete GET /employee/autocomplete returns matching names as JSON. An
// empty term matches every employee.
func (h *EmployeeHandler) Autocomplete(c *fiber.Ctx) error {
	employees, err := h.employees.FindByNameContaining(c.UserContext(), c.Query("term"))
	if err != nil {
		return err
	}
	names := make([]string, 0, len(employees))
	for i := range employees {
		names = append(names, employees[i].Name)
	}
	return c.JSON(names)
}

// ShowDetail GET /employee/showDetail.
func (h *EmployeeHandler) ShowDetail(c *fiber.Ctx) error {
	raw := c.Query("id")
	id, ok := dto.ParseID(raw)
	if !ok {
		return apperrors.NewValidationError("invalid employee id", map[string]any{"id": raw})
	}
	return h.renderDetail(c, id, fiber.StatusOK, nil, nil)
}

// Update POST /employee/update. Invalid input re-renders the detail page with
// field errors and leaves the store untouched; success redirects to the list.
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	var form dto.UpdateEmployeeForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input, errs := form.Validate()
	if !errs.OK() {
		id, ok := form.ParseID()
		if !ok {
			return apperrors.NewValidationError("invalid employee id", map[string]any{"id": form.ID})
		}
		return h.renderDetail(c, id, fiber.StatusBadRequest, &form, errs)
	}

	_, err := h.employees.Update(c.UserContext(), service.UpdateDependentsInput{
		ID:              input.ID,
		DependentsCount: input.DependentsCount,
		Actor:           auth.UsernameFromContext(c),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			errs.Add("dependentsCount", dto.MsgDependentsInvalid)
			return h.renderDetail(c, input.ID, fiber.StatusBadRequest, &form, errs)
		}
		return err
	}
	return c.Redirect("/employee/showList", fiber.StatusFound)
}

func (h *EmployeeHandler) renderDetail(c *fiber.Ctx, id, status int, form *dto.UpdateEmployeeForm, errs dto.FieldErrors) error {
	employee, err := h.employees.ShowDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	bind := fiber.Map{
		"employee": employee,
		"username": auth.UsernameFromContext(c),
	}
	if form != nil {
		bind["form"] = form
		bind["errors"] = errs
	}
	return c.Status(status).Render("employee/detail", bind)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
