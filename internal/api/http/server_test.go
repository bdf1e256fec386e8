package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/service"
	"github.com/spec-kit/employee-directory/internal/testutil"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

type testServer struct {
	app     *fiber.App
	store   repository.EmployeeStore
	metrics *observability.Metrics
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	svc := service.NewEmployeeService(service.EmployeeDependencies{EmployeeRepo: store})
	return newTestServerWith(t, store, handlers.NewEmployeeHandler(svc, 10), nil)
}

func newTestServerWith(t *testing.T, store repository.EmployeeStore, employees *handlers.EmployeeHandler, session *auth.SessionMiddleware) *testServer {
	t.Helper()
	metrics := observability.NewMetrics()
	healthy := pingerFunc(func(context.Context) error { return nil })
	app, err := NewServer(ServerConfig{
		AppName:        "employee-directory-test",
		RequestTimeout: 5 * time.Second,
		Logger:         zap.NewNop(),
		Metrics:        metrics,
		Routes: RouteConfig{
			Health:    handlers.NewHealthHandler("employee-directory", "test", map[string]handlers.Pinger{"store": healthy}, nil),
			Metrics:   handlers.NewMetricsHandler(metrics),
			Employees: employees,
			Session:   session,
		},
	})
	require.NoError(t, err)
	return &testServer{app: app, store: store, metrics: metrics}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testServer) get(t *testing.T, target string) (*nethttp.Response, string) {
	t.Helper()
	return s.do(t, httptest.NewRequest(nethttp.MethodGet, target, nil))
}

func (s *testServer) postForm(t *testing.T, target string, form url.Values) (*nethttp.Response, string) {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return s.do(t, req)
}

func rowCount(body string) int {
	return strings.Count(body, `<tr class="employee">`)
}

func TestShowListPagination(t *testing.T) {
	srv := newTestServer(t)
	seeded := testutil.SeedEmployees(t, srv.store, 12)

	resp, body := srv.get(t, "/employee/showList?page=2&size=5")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, rowCount(body))
	for _, e := range seeded[5:10] {
		assert.Contains(t, body, e.Name)
	}
	assert.NotContains(t, body, fmt.Sprintf("showDetail?id=%d\"", seeded[0].ID))
	assert.Contains(t, body, `<span class="current">2</span>`)
	assert.Contains(t, body, "/employee/showList?page=3&amp;size=5")
	assert.NotContains(t, body, "page=4")
}

func TestShowListDefaultsToFirstPage(t *testing.T) {
	srv := newTestServer(t)
	testutil.SeedEmployees(t, srv.store, 12)

	resp, body := srv.get(t, "/employee/showList?page=abc")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, rowCount(body))
	assert.Contains(t, body, `<span class="current">1</span>`)
}

func TestShowListPageFarBeyondEndIsEmpty(t *testing.T) {
	srv := newTestServer(t)
	testutil.SeedEmployees(t, srv.store, 12)

	resp, body := srv.get(t, fmt.Sprintf("/employee/showList?page=%d&size=4", math.MaxInt/4+2))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Zero(t, rowCount(body))
}

func TestRootRedirectsToList(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.get(t, "/")
	assert.Equal(t, nethttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/employee/showList", resp.Header.Get("Location"))
}

func TestSearchMatches(t *testing.T) {
	srv := newTestServer(t)
	testutil.InsertNamed(t, srv.store, "Yamada Taro", "Sato Hanako", "Yamashita Ren")

	resp, body := srv.get(t, "/employee/search?name="+url.QueryEscape("Yama"))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, rowCount(body))
	assert.NotContains(t, body, "Sato Hanako")
	assert.NotContains(t, body, handlers.NoResultsMessage)
	assert.Contains(t, body, `value="Yama"`)
}

func TestSearchWithoutMatchesFallsBackToFullList(t *testing.T) {
	srv := newTestServer(t)
	testutil.InsertNamed(t, srv.store, "Yamada Taro", "Sato Hanako")

	resp, body := srv.get(t, "/employee/search?name=Kobayashi")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, handlers.NoResultsMessage)
	assert.Equal(t, 2, rowCount(body))
}

func TestSearchBlankNameListsEveryone(t *testing.T) {
	srv := newTestServer(t)
	testutil.SeedEmployees(t, srv.store, 3)

	resp, body := srv.get(t, "/employee/search?name=")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, rowCount(body))
	assert.NotContains(t, body, handlers.NoResultsMessage)
}

func TestSearchPaginated(t *testing.T) {
	srv := newTestServer(t)
	testutil.SeedEmployees(t, srv.store, 24)

	resp, body := srv.get(t, "/employee/search?name=Yamada&page=2&size=2")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, rowCount(body))
	assert.Contains(t, body, "/employee/search?name=Yamada&amp;page=1&amp;size=2")
}

func TestNamesAreEscaped(t *testing.T) {
	srv := newTestServer(t)
	testutil.InsertNamed(t, srv.store, "<script>alert(1)</script>")

	_, body := srv.get(t, "/employee/showList")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestAutocomplete(t *testing.T) {
	srv := newTestServer(t)
	testutil.InsertNamed(t, srv.store, "Yamada Taro", "Sato Hanako", "Yamashita Ren")

	resp, body := srv.get(t, "/employee/autocomplete?term=Yama")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(body), &names))
	assert.Equal(t, []string{"Yamada Taro", "Yamashita Ren"}, names)

	_, body = srv.get(t, "/employee/autocomplete?term=")
	require.NoError(t, json.Unmarshal([]byte(body), &names))
	assert.Equal(t, []string{"Yamada Taro", "Sato Hanako", "Yamashita Ren"}, names)

	_, body = srv.get(t, "/employee/autocomplete")
	require.NoError(t, json.Unmarshal([]byte(body), &names))
	assert.Len(t, names, 3)

	_, body = srv.get(t, "/employee/autocomplete?term=Kobayashi")
	assert.JSONEq(t, `[]`, body)
}

func TestShowDetail(t *testing.T) {
	srv := newTestServer(t)
	seeded := testutil.SeedEmployees(t, srv.store, 2)

	resp, body := srv.get(t, fmt.Sprintf("/employee/showDetail?id=%d", seeded[1].ID))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, seeded[1].Name)
	assert.Contains(t, body, seeded[1].MailAddress)
	assert.Contains(t, body, seeded[1].HireDate.Format("2006-01-02"))
}

func TestShowDetailErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.get(t, "/employee/showDetail?id=abc")
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "VALIDATION_FAILED")

	for _, id := range []string{"9999", "0", "-3"} {
		resp, body = srv.get(t, "/employee/showDetail?id="+id)
		assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode, id)
		assert.Contains(t, body, "NOT_FOUND", id)
	}
}

func TestUpdateRedirectsAndPersists(t *testing.T) {
	srv := newTestServer(t)
	seeded := testutil.SeedEmployees(t, srv.store, 1)

	resp, _ := srv.postForm(t, "/employee/update", url.Values{
		"id":              {fmt.Sprint(seeded[0].ID)},
		"dependentsCount": {"3"},
	})
	require.Equal(t, nethttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/employee/showList", resp.Header.Get("Location"))

	got, err := srv.store.Load(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.DependentsCount)
}

func TestUpdateInvalidCountRerendersDetail(t *testing.T) {
	srv := newTestServer(t)
	seeded := testutil.SeedEmployees(t, srv.store, 2)
	target := seeded[1]

	for _, raw := range []string{"-1", "", "two", "1.5"} {
		resp, body := srv.postForm(t, "/employee/update", url.Values{
			"id":              {fmt.Sprint(target.ID)},
			"dependentsCount": {raw},
		})
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode, raw)
		assert.Contains(t, body, target.Name, raw)
		assert.Contains(t, body, `class="error"`, raw)
	}

	got, err := srv.store.Load(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.DependentsCount, got.DependentsCount)
}

func TestUpdateUnknownEmployee(t *testing.T) {
	srv := newTestServer(t)

	for _, id := range []string{"4242", "0", "-3"} {
		resp, _ := srv.postForm(t, "/employee/update", url.Values{
			"id":              {id},
			"dependentsCount": {"1"},
		})
		assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode, id)
	}

	resp, _ := srv.postForm(t, "/employee/update", url.Values{
		"id":              {"abc"},
		"dependentsCount": {"1"},
	})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestErrorsAsJSONWhenRequested(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/employee/showDetail?id=9999", nil)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)
	resp, body := srv.do(t, req)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.get(t, "/nope")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "NOT_FOUND")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.get(t, "/health/live")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alive")

	resp, body = srv.get(t, "/health/ready")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"store":"ok"`)

	resp, body = srv.get(t, "/metrics")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var snap observability.MetricsSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, int64(1), snap.Requests["/health/live|GET|200"])
	assert.Equal(t, int64(1), snap.Requests["/health/ready|GET|200"])
}

func TestSessionUsernameShownInHeader(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	svc := service.NewEmployeeService(service.EmployeeDependencies{EmployeeRepo: store})
	tokens := auth.NewTokenManager("secret", time.Hour)
	sessions := &fixedSessions{username: "suzuki"}
	srv := newTestServerWith(t, store, handlers.NewEmployeeHandler(svc, 10),
		auth.NewSessionMiddleware(tokens, sessions, "SESSION", zap.NewNop()))

	token, _, err := tokens.GenerateToken("sid")
	require.NoError(t, err)
	req := httptest.NewRequest(nethttp.MethodGet, "/employee/showList", nil)
	req.AddCookie(&nethttp.Cookie{Name: "SESSION", Value: token})
	resp, body := srv.do(t, req)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "suzuki さん")

	_, body = srv.get(t, "/employee/showList")
	assert.NotContains(t, body, `class="username"`)
}

type fixedSessions struct {
	username string
}

func (f *fixedSessions) Create(context.Context, string, time.Duration) (string, error) {
	return "sid", nil
}

func (f *fixedSessions) Lookup(_ context.Context, id string) (string, error) {
	if id != "sid" {
		return "", auth.ErrSessionNotFound
	}
	return f.username, nil
}

func (f *fixedSessions) Delete(context.Context, string) error { return nil }

type brokenService struct{}

func (brokenService) fail(op string) error {
	return apperrors.NewStoreError(op, errors.New("connection refused"))
}

func (s brokenService) ShowList(context.Context) ([]domain.Employee, error) {
	return nil, s.fail("find all")
}

func (s brokenService) ShowPage(context.Context, int, int) ([]domain.Employee, error) {
	return nil, s.fail("find page")
}

func (s brokenService) TotalPages(context.Context, int) (int, error) { return 0, s.fail("count") }

func (s brokenService) ShowDetail(context.Context, int) (*domain.Employee, error) {
	return nil, s.fail("load")
}

func (s brokenService) FindByNameContaining(context.Context, string) ([]domain.Employee, error) {
	return nil, s.fail("search")
}

func (s brokenService) SearchPage(context.Context, string, int, int) ([]domain.Employee, error) {
	return nil, s.fail("search page")
}

func (s brokenService) TotalPagesForName(context.Context, string, int) (int, error) {
	return 0, s.fail("count search")
}

func (s brokenService) Update(context.Context, service.UpdateDependentsInput) (*domain.Employee, error) {
	return nil, s.fail("update")
}

func TestStoreFailureRendersGenericError(t *testing.T) {
	srv := newTestServerWith(t, nil, handlers.NewEmployeeHandler(brokenService{}, 10), nil)

	for _, target := range []string{"/employee/showList", "/employee/search?name=x", "/employee/showDetail?id=1"} {
		resp, body := srv.get(t, target)
		assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode, target)
		assert.Contains(t, body, "STORE_ERROR", target)
		assert.NotContains(t, body, "connection refused", target)
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/employee/autocomplete?term=x", nil)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)
	resp, body := srv.do(t, req)
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, body, "details")

	assert.Equal(t, int64(1), srv.metrics.Snapshot().Errors["/employee/showList|GET|STORE_ERROR"])
}
