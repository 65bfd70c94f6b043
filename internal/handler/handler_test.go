package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/auth"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore filters salaries the way the stored procedure does, inclusive on
// both ends.
type fakeStore struct {
	mu        sync.Mutex
	employees []models.Employee
	counts    []models.DepartmentEmployeeCount
	err       error
	ranges    []models.SalaryRange
}

func (s *fakeStore) ListEmployees(context.Context) ([]models.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Employee, 0, len(s.employees))
	return append(out, s.employees...), nil
}

func (s *fakeStore) ListEmployeesBySalaryRange(_ context.Context, rng models.SalaryRange) ([]models.Employee, error) {
	s.mu.Lock()
	s.ranges = append(s.ranges, rng)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Employee, 0)
	for _, e := range s.employees {
		if e.Salary >= rng.Min && e.Salary <= rng.Max {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ListDepartmentEmployeeCounts(context.Context) ([]models.DepartmentEmployeeCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.DepartmentEmployeeCount, 0, len(s.counts))
	return append(out, s.counts...), nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type testEnv struct {
	e      *echo.Echo
	store  *fakeStore
	creds  *auth.CredentialStore
	tokens *auth.TokenService
}

func strPtr(s string) *string { return &s }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	tokens, err := auth.NewTokenService(config.AuthConfig{
		Secret:   "handler-test-secret-handler-test-secret",
		Issuer:   config.DefaultIssuer,
		Audience: config.DefaultAudience,
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	creds, err := auth.NewCredentialStore(tokens, bcrypt.MinCost, logger)
	require.NoError(t, err)

	store := &fakeStore{
		employees: []models.Employee{
			{EmployeeID: 1, FirstName: "Low", LastName: "Edge", JobID: "ST_CLERK", Salary: 3000, DepartmentName: strPtr("Shipping"), ManagerName: strPtr(models.NoManager)},
			{EmployeeID: 2, FirstName: "High", LastName: "Edge", JobID: "IT_PROG", Salary: 10000, DepartmentName: strPtr("IT"), ManagerName: strPtr("Alexander Hunold")},
			{EmployeeID: 3, FirstName: "Below", LastName: "Range", JobID: "ST_CLERK", Salary: 2999.99},
			{EmployeeID: 4, FirstName: "Above", LastName: "Range", JobID: "AD_VP", Salary: 17000},
		},
		counts: []models.DepartmentEmployeeCount{
			{DepartmentName: "IT", DepartmentID: 60, NumEmployees: 5},
		},
	}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger)
	RegisterRoutes(e, auth.NewGate(tokens, logger), Handlers{
		Employees: NewEmployeeHandler(store, logger),
		Auth:      NewAuthHandler(creds, logger),
		System: NewSystemHandler(fakeHealth{}, func() time.Time {
			return time.Date(2024, time.March, 5, 14, 7, 0, 0, time.Local)
		}, logger),
	})

	return &testEnv{e: e, store: store, creds: creds, tokens: tokens}
}

func (env *testEnv) do(method, target, bearer string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := env.tokens.Issue("tester", role)
	require.NoError(t, err)
	return tok.Value
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/now", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "05-March-2024 02:07 PM", decode[models.NowResponse](t, rec).Now)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[models.HealthResponse](t, rec).Status)

	e := echo.New()
	e.GET("/healthz", NewSystemHandler(fakeHealth{err: errors.New("ORA-12541")}, nil, zap.NewNop()).HealthHandler)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "ORA-12541")
}

func TestSeedUser(t *testing.T) {
	env := newTestEnv(t)
	body := `{"username":"alice","password":"pw","role":"Manager"}`

	rec := env.do(http.MethodPost, "/seed-user", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgUserSeeded, decode[string](t, rec))

	rec = env.do(http.MethodPost, "/seed-user", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgUserExists, decode[models.ErrorResponse](t, rec).Error)
	assert.Equal(t, 1, env.creds.Len())
}

func TestSeedUserValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"username":`},
		{name: "missing password", body: `{"username":"alice","role":"Admin"}`},
		{name: "missing username", body: `{"password":"pw","role":"Admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/seed-user", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[models.ErrorResponse](t, rec).Error)
		})
	}
	assert.Equal(t, 0, env.creds.Len())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.creds.Seed("alice", "p@ss word", "Admin"))

	t.Run("query string", func(t *testing.T) {
		q := url.Values{"username": {"alice"}, "password": {"p@ss word"}}
		rec := env.do(http.MethodPost, "/login?"+q.Encode(), "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		token := decode[models.LoginResponse](t, rec).Token
		p, err := env.tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, models.Principal{Username: "alice", Role: "Admin"}, p)
	})

	t.Run("json body", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/login", "", `{"username":"alice","password":"p@ss word"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[models.LoginResponse](t, rec).Token)
	})

	t.Run("query string ignores an unreadable body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login?username=alice&password=p%40ss+word", strings.NewReader("not json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, decode[models.LoginResponse](t, rec).Token)
	})

	t.Run("query string wins over body", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/login?username=alice&password=p%40ss+word", "", `{"username":"bob","password":"nope"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		p, err := env.tokens.Verify(decode[models.LoginResponse](t, rec).Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", p.Username)
	})

	t.Run("body fills what the query leaves out", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/login?username=alice", "", `{"password":"p@ss word"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		wrong := env.do(http.MethodPost, "/login?username=alice&password=nope", "", "")
		unknown := env.do(http.MethodPost, "/login?username=bob&password=nope", "", "")

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("missing credentials", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/login?username=alice", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/employees", "/employees-salary", "/employees-by-departments"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

			rec = env.do(http.MethodGet, path, "not-a-jwt", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestEmployees(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/employees", env.token(t, "Employee"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	employees := decode[[]models.Employee](t, rec)
	assert.Len(t, employees, 4)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "Low", raw[0]["firstName"])
	assert.Equal(t, "No Manager", raw[0]["managerName"])
	assert.Contains(t, raw[0], "id")
	assert.Contains(t, raw[0], "jobId")
}

func TestEmployeesEmptyListIsArray(t *testing.T) {
	env := newTestEnv(t)
	env.store.employees = nil

	rec := env.do(http.MethodGet, "/employees", env.token(t, "Employee"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEmployeesBySalary(t *testing.T) {
	env := newTestEnv(t)

	t.Run("default range keeps both edges", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/employees-salary", env.token(t, "Manager"), "")
		require.Equal(t, http.StatusOK, rec.Code)

		var ids []int
		for _, e := range decode[[]models.Employee](t, rec) {
			ids = append(ids, e.EmployeeID)
		}
		assert.ElementsMatch(t, []int{1, 2}, ids)
		assert.Equal(t, models.SalaryRange{Min: 3000, Max: 10000}, env.store.ranges[len(env.store.ranges)-1])
	})

	t.Run("explicit range", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/employees-salary?minSalary=9000.5&maxSalary=20000", env.token(t, "Admin"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Employee](t, rec), 2)
		assert.Equal(t, models.SalaryRange{Min: 9000.5, Max: 20000}, env.store.ranges[len(env.store.ranges)-1])
	})

	t.Run("only one bound", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/employees-salary?maxSalary=5000", env.token(t, "Admin"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.SalaryRange{Min: 3000, Max: 5000}, env.store.ranges[len(env.store.ranges)-1])
	})

	t.Run("wrong role", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/employees-salary", env.token(t, "Employee"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid numbers", func(t *testing.T) {
		for _, q := range []string{"minSalary=abc", "maxSalary=1e", "minSalary=NaN", "maxSalary=Inf"} {
			rec := env.do(http.MethodGet, "/employees-salary?"+q, env.token(t, "Manager"), "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})
}

func TestDepartmentCounts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/employees-by-departments", env.token(t, "Employee"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"departmentName":"IT","departmentId":60,"numEmployees":5}]`, rec.Body.String())
}

func TestUpstreamFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("ORA-01017: invalid username/password; logon denied")

	for _, path := range []string{"/employees", "/employees-salary", "/employees-by-departments"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, env.token(t, "Admin"), "")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, msgInternal, decode[models.ErrorResponse](t, rec).Error)
			assert.NotContains(t, rec.Body.String(), "ORA-")
		})
	}
}
