package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/policlinic/clinic/internal/platform/auth"
)

func withRoles(roles []string, profID *int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), auth.UserIDKey, "test-user")
			ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
			if profID != nil {
				ctx = context.WithValue(ctx, auth.ProfessionalIDKey, *profID)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newTestServer(src Source, roles []string, profID *int64) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", withRoles(roles, profID))
	NewHandler(NewService(src, nil, ServiceConfig{}, zerolog.Nop())).RegisterRoutes(api)
	return e
}

func TestHandler_Appointments(t *testing.T) {
	e := newTestServer(&mockSource{appointments: marchScenario()}, []string{auth.RoleManager}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments?from=2024-03-01&to=2024-03-10&groupBy=week", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Resumen struct {
			TotalTurnos int `json:"totalTurnos"`
			Asistidos   int `json:"asistidos"`
		} `json:"resumen"`
		Series []map[string]any `json:"series"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Resumen.TotalTurnos != 10 || body.Resumen.Asistidos != 7 {
		t.Errorf("unexpected summary %+v", body.Resumen)
	}
	if len(body.Series) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(body.Series))
	}
}

func TestHandler_Cancellations(t *testing.T) {
	src := &mockSource{cancellations: []CancellationRecord{
		cancel(1, at("2024-03-02", 9), RequesterProfessional, 1, nil),
	}}
	e := newTestServer(src, []string{auth.RoleFrontDesk}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/cancellations?from=2024-03-01&to=2024-03-10&pageSize=5", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body CancellationReport
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Summary.Total != 1 {
		t.Errorf("expected 1 cancellation, got %d", body.Summary.Total)
	}
	if body.Pagination == nil || body.Pagination.PageSize != 5 {
		t.Errorf("expected pagination block, got %+v", body.Pagination)
	}
	if body.Filters.GroupBy != GroupByDay {
		t.Errorf("expected default groupBy day, got %s", body.Filters.GroupBy)
	}
}

func TestHandler_BadRequest(t *testing.T) {
	e := newTestServer(&mockSource{}, []string{auth.RoleManager}, nil)
	for _, q := range []string{
		"",
		"?from=2024-03-01",
		"?from=01/03/2024&to=2024-03-10",
		"?from=2024-03-10&to=2024-03-01",
		"?from=2024-03-01&to=2024-03-10&groupBy=year",
		"?from=2024-03-01&to=2024-03-10&professionalId=abc",
		"?from=2024-03-01&to=2024-03-10&page=x",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments"+q, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestHandler_Forbidden(t *testing.T) {
	e := newTestServer(&mockSource{}, []string{"patient"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments?from=2024-03-01&to=2024-03-10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for role without access, got %d", rec.Code)
	}

	e = newTestServer(&mockSource{}, []string{auth.RoleProfessional}, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments?from=2024-03-01&to=2024-03-10", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unlinked professional, got %d", rec.Code)
	}
}

func TestHandler_FetchFailure(t *testing.T) {
	e := newTestServer(&mockSource{err: errors.New("db down")}, []string{auth.RoleAdmin}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments?from=2024-03-01&to=2024-03-10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestParseQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?from=2024-01-15&to=2024-01-20&groupBy=Month&specialty=Pediatr%C3%ADa&professionalId=12&page=2&pageSize=3", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p, err := ParseQuery(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.GroupBy != GroupByMonth {
		t.Errorf("expected month, got %s", p.GroupBy)
	}
	if p.From.Format(dateLayout) != "2024-01-15" || p.To.Format(dateLayout) != "2024-01-20" {
		t.Errorf("unexpected range %s..%s", p.From, p.To)
	}
	if p.Specialty == nil || *p.Specialty != "Pediatría" {
		t.Errorf("unexpected specialty %v", p.Specialty)
	}
	if p.ProfessionalID == nil || *p.ProfessionalID != 12 {
		t.Errorf("unexpected professional %v", p.ProfessionalID)
	}
	if p.Page != 2 || p.PageSize != 3 {
		t.Errorf("unexpected pagination %d/%d", p.Page, p.PageSize)
	}
}
