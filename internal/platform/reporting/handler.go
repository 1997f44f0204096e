package reporting

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/policlinic/clinic/internal/platform/auth"
	"github.com/policlinic/clinic/pkg/pagination"
)

var (
	ErrInvalidDate         = errors.New("dates must use the YYYY-MM-DD format")
	ErrInvalidProfessional = errors.New("professionalId must be a positive integer")
)

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

// NewHandler creates a new reporting handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleManager, auth.RoleFrontDesk, auth.RoleProfessional))
	g.GET("/appointments", h.Appointments)
	g.GET("/cancellations", h.Cancellations)
}

// Appointments returns the appointments report for the requested range.
func (h *Handler) Appointments(c echo.Context) error {
	p, err := ParseQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	report, err := h.svc.AppointmentReport(ctx, auth.CallerFromContext(ctx), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// Cancellations returns the cancellations report for the requested range.
func (h *Handler) Cancellations(c echo.Context) error {
	p, err := ParseQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	report, err := h.svc.CancellationReport(ctx, auth.CallerFromContext(ctx), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// ParseQuery reads report parameters from the query string. groupBy
// defaults to day.
func ParseQuery(c echo.Context) (Params, error) {
	var p Params
	var err error

	if p.From, err = parseDate(c.QueryParam("from")); err != nil {
		return p, err
	}
	if p.To, err = parseDate(c.QueryParam("to")); err != nil {
		return p, err
	}

	p.GroupBy = GroupByDay
	if raw := c.QueryParam("groupBy"); raw != "" {
		if p.GroupBy, err = ParseGroupBy(raw); err != nil {
			return p, err
		}
	}

	if s := strings.TrimSpace(c.QueryParam("specialty")); s != "" {
		p.Specialty = &s
	}
	if raw := strings.TrimSpace(c.QueryParam("professionalId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return p, fmt.Errorf("%w: %q", ErrInvalidProfessional, raw)
		}
		p.ProfessionalID = &id
	}

	pg, err := pagination.FromContext(c)
	if err != nil {
		return p, err
	}
	p.Page, p.PageSize = pg.Page, pg.PageSize
	return p, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingRange
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingRange), errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidGroupBy):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoProfessionalScope):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "report generation failed")
	}
}
