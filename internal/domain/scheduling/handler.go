package scheduling

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/policlinic/clinic/internal/platform/auth"
	"github.com/policlinic/clinic/internal/platform/reporting"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleFrontDesk, auth.RoleProfessional))
	readGroup.GET("/professionals", h.ListProfessionals)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleFrontDesk, auth.RoleProfessional))
	writeGroup.POST("/appointments/:id/cancel", h.CancelAppointment)
}

func (h *Handler) ListProfessionals(c echo.Context) error {
	items, err := h.svc.ListProfessionals(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Professional{}
	}
	return c.JSON(http.StatusOK, items)
}

type cancelBody struct {
	RequestedBy string  `json:"requestedBy"`
	Reason      *string `json:"reason"`
}

// CancelAppointment records a cancellation on behalf of the caller. Callers
// acting only as professionals always cancel as PROFESSIONAL.
func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body cancelBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	caller := auth.CallerFromContext(ctx)
	req := CancelRequest{
		AppointmentID: id,
		RequestedBy:   reporting.Requester(body.RequestedBy),
		Reason:        body.Reason,
	}
	if body.RequestedBy != "" {
		r, err := reporting.ParseRequester(&body.RequestedBy)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req.RequestedBy = r
	}
	if !caller.ClinicWide() {
		scope := caller.ScopedProfessionalID()
		if scope == nil {
			return echo.NewHTTPError(http.StatusForbidden, reporting.ErrNoProfessionalScope.Error())
		}
		req.RequestedBy = reporting.RequesterProfessional
		req.ProfessionalScope = scope
	}
	if uid, err := strconv.ParseInt(caller.UserID, 10, 64); err == nil {
		req.CanceledByUser = &uid
	}

	cancellation, err := h.svc.CancelAppointment(ctx, req)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, cancellation)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrAlreadyCanceled), errors.Is(err, ErrNotCancelable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
