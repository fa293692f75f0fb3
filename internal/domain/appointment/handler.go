package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/santelink/santelink/internal/platform/auth"
	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
	"github.com/santelink/santelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.StaffRoles...))
	readGroup.GET("/appointments", h.List)
	readGroup.GET("/appointments/calendar", h.Calendar)
	readGroup.GET("/appointments/:id", h.Get)
	readGroup.GET("/patients/:id/appointments", h.ListByPatient)
	readGroup.GET("/doctors", h.ListDoctors)

	writeGroup := api.Group("", auth.RequireRole(auth.StaffRoles...))
	writeGroup.POST("/appointments", h.Save)
}

func (h *Handler) Save(c echo.Context) error {
	var input map[string]any
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, workflow.Result{Message: "malformed request body"})
	}
	res, _ := h.svc.Save(c.Request().Context(), input)
	return c.JSON(res.HTTPStatus(), res)
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		Date:     c.QueryParam("date"),
		Search:   c.QueryParam("search"),
		DoctorID: c.QueryParam("doctor_id"),
		Status:   c.QueryParam("status"),
	}
	if f.Date != "" {
		if _, err := time.Parse("2006-01-02", f.Date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		}
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	items, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) Calendar(c echo.Context) error {
	month := c.QueryParam("month")
	if month == "" {
		month = h.svc.now().Format("2006-01")
	}
	days, err := h.svc.Calendar(c.Request().Context(), month)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"month": month, "days": days})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Doctors())
}
