package patient

import (
	"errors"
	"net/http"
	"strings"

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
	readGroup.GET("/patients", h.List)
	readGroup.GET("/patients/stats", h.Stats)
	readGroup.GET("/patients/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole(auth.StaffRoles...))
	writeGroup.POST("/patients", h.Save)
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
	d, err := h.svc.Detail(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

// List accepts repeated or comma-separated status parameters.
func (h *Handler) List(c echo.Context) error {
	var statuses []string
	for _, raw := range c.QueryParams()["status"] {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				statuses = append(statuses, st)
			}
		}
	}
	items, err := h.svc.List(c.Request().Context(), Filter{
		Search:   c.QueryParam("search"),
		Statuses: statuses,
	})
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}
