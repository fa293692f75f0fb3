package consultation

import (
	"errors"
	"net/http"

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
	readGroup.GET("/consultations", h.List)
	readGroup.GET("/consultations/:id", h.Get)
	readGroup.GET("/patients/:id/consultations", h.ListByPatient)

	// Clinical notes are written by doctors only.
	writeGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	writeGroup.POST("/consultations", h.Save)
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
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) List(c echo.Context) error {
	return h.list(c, c.QueryParam("patient_id"))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	return h.list(c, c.Param("id"))
}

func (h *Handler) list(c echo.Context, patientID string) error {
	items, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(items, pg), len(items), pg.Limit, pg.Offset))
}
