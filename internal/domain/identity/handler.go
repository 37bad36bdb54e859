package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/httperr"
	"github.com/ehr/regimen/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleClinician))
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:id", h.GetPatient)

	write := api.Group("", auth.RequireRole(auth.RoleClinician))
	write.POST("/patients", h.CreatePatient)
	write.DELETE("/patients/:id", h.DeletePatient)
	write.POST("/patients/:id/retire", h.RetirePatient)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetActivePatient(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListActivePatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetirePatient(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetirePatient(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
