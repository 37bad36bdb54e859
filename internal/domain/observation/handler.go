package observation

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
	read.GET("/observations", h.ListObservations)
	read.GET("/observations/:id", h.GetObservation)
	read.GET("/encounters/:id/observations", h.ListEncounterObservations)

	write := api.Group("", auth.RequireRole(auth.RoleClinician))
	write.POST("/observations", h.CreateObservation)
	write.DELETE("/observations/:id", h.DeleteObservation)
	write.POST("/observations/:id/retire", h.RetireObservation)
}

func (h *Handler) CreateObservation(c echo.Context) error {
	var o Observation
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordObservation(c.Request().Context(), &o); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetObservation(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.svc.GetActiveObservation(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListObservations(c echo.Context) error {
	pg := pagination.FromContext(c)
	obs, total, err := h.svc.PageActiveObservations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(obs, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) ListEncounterObservations(c echo.Context) error {
	encounterID, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	obs, err := h.svc.ListEncounterObservations(c.Request().Context(), encounterID)
	if err != nil {
		return httperr.FromDomain(err)
	}
	if obs == nil {
		obs = []*Observation{}
	}
	return c.JSON(http.StatusOK, obs)
}

func (h *Handler) DeleteObservation(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteObservation(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireObservation(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireObservation(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
