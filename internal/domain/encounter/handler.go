package encounter

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
	read.GET("/encounters", h.ListEncounters)
	read.GET("/encounters/:id", h.GetEncounter)
	read.GET("/patients/:id/encounters", h.ListPatientEncounters)

	write := api.Group("", auth.RequireRole(auth.RoleClinician))
	write.POST("/encounters", h.CreateEncounter)
	write.DELETE("/encounters/:id", h.DeleteEncounter)
	write.POST("/encounters/:id/retire", h.RetireEncounter)
}

func (h *Handler) CreateEncounter(c echo.Context) error {
	var enc Encounter
	if err := c.Bind(&enc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEncounter(c.Request().Context(), &enc); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, enc)
}

func (h *Handler) GetEncounter(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	enc, err := h.svc.GetActiveEncounter(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, enc)
}

func (h *Handler) ListEncounters(c echo.Context) error {
	pg := pagination.FromContext(c)
	encs, total, err := h.svc.ListActiveEncounters(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(encs, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) ListPatientEncounters(c echo.Context) error {
	patientID, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	encs, err := h.svc.ListPatientEncounters(c.Request().Context(), patientID)
	if err != nil {
		return httperr.FromDomain(err)
	}
	if encs == nil {
		encs = []*Encounter{}
	}
	return c.JSON(http.StatusOK, encs)
}

func (h *Handler) DeleteEncounter(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEncounter(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireEncounter(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireEncounter(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
