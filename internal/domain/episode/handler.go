package episode

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
	read.GET("/episodes", h.ListEpisodes)
	read.GET("/episodes/:id", h.GetEpisode)
	read.GET("/encounters/:id/episodes", h.ListEncounterEpisodes)

	write := api.Group("", auth.RequireRole(auth.RoleClinician))
	write.POST("/episodes", h.AddEpisode)
	write.DELETE("/episodes/:id", h.DeleteEpisode)
	write.POST("/episodes/:id/retire", h.RetireEpisode)
}

func (h *Handler) AddEpisode(c echo.Context) error {
	var ep Episode
	if err := c.Bind(&ep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddEpisode(c.Request().Context(), &ep); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, ep)
}

func (h *Handler) GetEpisode(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	ep, err := h.svc.GetActiveEpisode(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, ep)
}

func (h *Handler) ListEpisodes(c echo.Context) error {
	pg := pagination.FromContext(c)
	eps, total, err := h.svc.ListActiveEpisodes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(eps, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) ListEncounterEpisodes(c echo.Context) error {
	encounterID, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	eps, err := h.svc.ListEncounterEpisodes(c.Request().Context(), encounterID)
	if err != nil {
		return httperr.FromDomain(err)
	}
	if eps == nil {
		eps = []*Episode{}
	}
	return c.JSON(http.StatusOK, eps)
}

func (h *Handler) DeleteEpisode(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEpisode(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireEpisode(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireEpisode(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
