package regimen

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleClinician))
	read.GET("/conditions", h.ListConditions)
	read.GET("/conditions/:id", h.GetCondition)
	read.GET("/frequencies", h.ListFrequencies)
	read.GET("/actions", h.ListActions)
	read.GET("/actions/:id", h.GetAction)
	read.GET("/regimens", h.ListRegimens)
	read.GET("/regimens/:id", h.GetRegimen)
	read.GET("/regimen-categories", h.ListCategories)
	read.GET("/regimen-categories/:id", h.GetCategory)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/regimen-categories", h.CreateCategory)
	admin.DELETE("/regimen-categories/:id", h.DeleteCategory)
	admin.POST("/regimen-categories/:id/retire", h.RetireCategory)
}

func listOrEmpty[T any](items []*T) []*T {
	if items == nil {
		return []*T{}
	}
	return items
}

func (h *Handler) ListConditions(c echo.Context) error {
	items, err := h.svc.ListActiveConditions(c.Request().Context())
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, listOrEmpty(items))
}

func (h *Handler) GetCondition(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	cond, err := h.svc.GetActiveCondition(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, cond)
}

func (h *Handler) ListFrequencies(c echo.Context) error {
	items, err := h.svc.ListActiveFrequencies(c.Request().Context())
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, listOrEmpty(items))
}

func (h *Handler) ListActions(c echo.Context) error {
	items, err := h.svc.ListActiveActions(c.Request().Context())
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, listOrEmpty(items))
}

func (h *Handler) GetAction(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetActiveAction(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListRegimens(c echo.Context) error {
	items, err := h.svc.ListActiveRegimens(c.Request().Context())
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, listOrEmpty(items))
}

func (h *Handler) GetRegimen(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.svc.GetActiveRegimen(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListCategories(c echo.Context) error {
	items, err := h.svc.ListActiveCategories(c.Request().Context())
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, listOrEmpty(items))
}

func (h *Handler) GetCategory(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.svc.GetActiveCategory(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddCategory(c.Request().Context(), &cat); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *Handler) DeleteCategory(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireCategory(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireCategory(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
