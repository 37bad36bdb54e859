package terminology

import (
	"net/http"
	"strings"

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
	read.GET("/concepts", h.ListConcepts)
	read.GET("/concepts/lookup", h.LookupConcept)
	read.GET("/concepts/:id", h.GetConcept)
	read.GET("/vocabulary-sets", h.ListVocabularySets)
	read.GET("/vocabulary-sets/:id", h.GetVocabularySet)

	// Vocabulary changes alter how every rule is read, so they are admin only.
	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/concepts", h.CreateConcept)
	write.DELETE("/concepts/:id", h.DeleteConcept)
	write.POST("/concepts/:id/retire", h.RetireConcept)
	write.POST("/vocabulary-sets", h.CreateVocabularySet)
	write.DELETE("/vocabulary-sets/:id", h.DeleteVocabularySet)
	write.POST("/vocabulary-sets/:id/retire", h.RetireVocabularySet)
}

// -- Concept Handlers --

func (h *Handler) CreateConcept(c echo.Context) error {
	var concept Concept
	if err := c.Bind(&concept); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddConcept(c.Request().Context(), &concept); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, concept)
}

func (h *Handler) GetConcept(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	concept, err := h.svc.GetActiveConcept(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, concept)
}

func (h *Handler) LookupConcept(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name query parameter is required")
	}
	concept, err := h.svc.GetActiveConceptByName(c.Request().Context(), name)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, concept)
}

func (h *Handler) ListConcepts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListActiveConcepts(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) DeleteConcept(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteConcept(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireConcept(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireConcept(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- VocabularySet Handlers --

func (h *Handler) CreateVocabularySet(c echo.Context) error {
	var v VocabularySet
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddVocabularySet(c.Request().Context(), &v); err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVocabularySet(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.svc.GetActiveVocabularySet(c.Request().Context(), id)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVocabularySets(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListActiveVocabularySets(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg).WithLinks(c.Request().URL.Path))
}

func (h *Handler) DeleteVocabularySet(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVocabularySet(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireVocabularySet(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RetireVocabularySet(c.Request().Context(), id); err != nil {
		return httperr.FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}
