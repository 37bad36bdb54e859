package recommendation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/httperr"
	"github.com/ehr/regimen/pkg/clinicaldate"
)

// Recommender is the operation served by Handler.
type Recommender interface {
	Recommend(ctx context.Context, patientID int64, encounterDate time.Time) ([]*regimen.Category, error)
}

type Handler struct {
	rec    Recommender
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// NewHandler serves rec. Date-only encounter dates are read in loc.
func NewHandler(rec Recommender, loc *time.Location, logger zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{rec: rec, loc: loc, now: time.Now, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleClinician))
	g.POST("/patients/:id/recommendations", h.Recommend)
}

type recommendRequest struct {
	EncounterDate string `json:"encounter_date"`
}

func (h *Handler) Recommend(c echo.Context) error {
	patientID, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	var req recommendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EncounterDate == "" {
		req.EncounterDate = c.QueryParam("encounter_date")
	}
	encounterDate := h.now()
	if v := strings.TrimSpace(req.EncounterDate); v != "" {
		encounterDate, err = clinicaldate.Parse(v, h.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "encounter_date must be RFC3339 or YYYY-MM-DD")
		}
	}

	cats, err := h.rec.Recommend(c.Request().Context(), patientID, encounterDate)
	if err != nil {
		if errors.Is(err, ErrInconsistentData) {
			h.logger.Error().Err(err).Int64("patient_id", patientID).Msg("recommendation rule data is inconsistent")
		}
		return httperr.FromDomain(err)
	}
	return c.JSON(http.StatusOK, Summarize(cats))
}
