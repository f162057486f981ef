package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/breeding"
	"github.com/mamadbah2/homestead/internal/service/eggs"
	"github.com/mamadbah2/homestead/internal/service/health"
	"github.com/mamadbah2/homestead/internal/service/ledger"
	"github.com/mamadbah2/homestead/internal/service/registry"
	"github.com/mamadbah2/homestead/internal/service/reporting"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Ledger    *ledger.Service
	Registry  *registry.Service
	Breeding  *breeding.Service
	Health    *health.Service
	Eggs      *eggs.Service
	Reporting *reporting.Service
	// Horizons used when a request does not pass ?days=.
	KindlingHorizonDays    int
	VaccinationHorizonDays int
}

// LivestockHandler is the JSON API used by the farm UI.
type LivestockHandler struct {
	svc    Services
	logger *zap.Logger
}

// NewLivestockHandler constructs the HTTP handler adapter.
func NewLivestockHandler(svc Services, logger *zap.Logger) *LivestockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if svc.KindlingHorizonDays == 0 {
		svc.KindlingHorizonDays = breeding.DefaultKindlingHorizonDays
	}
	if svc.VaccinationHorizonDays == 0 {
		svc.VaccinationHorizonDays = health.DefaultDueHorizonDays
	}
	return &LivestockHandler{svc: svc, logger: logger}
}

// fail maps domain errors onto status codes. Validation problems are the
// caller's fault, unknown ids are 404 and anything else is logged as ours.
func (h *LivestockHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, breeding.ErrAlreadyWeaned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *LivestockHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// species reads the :species path parameter.
func (h *LivestockHandler) species(c *gin.Context) (models.Species, bool) {
	sp, err := models.ParseSpecies(c.Param("species"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return sp, true
}

// dateQuery reads ?date=, defaulting to today.
func (h *LivestockHandler) dateQuery(c *gin.Context) (models.Date, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.svc.Ledger.Today(), true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return d, true
}

func (h *LivestockHandler) daysQuery(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.fail(c, models.Invalid("days", "must be a non-negative integer"))
		return 0, false
	}
	return n, true
}

func warningsOrEmpty(w []models.Warning) []models.Warning {
	if w == nil {
		return []models.Warning{}
	}
	return w
}
