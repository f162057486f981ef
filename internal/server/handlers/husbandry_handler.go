package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/eggs"
	"github.com/mamadbah2/homestead/internal/service/health"
)

func (h *LivestockHandler) ListVaccinations(c *gin.Context) {
	out := h.svc.Health.List(c.Query("animalId"))
	if out == nil {
		out = []models.Vaccination{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) AddVaccination(c *gin.Context) {
	var v models.Vaccination
	if !h.bind(c, &v) {
		return
	}
	out, err := h.svc.Health.Add(c.Request.Context(), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestockHandler) DeleteVaccination(c *gin.Context) {
	if err := h.svc.Health.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DueVaccinations lists boosters due within ?days= (default horizon otherwise).
func (h *LivestockHandler) DueVaccinations(c *gin.Context) {
	days, ok := h.daysQuery(c, h.svc.VaccinationHorizonDays)
	if !ok {
		return
	}
	out := h.svc.Health.Due(days)
	if out == nil {
		out = []models.Vaccination{}
	}
	c.JSON(http.StatusOK, out)
}

// ListEggs returns entries between ?from= and ?to=, both optional.
func (h *LivestockHandler) ListEggs(c *gin.Context) {
	var bounds [2]models.Date
	for i, key := range []string{"from", "to"} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		bounds[i] = d
	}
	out := h.svc.Eggs.List(bounds[0], bounds[1])
	if out == nil {
		out = []models.EggProduction{}
	}
	c.JSON(http.StatusOK, out)
}

// AddEggs logs a day. Posting an existing date merges into that entry.
func (h *LivestockHandler) AddEggs(c *gin.Context) {
	var in models.EggProduction
	if !h.bind(c, &in) {
		return
	}
	out, warnings, err := h.svc.Eggs.Add(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": out, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) UpdateEggs(c *gin.Context) {
	var in models.EggProduction
	if !h.bind(c, &in) {
		return
	}
	out, warnings, err := h.svc.Eggs.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) DeleteEggs(c *gin.Context) {
	if err := h.svc.Eggs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LivestockHandler) EggWarnings(c *gin.Context) {
	missing := h.svc.Eggs.MissingDays(eggs.DefaultMissingLimit)
	if missing == nil {
		missing = []models.Date{}
	}
	c.JSON(http.StatusOK, gin.H{
		"warnings":    warningsOrEmpty(h.svc.Eggs.Warnings()),
		"missingDays": missing,
	})
}

// Dashboard builds the summary for ?date= (today by default).
func (h *LivestockHandler) Dashboard(c *gin.Context) {
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	out, err := h.svc.Reporting.Build(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListHealthRecords returns records for ?animalId=, or all. ?active=true keeps
// only unresolved issues.
func (h *LivestockHandler) ListHealthRecords(c *gin.Context) {
	var out []models.HealthRecord
	if c.Query("active") == "true" {
		out = h.svc.Health.ActiveIssues(c.Query("animalId"))
	} else {
		out = h.svc.Health.Records(c.Query("animalId"))
	}
	if out == nil {
		out = []models.HealthRecord{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) AddHealthRecord(c *gin.Context) {
	var in models.HealthRecord
	if !h.bind(c, &in) {
		return
	}
	out, err := h.svc.Health.AddRecord(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestockHandler) UpdateHealthRecord(c *gin.Context) {
	var p health.RecordPatch
	if !h.bind(c, &p) {
		return
	}
	out, err := h.svc.Health.UpdateRecord(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) DeleteHealthRecord(c *gin.Context) {
	if err := h.svc.Health.DeleteRecord(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// WeightHistory lists the weighings of ?animalId=, newest first.
func (h *LivestockHandler) WeightHistory(c *gin.Context) {
	id := c.Query("animalId")
	if id == "" {
		h.fail(c, models.Invalid("animalId", "animalId is required"))
		return
	}
	out := h.svc.Health.WeightHistory(id)
	if out == nil {
		out = []models.WeightRecord{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) AddWeight(c *gin.Context) {
	var in models.WeightRecord
	if !h.bind(c, &in) {
		return
	}
	out, err := h.svc.Health.AddWeight(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestockHandler) DeleteWeight(c *gin.Context) {
	if err := h.svc.Health.DeleteWeight(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
