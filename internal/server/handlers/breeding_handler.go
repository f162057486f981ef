package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/breeding"
)

type statusRequest struct {
	Status models.BreedingStatus `json:"status"`
}

type attemptRequest struct {
	Outcome models.AttemptOutcome `json:"outcome"`
}

func (h *LivestockHandler) ListBreedings(c *gin.Context) {
	var out []models.BreedingRecord
	switch {
	case c.Query("rabbitId") != "":
		out = h.svc.Breeding.History(c.Query("rabbitId"))
	case c.Query("active") == "true":
		out = h.svc.Breeding.ActiveBreedings()
	default:
		out = h.svc.Breeding.List()
	}
	if out == nil {
		out = []models.BreedingRecord{}
	}
	c.JSON(http.StatusOK, out)
}

// CreateBreeding pairs a buck and a doe. Inbreeding risk is reported, not refused.
func (h *LivestockHandler) CreateBreeding(c *gin.Context) {
	var in breeding.CreateInput
	if !h.bind(c, &in) {
		return
	}
	record, warnings, err := h.svc.Breeding.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": record, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) UpcomingKindlings(c *gin.Context) {
	days, ok := h.daysQuery(c, h.svc.KindlingHorizonDays)
	if !ok {
		return
	}
	out := h.svc.Breeding.UpcomingKindlings(days)
	if out == nil {
		out = []models.BreedingRecord{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) GetBreeding(c *gin.Context) {
	out, err := h.svc.Breeding.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) UpdateBreeding(c *gin.Context) {
	var p breeding.Patch
	if !h.bind(c, &p) {
		return
	}
	record, warnings, err := h.svc.Breeding.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) DeleteBreeding(c *gin.Context) {
	if err := h.svc.Breeding.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LivestockHandler) SetBreedingStatus(c *gin.Context) {
	var req statusRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.svc.Breeding.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) AddAttempt(c *gin.Context) {
	var req attemptRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.svc.Breeding.AddAttempt(c.Request.Context(), c.Param("id"), req.Outcome)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) RemoveLastAttempt(c *gin.Context) {
	out, err := h.svc.Breeding.RemoveLastAttempt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CompleteBreeding weans a litter and creates one rabbit per allocated kit.
func (h *LivestockHandler) CompleteBreeding(c *gin.Context) {
	var in breeding.CompleteInput
	if !h.bind(c, &in) {
		return
	}
	record, kits, err := h.svc.Breeding.Complete(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	if kits == nil {
		kits = []models.IndividualAnimal{}
	}
	c.JSON(http.StatusOK, gin.H{"record": record, "kits": kits})
}

type completePlanRequest struct {
	BreedingDate models.Date `json:"breedingDate,omitempty"`
}

// ListBreedingPlans returns plans soonest first, filtered by ?status= when set.
func (h *LivestockHandler) ListBreedingPlans(c *gin.Context) {
	status := models.PlanStatus(c.Query("status"))
	switch status {
	case "", models.PlanPlanned, models.PlanCompleted, models.PlanCancelled:
	default:
		h.fail(c, models.Invalid("status", "unknown plan status %q", status))
		return
	}
	out := h.svc.Breeding.Plans(status)
	if out == nil {
		out = []models.BreedingPlan{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) AddBreedingPlan(c *gin.Context) {
	var in breeding.PlanInput
	if !h.bind(c, &in) {
		return
	}
	plan, warnings, err := h.svc.Breeding.AddPlan(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) GetBreedingPlan(c *gin.Context) {
	out, err := h.svc.Breeding.Plan(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) UpdateBreedingPlan(c *gin.Context) {
	var p breeding.PlanPatch
	if !h.bind(c, &p) {
		return
	}
	out, err := h.svc.Breeding.UpdatePlan(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) CancelBreedingPlan(c *gin.Context) {
	out, err := h.svc.Breeding.CancelPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CompleteBreedingPlan starts the planned mating. The body is optional and may
// carry the breeding date; today is used otherwise.
func (h *LivestockHandler) CompleteBreedingPlan(c *gin.Context) {
	var req completePlanRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}
	plan, record, warnings, err := h.svc.Breeding.CompletePlan(c.Request.Context(), c.Param("id"), req.BreedingDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "record": record, "warnings": warningsOrEmpty(warnings)})
}

func (h *LivestockHandler) DeleteBreedingPlan(c *gin.Context) {
	if err := h.svc.Breeding.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
