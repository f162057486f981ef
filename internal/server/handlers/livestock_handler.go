package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/ledger"
	"github.com/mamadbah2/homestead/internal/service/registry"
)

type appendEventRequest struct {
	models.LedgerEvent
	TrackIndividuals bool `json:"trackIndividuals"`
}

type deathRequest struct {
	registry.DeathInput
	// RecordEvent also logs the matching subtract event for ledger species.
	RecordEvent bool `json:"recordEvent"`
}

type backfillRequest struct {
	Type  models.Species `json:"type"`
	Breed string         `json:"breed"`
}

// ListGroups returns the groups of ?type=, or all of them.
func (h *LivestockHandler) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Registry.Groups(models.Species(c.Query("type"))))
}

func (h *LivestockHandler) CreateGroup(c *gin.Context) {
	var g models.Group
	if !h.bind(c, &g) {
		return
	}
	out, err := h.svc.Registry.CreateGroup(c.Request.Context(), g)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestockHandler) DeleteGroup(c *gin.Context) {
	if err := h.svc.Registry.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEvents returns a species log in replay order.
func (h *LivestockHandler) ListEvents(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	events, err := h.svc.Ledger.Events(sp)
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []models.LedgerEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *LivestockHandler) AppendEvent(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	var req appendEventRequest
	if !h.bind(c, &req) {
		return
	}
	event, animals, err := h.svc.Ledger.Append(c.Request.Context(), sp, req.LedgerEvent,
		ledger.AppendOptions{TrackIndividuals: req.TrackIndividuals})
	if err != nil {
		h.fail(c, err)
		return
	}
	if animals == nil {
		animals = []models.IndividualAnimal{}
	}
	c.JSON(http.StatusCreated, gin.H{"event": event, "animals": animals})
}

func (h *LivestockHandler) EditEvent(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	var e models.LedgerEvent
	if !h.bind(c, &e) {
		return
	}
	e.ID = c.Param("id")
	out, err := h.svc.Ledger.Edit(c.Request.Context(), sp, e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) DeleteEvent(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	removed, err := h.svc.Ledger.Delete(c.Request.Context(), sp, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animalsRemoved": removed})
}

// Count answers GET /species/:species/count?date=.
func (h *LivestockHandler) Count(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	n, err := h.svc.Ledger.CountOnDate(sp, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"species": sp, "date": date, "count": n})
}

func (h *LivestockHandler) SexBreakdown(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	out, err := h.svc.Ledger.SexBreakdownOnDate(sp, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) StageBreakdown(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	out, err := h.svc.Ledger.StageBreakdownOnDate(sp, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) BreedBreakdown(c *gin.Context) {
	sp, ok := h.species(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	rows, warnings := h.svc.Ledger.BreedBreakdown(sp, date)
	if rows == nil {
		rows = []models.BreedCount{}
	}
	c.JSON(http.StatusOK, gin.H{"breeds": rows, "warnings": warningsOrEmpty(warnings)})
}

// ListAnimals filters the registry by ?type=, ?breed= and ?alive=true.
func (h *LivestockHandler) ListAnimals(c *gin.Context) {
	f := registry.Filter{
		Type:      models.Species(c.Query("type")),
		Breed:     c.Query("breed"),
		AliveOnly: c.Query("alive") == "true",
	}
	animals := h.svc.Registry.List(f)
	if animals == nil {
		animals = []models.IndividualAnimal{}
	}
	c.JSON(http.StatusOK, animals)
}

func (h *LivestockHandler) AddBatch(c *gin.Context) {
	var in registry.BatchInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.svc.Registry.AddBatch(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *LivestockHandler) Backfill(c *gin.Context) {
	var req backfillRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.svc.Registry.Backfill(c.Request.Context(), req.Type, req.Breed)
	if err != nil {
		h.fail(c, err)
		return
	}
	if out == nil {
		out = []models.IndividualAnimal{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LivestockHandler) Mature(c *gin.Context) {
	var in registry.MatureInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.svc.Registry.Mature(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// RecordDeath marks an animal dead or consumed, logging the loss when
// recordEvent is set.
func (h *LivestockHandler) RecordDeath(c *gin.Context) {
	var req deathRequest
	if !h.bind(c, &req) {
		return
	}
	id := c.Param("id")
	if !req.RecordEvent {
		animal, err := h.svc.Registry.MarkDeath(c.Request.Context(), id, req.DeathInput)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"animal": animal})
		return
	}
	animal, event, err := h.svc.Registry.RecordLoss(c.Request.Context(), id, req.DeathInput)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animal": animal, "event": event})
}

func (h *LivestockHandler) RemoveAnimal(c *gin.Context) {
	if err := h.svc.Registry.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Lineage returns a rabbit with its parents and offspring.
func (h *LivestockHandler) Lineage(c *gin.Context) {
	out, err := h.svc.Breeding.Lineage(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
