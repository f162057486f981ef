package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/metrics"
	"github.com/mamadbah2/homestead/internal/server/handlers"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

// New wires the Gin engine with required routes and middlewares.
func New(h *handlers.LivestockHandler, m *metrics.Metrics, health HealthCheck, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	if m != nil {
		r.Use(metricsMiddleware(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	api.GET("/groups", h.ListGroups)
	api.POST("/groups", h.CreateGroup)
	api.DELETE("/groups/:id", h.DeleteGroup)

	species := api.Group("/species/:species")
	species.GET("/events", h.ListEvents)
	species.POST("/events", h.AppendEvent)
	species.PUT("/events/:id", h.EditEvent)
	species.DELETE("/events/:id", h.DeleteEvent)
	species.GET("/count", h.Count)
	species.GET("/sex", h.SexBreakdown)
	species.GET("/stages", h.StageBreakdown)
	species.GET("/breeds", h.BreedBreakdown)

	animals := api.Group("/animals")
	animals.GET("", h.ListAnimals)
	animals.POST("/batch", h.AddBatch)
	animals.POST("/backfill", h.Backfill)
	animals.POST("/mature", h.Mature)
	animals.POST("/:id/death", h.RecordDeath)
	animals.GET("/:id/lineage", h.Lineage)
	animals.DELETE("/:id", h.RemoveAnimal)

	breeding := api.Group("/breeding")
	breeding.GET("", h.ListBreedings)
	breeding.POST("", h.CreateBreeding)
	breeding.GET("/upcoming", h.UpcomingKindlings)
	breeding.GET("/:id", h.GetBreeding)
	breeding.PATCH("/:id", h.UpdateBreeding)
	breeding.DELETE("/:id", h.DeleteBreeding)
	breeding.PUT("/:id/status", h.SetBreedingStatus)
	breeding.POST("/:id/attempts", h.AddAttempt)
	breeding.DELETE("/:id/attempts/last", h.RemoveLastAttempt)
	breeding.POST("/:id/complete", h.CompleteBreeding)

	plans := api.Group("/breeding-plans")
	plans.GET("", h.ListBreedingPlans)
	plans.POST("", h.AddBreedingPlan)
	plans.GET("/:id", h.GetBreedingPlan)
	plans.PATCH("/:id", h.UpdateBreedingPlan)
	plans.DELETE("/:id", h.DeleteBreedingPlan)
	plans.POST("/:id/cancel", h.CancelBreedingPlan)
	plans.POST("/:id/complete", h.CompleteBreedingPlan)

	api.GET("/vaccinations", h.ListVaccinations)
	api.POST("/vaccinations", h.AddVaccination)
	api.GET("/vaccinations/due", h.DueVaccinations)
	api.DELETE("/vaccinations/:id", h.DeleteVaccination)

	api.GET("/health-records", h.ListHealthRecords)
	api.POST("/health-records", h.AddHealthRecord)
	api.PATCH("/health-records/:id", h.UpdateHealthRecord)
	api.DELETE("/health-records/:id", h.DeleteHealthRecord)

	api.GET("/weights", h.WeightHistory)
	api.POST("/weights", h.AddWeight)
	api.DELETE("/weights/:id", h.DeleteWeight)

	api.GET("/eggs", h.ListEggs)
	api.POST("/eggs", h.AddEggs)
	api.GET("/eggs/warnings", h.EggWarnings)
	api.PUT("/eggs/:id", h.UpdateEggs)
	api.DELETE("/eggs/:id", h.DeleteEggs)

	api.GET("/dashboard", h.Dashboard)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// metricsMiddleware labels requests by route template so ids do not explode
// the label space. Unmatched paths share one label.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
