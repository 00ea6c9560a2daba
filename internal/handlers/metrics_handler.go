package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func MetricsCounts(ms *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		counts, err := ms.Counts(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(counts, ""))
	}
}

// HealthCheck is one named dependency probe.
type HealthCheck func(ctx context.Context) error

// Health reports 503 when any probe fails. Probe errors stay in the logs.
func Health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = "down"
				_ = c.Error(err)
				continue
			}
			report[name] = "up"
		}

		c.JSON(status, gin.H{
			"status":       http.StatusText(status),
			"dependencies": report,
			"time":         time.Now().UTC(),
		})
	}
}
