package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func CreateAuditLog(as *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var req models.AuditLogRequest
		if !bindJSON(c, &req) {
			return
		}

		entry, err := as.Record(c.Request.Context(), a, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(entry, "Audit log recorded"))
	}
}

func ListAuditLogs(as *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		views, err := as.List(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(views, ""))
	}
}
