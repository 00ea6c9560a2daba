package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/middleware"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

// respondError maps a domain error to its status code. Anything unknown is
// handed to the ErrorHandler middleware for logging and answered with a
// generic 500.
func respondError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.RequestIDKey)
	resp := models.ErrorResponse(err.Error())
	resp.RequestID = requestID

	var pwErr services.PasswordError
	if errors.As(err, &pwErr) {
		resp.Error = pwErr.Error()
		resp.Details = pwErr.Problems
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, resp)
	case models.IsAuth(err):
		c.JSON(http.StatusUnauthorized, resp)
	case models.IsForbidden(err):
		c.JSON(http.StatusForbidden, resp)
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, resp)
	case models.IsConflict(err):
		c.JSON(http.StatusConflict, resp)
	default:
		if ue, ok := models.AsUpstream(err); ok && ue.Correctable {
			_ = c.Error(err)
			resp.Error = ue.PublicMessage()
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		_ = c.Error(err)
		generic := models.ErrorResponse("Internal server error")
		generic.RequestID = requestID
		c.JSON(http.StatusInternalServerError, generic)
	}
}

func badRequest(c *gin.Context, msg string) {
	resp := models.ErrorResponse(msg)
	resp.RequestID = c.GetString(middleware.RequestIDKey)
	c.JSON(http.StatusBadRequest, resp)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request payload")
		return false
	}
	return true
}

func actor(c *gin.Context) (services.Actor, bool) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		resp := models.ErrorResponse("Unauthorized")
		resp.RequestID = c.GetString(middleware.RequestIDKey)
		c.JSON(http.StatusUnauthorized, resp)
	}
	return a, ok
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := models.ParseBookingID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
