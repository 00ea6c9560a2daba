package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func VenueCalendar(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := cs.VenueBookings(c.Request.Context(), c.Param("venue"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

func VenueAvailability(cs *services.CalendarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := cs.Day(c.Request.Context(), c.Param("venue"), c.Query("date"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(day, ""))
	}
}
