package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var req models.BookingRequest
		if !bindJSON(c, &req) {
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), a, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"booking": booking}, "Booking request submitted"))
	}
}

func MyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		bookings, err := bs.ListMyBookings(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

// ListBookings serves the admin listings that differ only in their query.
func ListBookings(list func(ctx context.Context) ([]models.Booking, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := list(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := bookingID(c)
		if !ok {
			return
		}
		booking, err := bs.GetBooking(c.Request.Context(), a, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func ChangeBookingStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := bookingID(c)
		if !ok {
			return
		}
		var change models.StatusChange
		if !bindJSON(c, &change) {
			return
		}

		result, err := bs.ChangeStatus(c.Request.Context(), a, id, &change)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(result, "Booking status updated"))
	}
}

func UpdateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := bookingID(c)
		if !ok {
			return
		}
		var patch models.BookingPatch
		if !bindJSON(c, &patch) {
			return
		}

		result, err := bs.UpdateBooking(c.Request.Context(), a, id, &patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(result, "Booking updated"))
	}
}

func DeleteBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := bookingID(c)
		if !ok {
			return
		}
		if err := bs.DeleteBooking(c.Request.Context(), a, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Booking deleted"))
	}
}

func BookingNotifications(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookingID(c)
		if !ok {
			return
		}
		attempts, err := bs.DeliveryAttempts(c.Request.Context(), id, queryInt(c, "limit", 50))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(attempts, ""))
	}
}
