package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func ListVenues(vs *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		venues, err := vs.ListVenues(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(venues, ""))
	}
}

func GetVenue(vs *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid venue ID format")
			return
		}
		venue, err := vs.GetVenue(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(venue, ""))
	}
}

func CreateVenue(vs *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var input models.VenueInput
		if !bindJSON(c, &input) {
			return
		}

		venue, err := vs.CreateVenue(c.Request.Context(), a, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(venue, "Venue created successfully"))
	}
}

func UpdateVenue(vs *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid venue ID format")
			return
		}
		var patch models.VenuePatch
		if !bindJSON(c, &patch) {
			return
		}

		venue, err := vs.UpdateVenue(c.Request.Context(), a, id, &patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(venue, "Venue updated successfully"))
	}
}
