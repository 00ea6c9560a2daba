package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func SubmitChangeRequest(cs *services.ChangeRequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var input models.ChangeRequestInput
		if !bindJSON(c, &input) {
			return
		}

		cr, err := cs.Submit(c.Request.Context(), a, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(cr, "Change request submitted"))
	}
}

func MyChangeRequests(cs *services.ChangeRequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		rows, err := cs.ListMine(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rows, ""))
	}
}

func ListChangeRequests(cs *services.ChangeRequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		rows, err := cs.ListAll(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rows, ""))
	}
}

func ReviewChangeRequest(cs *services.ChangeRequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, err := services.ParseChangeRequestID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var review models.ChangeRequestReview
		if !bindJSON(c, &review) {
			return
		}

		cr, err := cs.Review(c.Request.Context(), a, id, &review)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(cr, "Change request updated"))
	}
}

func DeleteChangeRequest(cs *services.ChangeRequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, err := services.ParseChangeRequestID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := cs.Delete(c.Request.Context(), a, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Change request deleted"))
	}
}
