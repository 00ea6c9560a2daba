package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

func GetProfile(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		user, err := us.GetProfile(c.Request.Context(), a)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

// UpdateProfile decodes into ProfileUpdate, so role and email in the body
// are dropped.
func UpdateProfile(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var update models.ProfileUpdate
		if !bindJSON(c, &update) {
			return
		}

		user, err := us.UpdateProfile(c.Request.Context(), a, &update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "Profile updated successfully"))
	}
}

func ChangeUserRole(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		userID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid user ID format")
			return
		}
		var change services.RoleChange
		if !bindJSON(c, &change) {
			return
		}

		user, err := us.ChangeRole(c.Request.Context(), a, userID, &change)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "Role updated successfully"))
	}
}
