package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/natours/dto"
	"github.com/princinho/natours/middleware"
	"github.com/princinho/natours/models"
	"github.com/princinho/natours/services"
	"github.com/princinho/natours/utils"
)

// GET /api/v1/users (admin)
func GetAllUsers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.ListUsers(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(list),
			"data":    gin.H{"users": models.Views(list)},
		})
	}
}

// PATCH /api/v1/users/updateMe
func UpdateMe(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, err := middleware.MustCurrentUser(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var body dto.UpdateMeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}

		updated, err := users.UpdateMe(c.Request.Context(), current, services.ProfileUpdate{
			Name:              body.Name,
			Email:             body.Email,
			HasPasswordFields: body.HasPasswordFields(),
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": updated.View()}})
	}
}

// DELETE /api/v1/users/deleteMe
func DeleteMe(users *services.UserService, cookie TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, err := middleware.MustCurrentUser(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := users.DeleteMe(c.Request.Context(), current); err != nil {
			_ = c.Error(err)
			return
		}
		utils.ClearTokenCookie(c, cookie.Secure)
		c.Status(http.StatusNoContent)
	}
}
