package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
)

func GetProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := service.BuildProfileView(c.Request.Context(), app.ActivityRepo(), currentUser(c), app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to load profile")
			return
		}
		HandleSuccess(c, app.Logger(), view, nil)
	}
}

func PutProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.ProfileRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		now := app.Now()
		user, err := service.UpdateProfile(c.Request.Context(), app.UserRepo(), currentUser(c), &body, now)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to update profile")
			return
		}
		view, err := service.BuildProfileView(c.Request.Context(), app.ActivityRepo(), user, now)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to load profile")
			return
		}
		HandleSuccess(c, app.Logger(), view, nil)
	}
}

func GetTargets(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		targets := service.CalculateTargets(user, app.Now())
		if targets == nil {
			err := fmt.Errorf("%w: weight, height, date of birth and sex are required", internal.ErrProfileIncomplete)
			HandleError(c, app.Logger(), err, 422, "Complete your profile to see targets")
			return
		}
		HandleSuccess(c, app.Logger(), targets, map[string]any{
			"water_goal_cups": service.EffectiveWaterGoalCups(user, targets),
			"height_label":    service.FormatHeight(*user.Height),
		})
	}
}
