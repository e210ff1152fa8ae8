package api

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
)

type QuickUpdateRequest struct {
	AddValue *float64 `json:"add_value"`
}

type DuplicateRequest struct {
	Date string `json:"date"`
}

// GetActivities lists one day (?date=, default today) newest first, or an
// inclusive ?from=&to= range in storage order.
func GetActivities(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		from, to := c.Query("from"), c.Query("to")
		if from != "" || to != "" {
			acts, err := service.ListRange(c.Request.Context(), app.ActivityRepo(), user, from, to)
			if err != nil {
				HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
				return
			}
			HandleSuccess(c, app.Logger(), acts, map[string]any{"from": from, "to": to, "count": len(acts)})
			return
		}

		date := c.DefaultQuery("date", service.Today(user, app.Now()))
		acts, err := service.ListDay(c.Request.Context(), app.ActivityRepo(), user, date)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
			return
		}
		HandleSuccess(c, app.Logger(), acts, map[string]any{"date": date, "count": len(acts)})
	}
}

func PostActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.ActivityRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		a, err := service.CreateActivity(c.Request.Context(), app.ActivityRepo(), user, &body, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to save activity")
			return
		}
		HandleCreated(c, app.Logger(), a)
	}
}

func GetActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := service.GetActivity(c.Request.Context(), app.ActivityRepo(), currentUser(c), c.Param("id"))
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Activity not found")
			return
		}
		HandleSuccess(c, app.Logger(), a, nil)
	}
}

func PutActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.ActivityRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		a, err := service.UpdateActivity(c.Request.Context(), app.ActivityRepo(), currentUser(c), c.Param("id"), &body, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to update activity")
			return
		}
		HandleSuccess(c, app.Logger(), a, nil)
	}
}

func DeleteActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := service.DeleteActivity(c.Request.Context(), app.ActivityRepo(), currentUser(c), id); err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to delete activity")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"deleted": id})
	}
}

func QuickUpdateActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body QuickUpdateRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if body.AddValue == nil {
			HandleError(c, app.Logger(), fmt.Errorf("%w: add_value is required", internal.ErrValidation), 400, "Validation failed")
			return
		}

		a, err := service.QuickIncrement(c.Request.Context(), app.ActivityRepo(), currentUser(c), c.Param("id"), *body.AddValue, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to update activity")
			return
		}
		HandleSuccess(c, app.Logger(), a, map[string]any{"added": *body.AddValue})
	}
}

// DuplicateActivity copies onto the body's date, the ?date= query, or today.
func DuplicateActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body DuplicateRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid JSON")
				return
			}
		}
		date := body.Date
		if date == "" {
			date = c.Query("date")
		}

		a, err := service.Duplicate(c.Request.Context(), app.ActivityRepo(), currentUser(c), c.Param("id"), date, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to duplicate activity")
			return
		}
		HandleCreated(c, app.Logger(), a)
	}
}

func DismissRepeat(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString("session_id")
		if sessionID == "" {
			HandleError(c, app.Logger(), errors.New("no session"), 400, "Session required")
			return
		}
		id := c.Param("id")
		if err := service.Dismiss(c.Request.Context(), app.ActivityRepo(), app.Sessions(), currentUser(c), sessionID, id); err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to dismiss suggestion")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"dismissed": id})
	}
}
