package api

import (
	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal/service"
)

func GetDay(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		now := app.Now()
		date := c.DefaultQuery("date", service.Today(user, now))
		dismissed := app.Sessions().Dismissed(c.GetString("session_id"))

		view, err := service.BuildDayView(c.Request.Context(), app.ActivityRepo(), dismissed, user, date, now)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to build day view")
			return
		}
		HandleSuccess(c, app.Logger(), view, nil)
	}
}

// GetMetrics charts ?from=&to=, defaulting to the last 30 days.
func GetMetrics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		series, err := service.Metrics(c.Request.Context(), app.ActivityRepo(), currentUser(c), c.Query("from"), c.Query("to"), app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to build metrics")
			return
		}
		HandleSuccess(c, app.Logger(), series, nil)
	}
}
