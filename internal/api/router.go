package api

import (
	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal/auth"
)

func Health(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), gin.H{"status": "ok"}, nil)
	}
}

// NewRouter mounts the public health check and the authenticated /api group.
func NewRouter(app App, provider auth.Provider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware())

	r.GET("/health", Health(app))

	g := r.Group("/api", auth.AuthMiddleware(provider), SessionMiddleware())

	g.GET("/activities", GetActivities(app))
	g.POST("/activities", PostActivity(app))
	g.GET("/activities/:id", GetActivity(app))
	g.PUT("/activities/:id", PutActivity(app))
	g.DELETE("/activities/:id", DeleteActivity(app))
	g.PATCH("/activities/:id/quick_update", QuickUpdateActivity(app))
	g.POST("/activities/:id/duplicate", DuplicateActivity(app))
	g.POST("/activities/:id/dismiss_repeat", DismissRepeat(app))

	g.GET("/day", GetDay(app))
	g.GET("/metrics", GetMetrics(app))

	g.GET("/profile", GetProfile(app))
	g.PUT("/profile", PutProfile(app))
	g.GET("/profile/targets", GetTargets(app))

	g.POST("/analysis/calories", PostEstimateCalories(app))
	g.POST("/analysis/blood_pressure", PostAnalyzeBloodPressure(app))
	g.POST("/analysis/sleep", PostAnalyzeSleep(app))
	g.POST("/analysis/medication", PostAnalyzeMedication(app))
	g.GET("/analysis/diet_tips", GetDietTips(app))

	return r
}
