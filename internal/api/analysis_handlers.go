package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/analysis"
	"github.com/richdownie/healthme/internal/service"
)

const maxAnalysisImages = 4

type CalorieEstimateRequest struct {
	Notes    string           `json:"notes"`
	Category string           `json:"category"`
	Value    *float64         `json:"value"`
	Unit     string           `json:"unit"`
	Images   []analysis.Image `json:"images"`
}

type BloodPressureAnalysisRequest struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Date      string `json:"date"`
}

type SleepAnalysisRequest struct {
	Hours float64 `json:"hours"`
	Notes string  `json:"notes"`
	Date  string  `json:"date"`
}

type MedicationAnalysisRequest struct {
	Name string   `json:"name"`
	Dose *float64 `json:"dose"`
	Unit string   `json:"unit"`
	Date string   `json:"date"`
}

// dayActivities loads the activities on date (today when empty).
func dayActivities(c *gin.Context, app App, user *internal.User, date string) ([]internal.Activity, error) {
	if date == "" {
		date = service.Today(user, app.Now())
	}
	return service.ListDay(c.Request.Context(), app.ActivityRepo(), user, date)
}

func PostEstimateCalories(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body CalorieEstimateRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if len(body.Images) > maxAnalysisImages {
			HandleError(c, app.Logger(), fmt.Errorf("%w: at most %d images", internal.ErrValidation, maxAnalysisImages), 400, "Validation failed")
			return
		}
		var category internal.Category
		if body.Category != "" {
			cat, err := internal.ParseCategory(body.Category)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Validation failed")
				return
			}
			category = cat
		}

		est, err := app.Gateway().EstimateCalories(c.Request.Context(), &analysis.CalorieRequest{
			User:     currentUser(c),
			Images:   body.Images,
			Notes:    body.Notes,
			Category: category,
			Value:    body.Value,
			Unit:     body.Unit,
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 422, "Could not estimate calories")
			return
		}
		HandleSuccess(c, app.Logger(), est, nil)
	}
}

func PostAnalyzeBloodPressure(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body BloodPressureAnalysisRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		user := currentUser(c)
		today, err := dayActivities(c, app, user, body.Date)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
			return
		}

		res, err := app.Gateway().AnalyzeBloodPressure(c.Request.Context(), &analysis.BloodPressureRequest{
			User:      user,
			Systolic:  body.Systolic,
			Diastolic: body.Diastolic,
			Today:     today,
			Now:       app.Now(),
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 422, "Could not analyze reading")
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PostAnalyzeSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body SleepAnalysisRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		user := currentUser(c)
		today, err := dayActivities(c, app, user, body.Date)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
			return
		}

		res, err := app.Gateway().AnalyzeSleep(c.Request.Context(), &analysis.SleepRequest{
			User:  user,
			Hours: body.Hours,
			Notes: body.Notes,
			Today: today,
			Now:   app.Now(),
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 422, "Could not analyze sleep")
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PostAnalyzeMedication(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body MedicationAnalysisRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		user := currentUser(c)
		today, err := dayActivities(c, app, user, body.Date)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
			return
		}
		var meds []internal.Activity
		for _, a := range today {
			if a.Category == internal.CategoryMedication {
				meds = append(meds, a)
			}
		}

		res, err := app.Gateway().AnalyzeMedication(c.Request.Context(), &analysis.MedicationRequest{
			User:             user,
			Name:             body.Name,
			Dose:             body.Dose,
			Unit:             body.Unit,
			OtherMedications: meds,
			Now:              app.Now(),
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 422, "Could not analyze medication")
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

// GetDietTips takes ?date= and an optional ?question=.
func GetDietTips(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		now := app.Now()
		today, err := dayActivities(c, app, user, c.Query("date"))
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to fetch activities")
			return
		}
		lastFood, err := service.LastFoodAt(c.Request.Context(), app.ActivityRepo(), user)
		if err != nil {
			app.Logger().Warnf("[request_id=%s] last food lookup failed: %v", c.GetString("request_id"), err)
		}
		targets := service.CalculateTargets(user, now)

		tips, err := app.Gateway().DietTips(c.Request.Context(), &analysis.DietTipsRequest{
			User:          user,
			Today:         today,
			Targets:       targets,
			Totals:        service.SummarizeDay(today),
			WaterGoalCups: service.EffectiveWaterGoalCups(user, targets),
			LastFoodAt:    lastFood,
			Question:      c.Query("question"),
			Now:           now,
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 422, "Could not generate tips")
			return
		}
		HandleSuccess(c, app.Logger(), tips, nil)
	}
}
