package service

import (
	"context"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

type TodaySnapshot struct {
	Date           string  `json:"date"`
	CaloriesIn     int     `json:"calories_in"`
	CaloriesBurned int     `json:"calories_burned"`
	WaterCups      float64 `json:"water_cups"`
	ProteinG       float64 `json:"protein_g"`
	CarbsG         float64 `json:"carbs_g"`
	FatG           float64 `json:"fat_g"`
}

type ProfileView struct {
	User           *internal.User `json:"user"`
	Complete       bool           `json:"profile_complete"`
	Age            *int           `json:"age,omitempty"`
	HeightLabel    string         `json:"height_label,omitempty"`
	Targets        *Targets       `json:"targets"`
	WaterGoalCups  float64        `json:"water_goal_cups"`
	HasPersonalKey bool           `json:"has_personal_api_key"`
	Today          TodaySnapshot  `json:"today"`
}

// UpdateProfile replaces the editable profile fields. A nil LLMAPIKey keeps the
// stored key; an empty one clears it.
func UpdateProfile(ctx context.Context, repo storage.UserRepository, user *internal.User, body *ProfileRequest, now time.Time) (*internal.User, error) {
	if err := ValidateProfile(body); err != nil {
		return nil, err
	}
	u := *user
	u.DisplayName = strings.TrimSpace(body.DisplayName)
	u.Weight = body.Weight
	u.Height = body.Height
	u.DateOfBirth = body.DateOfBirth
	u.Sex = body.Sex
	u.RaceEthnicity = strings.TrimSpace(body.RaceEthnicity)
	u.ActivityLevel = body.ActivityLevel
	u.Goal = body.Goal
	u.HealthConcerns = strings.TrimSpace(body.HealthConcerns)
	u.BloodPressureSystolic = body.BloodPressureSystolic
	u.BloodPressureDiastolic = body.BloodPressureDiastolic
	u.Timezone = body.Timezone
	u.PrayerGoalMinutes = body.PrayerGoalMinutes
	u.WaterGoalCups = body.WaterGoalCups
	u.FastingStartHour = body.FastingStartHour
	if body.LLMAPIKey != nil {
		u.LLMAPIKey = strings.TrimSpace(*body.LLMAPIKey)
	}
	u.UpdatedAt = now
	if err := repo.SaveUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func BuildProfileView(ctx context.Context, repo storage.ActivityRepository, user *internal.User, now time.Time) (*ProfileView, error) {
	targets := CalculateTargets(user, now)
	v := &ProfileView{
		User:           user.Public(),
		Complete:       user.ProfileComplete(),
		Targets:        targets,
		WaterGoalCups:  EffectiveWaterGoalCups(user, targets),
		HasPersonalKey: user.LLMAPIKey != "",
	}
	if age, ok := user.Age(now); ok {
		v.Age = &age
	}
	if user.Height != nil {
		v.HeightLabel = FormatHeight(*user.Height)
	}

	date := Today(user, now)
	acts, err := repo.ListActivitiesByDate(ctx, user.ID, date)
	if err != nil {
		return nil, err
	}
	totals := SummarizeDay(acts)
	v.Today = TodaySnapshot{
		Date:           date,
		CaloriesIn:     totals.CaloriesIn,
		CaloriesBurned: totals.CaloriesBurned,
		WaterCups:      totals.WaterCups,
		ProteinG:       totals.Macros.ProteinG,
		CarbsG:         totals.Macros.CarbsG,
		FatG:           totals.Macros.FatG,
	}
	return v, nil
}
