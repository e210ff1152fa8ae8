package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
)

const (
	lbsToKg         = 0.453592
	inchesToMeters  = 0.0254
	inchesToCm      = 2.54
	minDailyCalorie = 1200.0
	defaultWaterCup = 8.0
)

var activityMultipliers = map[string]float64{
	"sedentary":         1.2,
	"lightly_active":    1.375,
	"moderately_active": 1.55,
	"very_active":       1.725,
	"extra_active":      1.9,
}

var goalAdjustments = map[string]float64{
	"lose_weight": -500,
	"maintain":    0,
	"gain_muscle": 300,
}

type Targets struct {
	BMI           float64 `json:"bmi"`
	BMICategory   string  `json:"bmi_category"`
	BMR           int     `json:"bmr"`
	TDEE          int     `json:"tdee"`
	DailyBurn     int     `json:"daily_burn"`
	RestingBurn   int     `json:"resting_burn"`
	ActivityBurn  int     `json:"activity_burn"`
	DailyCalories int     `json:"daily_calories"`
	WaterOz       int     `json:"water_oz"`
	WaterCups     float64 `json:"water_cups"`
	ProteinG      int     `json:"protein_g"`
	CarbsG        int     `json:"carbs_g"`
	FatG          int     `json:"fat_g"`
	GoalLabel     string  `json:"goal_label"`
}

type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// CalculateTargets returns nil until the profile is complete. Intermediate values
// stay unrounded; rounding happens only on the returned fields.
func CalculateTargets(user *internal.User, now time.Time) *Targets {
	if !user.ProfileComplete() {
		return nil
	}
	age, _ := user.Age(now)
	weight, height := *user.Weight, *user.Height

	bmi := BMI(weight, height)
	bmr := BMR(weight, height, age, user.Sex)
	tdee := TDEE(bmr, user.ActivityLevel)
	calories := DailyCalories(tdee, user.Goal)
	macros := MacroSplit(calories, user.Goal)
	water := WaterOunces(weight, user.ActivityLevel)

	return &Targets{
		BMI:           internal.Round1(bmi),
		BMICategory:   BMICategory(bmi),
		BMR:           roundInt(bmr),
		TDEE:          roundInt(tdee),
		DailyBurn:     roundInt(tdee),
		RestingBurn:   roundInt(bmr),
		ActivityBurn:  roundInt(tdee - bmr),
		DailyCalories: roundInt(calories),
		WaterOz:       roundInt(water),
		WaterCups:     internal.Round1(water / 8),
		ProteinG:      macros.ProteinG,
		CarbsG:        macros.CarbsG,
		FatG:          macros.FatG,
		GoalLabel:     GoalLabel(user.Goal),
	}
}

// BMI from pounds and inches.
func BMI(weightLbs, heightIn float64) float64 {
	m := heightIn * inchesToMeters
	return weightLbs * lbsToKg / (m * m)
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// BMR is the Mifflin-St Jeor resting rate.
func BMR(weightLbs, heightIn float64, age int, sex string) float64 {
	base := 10*weightLbs*lbsToKg + 6.25*heightIn*inchesToCm - 5*float64(age)
	switch sex {
	case "male":
		return base + 5
	case "female":
		return base - 161
	default:
		return base - 78
	}
}

func ActivityMultiplier(level string) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers["moderately_active"]
}

func TDEE(bmr float64, activityLevel string) float64 {
	return bmr * ActivityMultiplier(activityLevel)
}

// DailyCalories applies the goal adjustment with an absolute 1200 kcal floor.
func DailyCalories(tdee float64, goal string) float64 {
	return math.Max(tdee+goalAdjustments[goal], minDailyCalorie)
}

func MacroSplit(calories float64, goal string) Macros {
	protein, carbs, fat := 0.30, 0.40, 0.30
	switch goal {
	case "lose_weight":
		protein, carbs, fat = 0.40, 0.30, 0.30
	case "gain_muscle":
		protein, carbs, fat = 0.35, 0.40, 0.25
	}
	return Macros{
		ProteinG: roundInt(calories * protein / 4),
		CarbsG:   roundInt(calories * carbs / 4),
		FatG:     roundInt(calories * fat / 9),
	}
}

// WaterOunces is half the body weight in fluid ounces, plus 20% for very active levels.
func WaterOunces(weightLbs float64, activityLevel string) float64 {
	base := weightLbs * 0.5
	switch activityLevel {
	case "very_active", "extra_active":
		return base * 1.2
	}
	return base
}

// Age is the number of completed years at now.
func Age(dob, now time.Time) int {
	return internal.AgeOn(dob, now)
}

func GoalLabel(goal string) string {
	if goal == "" {
		return "Maintain"
	}
	s := strings.ReplaceAll(goal, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// EffectiveWaterGoalCups prefers the user's explicit goal, then the computed target.
func EffectiveWaterGoalCups(user *internal.User, targets *Targets) float64 {
	if user != nil && user.WaterGoalCups != nil && *user.WaterGoalCups > 0 {
		return *user.WaterGoalCups
	}
	if targets != nil {
		return targets.WaterCups
	}
	return defaultWaterCup
}

// FormatHeight renders inches as feet and inches, e.g. 5'10".
func FormatHeight(inches float64) string {
	total := roundInt(inches)
	return strconv.Itoa(total/12) + "'" + strconv.Itoa(total%12) + `"`
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
