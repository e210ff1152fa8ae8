package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/richdownie/healthme/internal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return internal.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(activityRequestStructLevel, ActivityRequest{})
	v.RegisterStructValidation(profileRequestStructLevel, ProfileRequest{})
	return v
}

// ActivityRequest is the writable part of an activity.
type ActivityRequest struct {
	Category    internal.Category `json:"category" validate:"required,category"`
	Value       *float64          `json:"value,omitempty" validate:"omitempty,gte=0"`
	Unit        string            `json:"unit,omitempty" validate:"max=50"`
	Diastolic   *float64          `json:"diastolic,omitempty"`
	Notes       string            `json:"notes,omitempty" validate:"max=2000"`
	PerformedOn string            `json:"performed_on" validate:"required,datetime=2006-01-02"`
	Calories    *int              `json:"calories,omitempty" validate:"omitempty,gte=0"`
	ProteinG    *float64          `json:"protein_g,omitempty" validate:"omitempty,gte=0"`
	CarbsG      *float64          `json:"carbs_g,omitempty" validate:"omitempty,gte=0"`
	FatG        *float64          `json:"fat_g,omitempty" validate:"omitempty,gte=0"`
	FiberG      *float64          `json:"fiber_g,omitempty" validate:"omitempty,gte=0"`
	SugarG      *float64          `json:"sugar_g,omitempty" validate:"omitempty,gte=0"`
	Photos      []string          `json:"photos,omitempty" validate:"dive,required"`
}

// diastolic prefers the dedicated field and falls back to a numeric unit.
func (r *ActivityRequest) diastolic() *float64 {
	if r.Diastolic != nil {
		return r.Diastolic
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Unit), 64)
	if err != nil {
		return nil
	}
	return &v
}

func activityRequestStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(ActivityRequest)
	if r.Category != internal.CategoryBloodPressure {
		return
	}
	if r.Value == nil || *r.Value < 60 || *r.Value > 250 {
		sl.ReportError(r.Value, "Value", "value", "systolic", "60-250")
	}
	if d := r.diastolic(); d == nil || *d < 30 || *d > 150 {
		sl.ReportError(r.Diastolic, "Diastolic", "diastolic", "diastolic", "30-150")
	}
}

func ValidateActivityRequest(body *ActivityRequest) error {
	body.Category = internal.Category(strings.TrimSpace(strings.ToLower(string(body.Category))))
	body.PerformedOn = strings.TrimSpace(body.PerformedOn)
	return validationError(validate.Struct(body))
}

// ProfileRequest carries a full profile replacement; nil pointers clear the field.
type ProfileRequest struct {
	DisplayName            string   `json:"display_name,omitempty" validate:"max=100"`
	Weight                 *float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lt=1000"`
	Height                 *float64 `json:"height,omitempty" validate:"omitempty,gt=0,lt=120"`
	DateOfBirth            string   `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sex                    string   `json:"sex,omitempty" validate:"omitempty,oneof=male female other"`
	RaceEthnicity          string   `json:"race_ethnicity,omitempty" validate:"max=100"`
	ActivityLevel          string   `json:"activity_level,omitempty" validate:"omitempty,oneof=sedentary lightly_active moderately_active very_active extra_active"`
	Goal                   string   `json:"goal,omitempty" validate:"omitempty,oneof=lose_weight maintain gain_muscle"`
	HealthConcerns         string   `json:"health_concerns,omitempty" validate:"max=2000"`
	BloodPressureSystolic  *int     `json:"blood_pressure_systolic,omitempty" validate:"omitempty,gte=60,lte=250"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic,omitempty" validate:"omitempty,gte=30,lte=150"`
	Timezone               string   `json:"timezone,omitempty" validate:"omitempty,timezone"`
	PrayerGoalMinutes      *int     `json:"prayer_goal_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	WaterGoalCups          *float64 `json:"water_goal_cups,omitempty" validate:"omitempty,gt=0,lte=50"`
	FastingStartHour       *int     `json:"fasting_start_hour,omitempty" validate:"omitempty,gte=0,lte=23"`
	LLMAPIKey              *string  `json:"llm_api_key,omitempty"`
}

func profileRequestStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(ProfileRequest)
	if (r.BloodPressureSystolic == nil) != (r.BloodPressureDiastolic == nil) {
		sl.ReportError(r.BloodPressureDiastolic, "BloodPressureDiastolic", "blood_pressure_diastolic", "bp_pair", "")
	}
}

func ValidateProfile(body *ProfileRequest) error {
	return validationError(validate.Struct(body))
}

// validationError flattens validator output into an ErrValidation-wrapped error.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", internal.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", internal.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "category":
		return fmt.Sprintf("%s %q is not a known category", field, fe.Value())
	case "datetime":
		return field + " must be a YYYY-MM-DD date"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "systolic", "diastolic":
		return fmt.Sprintf("blood pressure %s must be within %s", fe.Tag(), fe.Param())
	case "bp_pair":
		return "baseline blood pressure needs both systolic and diastolic"
	case "timezone":
		return field + " is not a known time zone"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
