package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one
)

const (
	DateLayout      = "2006-01-02"
	DefaultTimezone = "America/New_York"
)

type Activity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    Category  `json:"category"`
	Value       *float64  `json:"value,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Diastolic   *float64  `json:"diastolic,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	PerformedOn string    `json:"performed_on"` // YYYY-MM-DD in the user's zone
	Calories    *int      `json:"calories,omitempty"`
	ProteinG    *float64  `json:"protein_g,omitempty"`
	CarbsG      *float64  `json:"carbs_g,omitempty"`
	FatG        *float64  `json:"fat_g,omitempty"`
	FiberG      *float64  `json:"fiber_g,omitempty"`
	SugarG      *float64  `json:"sugar_g,omitempty"`
	Photos      []string  `json:"photos,omitempty"` // blob keys
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Nutrients struct {
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		ProteinG: n.ProteinG + o.ProteinG,
		CarbsG:   n.CarbsG + o.CarbsG,
		FatG:     n.FatG + o.FatG,
		FiberG:   n.FiberG + o.FiberG,
		SugarG:   n.SugarG + o.SugarG,
	}
}

func (n Nutrients) Round1() Nutrients {
	return Nutrients{
		ProteinG: Round1(n.ProteinG),
		CarbsG:   Round1(n.CarbsG),
		FatG:     Round1(n.FatG),
		FiberG:   Round1(n.FiberG),
		SugarG:   Round1(n.SugarG),
	}
}

func (a *Activity) IsIntake() bool { return a.Category.IsIntake() }
func (a *Activity) IsBurn() bool   { return a.Category.IsBurn() }

func (a *Activity) ValueOrZero() float64 { return floatOrZero(a.Value) }

func (a *Activity) CaloriesOrZero() int {
	if a.Calories == nil {
		return 0
	}
	return *a.Calories
}

func (a *Activity) Nutrients() Nutrients {
	return Nutrients{
		ProteinG: floatOrZero(a.ProteinG),
		CarbsG:   floatOrZero(a.CarbsG),
		FatG:     floatOrZero(a.FatG),
		FiberG:   floatOrZero(a.FiberG),
		SugarG:   floatOrZero(a.SugarG),
	}
}

// DiastolicValue reads the dedicated field, falling back to rows that stored the
// diastolic reading in Unit.
func (a *Activity) DiastolicValue() (float64, bool) {
	if a.Diastolic != nil {
		return *a.Diastolic, true
	}
	if a.Category != CategoryBloodPressure {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Unit), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (a *Activity) DisplayValue() string {
	if a.Value == nil {
		return ""
	}
	if a.Category == CategoryBloodPressure {
		if dia, ok := a.DiastolicValue(); ok {
			return fmt.Sprintf("%d / %s", int(*a.Value), FormatNumber(dia))
		}
	}
	return strings.TrimSpace(FormatNumber(*a.Value) + " " + a.Unit)
}

// TagLabel is the one-line chip text used for quick-add suggestions.
func (a *Activity) TagLabel() string {
	var b strings.Builder
	b.WriteString(a.Category.Label())
	if notes := strings.TrimSpace(a.Notes); notes != "" {
		b.Reset()
		b.WriteString(truncate(notes, 30))
	} else if dv := a.DisplayValue(); dv != "" {
		b.WriteString(" " + dv)
	}
	if c := a.CaloriesOrZero(); c > 0 {
		fmt.Fprintf(&b, " (%d cal)", c)
	}
	return b.String()
}

// Clone deep-copies pointer fields and photo keys.
func (a *Activity) Clone() *Activity {
	c := *a
	c.Value = cloneFloat(a.Value)
	c.Diastolic = cloneFloat(a.Diastolic)
	c.ProteinG = cloneFloat(a.ProteinG)
	c.CarbsG = cloneFloat(a.CarbsG)
	c.FatG = cloneFloat(a.FatG)
	c.FiberG = cloneFloat(a.FiberG)
	c.SugarG = cloneFloat(a.SugarG)
	if a.Calories != nil {
		v := *a.Calories
		c.Calories = &v
	}
	if a.Photos != nil {
		c.Photos = append([]string(nil), a.Photos...)
	}
	return &c
}

type User struct {
	ID                     string    `json:"id"`
	Token                  string    `json:"token,omitempty"`
	DisplayName            string    `json:"display_name,omitempty"`
	Weight                 *float64  `json:"weight,omitempty"` // lbs
	Height                 *float64  `json:"height,omitempty"` // inches
	DateOfBirth            string    `json:"date_of_birth,omitempty"`
	Sex                    string    `json:"sex,omitempty"`
	RaceEthnicity          string    `json:"race_ethnicity,omitempty"`
	ActivityLevel          string    `json:"activity_level,omitempty"`
	Goal                   string    `json:"goal,omitempty"`
	HealthConcerns         string    `json:"health_concerns,omitempty"`
	BloodPressureSystolic  *int      `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int      `json:"blood_pressure_diastolic,omitempty"`
	Timezone               string    `json:"timezone,omitempty"`
	PrayerGoalMinutes      *int      `json:"prayer_goal_minutes,omitempty"`
	WaterGoalCups          *float64  `json:"water_goal_cups,omitempty"`
	FastingStartHour       *int      `json:"fasting_start_hour,omitempty"`
	LLMAPIKey              string    `json:"llm_api_key,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ProfileComplete gates target computation: weight, height, date of birth and sex
// must be present and weight/height inside their open ranges.
func (u *User) ProfileComplete() bool {
	if u == nil || u.Weight == nil || u.Height == nil || u.DateOfBirth == "" || u.Sex == "" {
		return false
	}
	if *u.Weight <= 0 || *u.Weight >= 1000 || *u.Height <= 0 || *u.Height >= 120 {
		return false
	}
	_, err := time.Parse(DateLayout, u.DateOfBirth)
	return err == nil
}

func (u *User) Location() *time.Location {
	tz := u.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Age in whole years at now's calendar date in the user's zone.
func (u *User) Age(now time.Time) (int, bool) {
	if u.DateOfBirth == "" {
		return 0, false
	}
	dob, err := time.Parse(DateLayout, u.DateOfBirth)
	if err != nil {
		return 0, false
	}
	return AgeOn(dob, now.In(u.Location())), true
}

// AgeOn counts completed years; a Feb 29 birthday is reached on Feb 28 in common years.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	anniv := time.Date(now.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if anniv.Month() != dob.Month() {
		anniv = anniv.AddDate(0, 0, -anniv.Day())
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(anniv) {
		age--
	}
	return age
}

func (u *User) FastingHour() int {
	if u.FastingStartHour == nil {
		return 20
	}
	return *u.FastingStartHour
}

func (u *User) PrayerGoal() int {
	if u.PrayerGoalMinutes == nil {
		return 15
	}
	return *u.PrayerGoalMinutes
}

// Public strips credentials before a profile leaves the service.
func (u *User) Public() *User {
	c := *u
	c.Token = ""
	c.LLMAPIKey = ""
	return &c
}

// --- helpers ---

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", ErrValidation, s)
	}
	return t, nil
}

// DateIn is the calendar date of t in loc.
func DateIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

func Round1(v float64) float64 { return math.Round(v*10) / 10 }

func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
