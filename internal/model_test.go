package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestCategoryClassificationIsExclusive(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
		assert.False(t, c.IsIntake() && c.IsBurn(), "%s is both intake and burn", c)
		assert.NotEmpty(t, c.Label())
	}
	assert.Equal(t, []Category{CategoryFood, CategoryCoffee, CategoryWater}, IntakeCategories())
	assert.Equal(t, []Category{CategoryWalk, CategoryRun, CategoryWeights, CategoryYoga}, BurnCategories())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Blood_Pressure ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryBloodPressure, c)

	_, err = ParseCategory("snack")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategoryLabelsAndUnits(t *testing.T) {
	assert.Equal(t, "Weight Training", CategoryWeights.Label())
	assert.Equal(t, "Prayer / Meditation", CategoryPrayerMeditation.Label())
	assert.Equal(t, "Food", CategoryFood.Label())
	assert.Equal(t, "cups", CategoryWater.DefaultUnit())
	assert.Equal(t, "miles", CategoryRun.DefaultUnit())
	assert.Equal(t, "", CategoryFood.DefaultUnit())
	assert.Equal(t, UnitFixed, CategorySleep.UnitMode())
	assert.Equal(t, UnitFree, CategoryWalk.UnitMode())
}

func TestActivityDisplayValue(t *testing.T) {
	tests := []struct {
		name string
		a    Activity
		want string
	}{
		{"nil value", Activity{Category: CategoryFood}, ""},
		{"value with unit", Activity{Category: CategoryWalk, Value: fptr(2.50), Unit: "miles"}, "2.5 miles"},
		{"value without unit", Activity{Category: CategoryOther, Value: fptr(3)}, "3"},
		{"bp dedicated field", Activity{Category: CategoryBloodPressure, Value: fptr(120), Diastolic: fptr(80)}, "120 / 80"},
		{"bp legacy unit", Activity{Category: CategoryBloodPressure, Value: fptr(135.6), Unit: "85"}, "135 / 85"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.DisplayValue())
		})
	}
}

func TestActivityZeroAccessors(t *testing.T) {
	a := Activity{Category: CategoryFood}
	assert.Equal(t, 0.0, a.ValueOrZero())
	assert.Equal(t, 0, a.CaloriesOrZero())
	assert.Equal(t, Nutrients{}, a.Nutrients())

	a.ProteinG = fptr(10)
	a.SugarG = fptr(2.5)
	assert.Equal(t, Nutrients{ProteinG: 10, SugarG: 2.5}, a.Nutrients())
}

func TestActivityTagLabel(t *testing.T) {
	a := Activity{Category: CategoryWater, Value: fptr(2), Unit: "cups"}
	assert.Equal(t, "Water 2 cups", a.TagLabel())

	a = Activity{Category: CategoryFood, Notes: "Oatmeal with blueberries and walnuts", Calories: iptr(350)}
	assert.Equal(t, "Oatmeal with blueberries an... (350 cal)", a.TagLabel())
}

func TestActivityCloneIsDeep(t *testing.T) {
	a := &Activity{ID: "a", Value: fptr(1), Calories: iptr(5), Photos: []string{"p1"}}
	c := a.Clone()
	*c.Value = 2
	*c.Calories = 6
	c.Photos[0] = "p2"
	assert.Equal(t, 1.0, *a.Value)
	assert.Equal(t, 5, *a.Calories)
	assert.Equal(t, "p1", a.Photos[0])
}

func TestUserProfileComplete(t *testing.T) {
	u := &User{Weight: fptr(165), Height: fptr(70), DateOfBirth: "1990-01-01", Sex: "female"}
	assert.True(t, u.ProfileComplete())

	missingSex := *u
	missingSex.Sex = ""
	assert.False(t, missingSex.ProfileComplete())

	zeroHeight := *u
	zeroHeight.Height = fptr(0)
	assert.False(t, zeroHeight.ProfileComplete())

	var nilUser *User
	assert.False(t, nilUser.ProfileComplete())
}

func TestAgeOn(t *testing.T) {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 33, AgeOn(dob, time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 34, AgeOn(dob, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))

	leap := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 22, AgeOn(leap, time.Date(2023, 2, 27, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, AgeOn(leap, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, AgeOn(leap, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
}

func TestUserAgeUsesLocalDate(t *testing.T) {
	u := &User{DateOfBirth: "1990-06-15", Timezone: "America/New_York"}
	// 02:00 UTC on the 15th is still the 14th in New York
	age, ok := u.Age(time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 33, age)
}

func TestUserDefaults(t *testing.T) {
	u := &User{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, u.Location())
	assert.Equal(t, 20, u.FastingHour())
	assert.Equal(t, 15, u.PrayerGoal())
	assert.Equal(t, DefaultTimezone, (&User{}).Location().String())
}

func TestDateHelpers(t *testing.T) {
	d, err := AddDays("2024-03-01", -1)
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29", d)

	_, err = ParseDate("03/01/2024")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 2.3, Round1(2.25))
	assert.Equal(t, "2.5", FormatNumber(2.50))
}
