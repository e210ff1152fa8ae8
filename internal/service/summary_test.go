package service

import (
	"testing"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestSummarizeDay(t *testing.T) {
	acts := []internal.Activity{
		{Category: internal.CategoryFood, Calories: iptr(500), ProteinG: fptr(20.04), CarbsG: fptr(60), FatG: fptr(10)},
		{Category: internal.CategoryCoffee, Calories: iptr(50), ProteinG: fptr(1.03), SugarG: fptr(4)},
		{Category: internal.CategoryWater, Value: fptr(2), Unit: "cups"},
		{Category: internal.CategoryWater, Value: fptr(1.5), Unit: "cups"},
		{Category: internal.CategoryRun, Calories: iptr(700), Value: fptr(5)},
		{Category: internal.CategorySleep, Calories: iptr(999), Value: fptr(8)},
		{Category: internal.CategoryMedication, ProteinG: fptr(100)},
	}
	got := SummarizeDay(acts)
	assert.Equal(t, 550, got.CaloriesIn)
	assert.Equal(t, 700, got.CaloriesBurned)
	assert.Equal(t, -150, got.CaloriesNet)
	assert.Equal(t, internal.Nutrients{ProteinG: 21.1, CarbsG: 60, FatG: 10, SugarG: 4}, got.Macros)
	assert.Equal(t, 3.5, got.WaterCups)
	assert.Equal(t, 7, got.Count)
}

func TestSummarizeDayNilCaloriesDoNotChangeSum(t *testing.T) {
	acts := []internal.Activity{{Category: internal.CategoryFood, Calories: iptr(300)}}
	before := SummarizeDay(acts)
	acts = append(acts, internal.Activity{Category: internal.CategoryFood})
	after := SummarizeDay(acts)
	assert.Equal(t, before.CaloriesIn, after.CaloriesIn)
	assert.Equal(t, before.CaloriesNet, after.CaloriesNet)
}

func TestSummarizeDayEmpty(t *testing.T) {
	assert.Equal(t, DailyTotals{}, SummarizeDay(nil))
}

func TestBuildSeries(t *testing.T) {
	loc := time.UTC
	at := func(d string, h int) time.Time {
		day, _ := internal.ParseDate(d)
		return day.Add(time.Duration(h) * time.Hour)
	}
	acts := []internal.Activity{
		{PerformedOn: "2024-03-01", Category: internal.CategoryFood, Calories: iptr(400), ProteinG: fptr(30)},
		{PerformedOn: "2024-03-01", Category: internal.CategoryWalk, Value: fptr(30), Calories: iptr(150)},
		{PerformedOn: "2024-03-01", Category: internal.CategoryMedication, Value: fptr(500)},
		{PerformedOn: "2024-03-01", Category: internal.CategoryMedication, Value: fptr(20)},
		{PerformedOn: "2024-03-03", Category: internal.CategoryBloodPressure, Value: fptr(130), Diastolic: fptr(85), CreatedAt: at("2024-03-03", 18)},
		{PerformedOn: "2024-03-03", Category: internal.CategoryBloodPressure, Value: fptr(120), Unit: "80", CreatedAt: at("2024-03-03", 7)},
		{PerformedOn: "2024-03-03", Category: internal.CategorySleep, Value: fptr(7.25)},
		{PerformedOn: "2024-03-03", Category: internal.CategoryPrayerMeditation, Value: fptr(15)},
	}
	s, err := BuildSeries(acts, "2024-03-01", "2024-03-03", loc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, s.Dates)
	assert.Equal(t, []float64{400, 0, 0}, s.CaloriesIn)
	assert.Equal(t, []float64{150, 0, 0}, s.CaloriesBurned)
	assert.Equal(t, []float64{30, 0, 0}, s.Protein)
	assert.Equal(t, []float64{30, 0, 0}, s.ExerciseMinutes.Walk)
	assert.Equal(t, []float64{0, 0, 0}, s.ExerciseMinutes.Run)
	assert.Equal(t, []int{2, 0, 0}, s.MedicationCount)
	assert.Equal(t, []float64{0, 0, 7.3}, s.SleepHours)
	assert.Equal(t, []float64{0, 0, 15}, s.PrayerMinutes)
	require.Len(t, s.BloodPressure, 2)
	assert.Equal(t, BPPoint{Date: "2024-03-03", Systolic: 120, Diastolic: 80, Time: "7:00 AM"}, s.BloodPressure[0])
	assert.Equal(t, BPPoint{Date: "2024-03-03", Systolic: 130, Diastolic: 85, Time: "6:00 PM"}, s.BloodPressure[1])
}

func TestBuildSeriesRejectsBadRanges(t *testing.T) {
	_, err := BuildSeries(nil, "2024-03-05", "2024-03-01", time.UTC)
	assert.ErrorIs(t, err, internal.ErrValidation)

	_, err = BuildSeries(nil, "2023-01-01", "2024-03-01", time.UTC)
	assert.ErrorIs(t, err, internal.ErrValidation)

	_, err = BuildSeries(nil, "yesterday", "2024-03-01", time.UTC)
	assert.ErrorIs(t, err, internal.ErrValidation)

	s, err := BuildSeries(nil, "2024-03-01", "2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.Len(t, s.Dates, 1)
	assert.Empty(t, s.BloodPressure)
}
