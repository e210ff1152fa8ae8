package service

import "github.com/richdownie/healthme/internal"

type DailyTotals struct {
	CaloriesIn     int                `json:"calories_in"`
	CaloriesBurned int                `json:"calories_burned"`
	CaloriesNet    int                `json:"calories_net"`
	Macros         internal.Nutrients `json:"macros"`
	WaterCups      float64            `json:"water_cups"`
	Count          int                `json:"count"`
}

// SummarizeDay totals one day's activities. Macros count intake activities only.
func SummarizeDay(activities []internal.Activity) DailyTotals {
	var t DailyTotals
	var macros internal.Nutrients
	for i := range activities {
		a := &activities[i]
		switch a.Category.Kind() {
		case internal.KindIntake:
			t.CaloriesIn += a.CaloriesOrZero()
			macros = macros.Add(a.Nutrients())
		case internal.KindBurn:
			t.CaloriesBurned += a.CaloriesOrZero()
		case internal.KindInfo:
		}
		if a.Category == internal.CategoryWater {
			t.WaterCups += a.ValueOrZero()
		}
	}
	t.CaloriesNet = t.CaloriesIn - t.CaloriesBurned
	t.Macros = macros.Round1()
	t.WaterCups = internal.Round1(t.WaterCups)
	t.Count = len(activities)
	return t
}

// SumValues adds the values of activities in category c.
func SumValues(activities []internal.Activity, c internal.Category) float64 {
	total := 0.0
	for i := range activities {
		if activities[i].Category == c {
			total += activities[i].ValueOrZero()
		}
	}
	return total
}
