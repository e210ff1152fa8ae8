package service

import (
	"context"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

type CategoryGroup struct {
	Category   internal.Category   `json:"category"`
	Label      string              `json:"label"`
	Activities []internal.Activity `json:"activities"`
}

type DayView struct {
	Date            string              `json:"date"`
	Activities      []internal.Activity `json:"activities"`
	Groups          []CategoryGroup     `json:"groups"`
	Totals          DailyTotals         `json:"totals"`
	Targets         *Targets            `json:"targets"`
	WaterGoalCups   float64             `json:"water_goal_cups"`
	PrayerMinutes   float64             `json:"prayer_minutes"`
	PrayerGoal      int                 `json:"prayer_goal_minutes"`
	Suggestions     []Suggestion        `json:"suggestions"`
	TimePeriod      TimePeriod          `json:"time_period"`
	LastFoodAt      *time.Time          `json:"last_food_at,omitempty"`
	HoursSinceFood  *float64            `json:"hours_since_food,omitempty"`
	InFastingWindow bool                `json:"in_fasting_window"`
}

// BuildDayView assembles everything shown for one date. Target and suggestion
// failures degrade to empty values instead of failing the view.
func BuildDayView(ctx context.Context, repo storage.ActivityRepository, dismissed DismissedSet, user *internal.User, date string, now time.Time) (*DayView, error) {
	if date == "" {
		date = Today(user, now)
	}
	acts, err := ListDay(ctx, repo, user, date)
	if err != nil {
		return nil, err
	}
	loc := user.Location()

	targets := CalculateTargets(user, now)
	v := &DayView{
		Date:            date,
		Activities:      acts,
		Groups:          GroupByCategory(acts),
		Totals:          SummarizeDay(acts),
		Targets:         targets,
		WaterGoalCups:   EffectiveWaterGoalCups(user, targets),
		PrayerMinutes:   internal.Round1(SumValues(acts, internal.CategoryPrayerMeditation)),
		PrayerGoal:      user.PrayerGoal(),
		Suggestions:     []Suggestion{},
		TimePeriod:      TimePeriodOf(now, loc),
		InFastingWindow: now.In(loc).Hour() >= user.FastingHour(),
	}

	if prev, err := internal.AddDays(date, -1); err == nil {
		if yesterday, err := repo.ListActivitiesByDate(ctx, user.ID, prev); err == nil {
			v.Suggestions = SuggestRepeats(RepeatInput{
				Yesterday: yesterday,
				Today:     acts,
				Dismissed: dismissed,
				Now:       now,
				Location:  loc,
			})
		}
	}

	if last, err := LastFoodAt(ctx, repo, user); err == nil && last != nil {
		v.LastFoodAt = last
		h := internal.Round1(now.Sub(*last).Hours())
		v.HoursSinceFood = &h
	}
	return v, nil
}

// GroupByCategory groups in display order, preserving activity order within a group.
func GroupByCategory(acts []internal.Activity) []CategoryGroup {
	byCat := make(map[internal.Category][]internal.Activity)
	for _, a := range acts {
		byCat[a.Category] = append(byCat[a.Category], a)
	}
	groups := []CategoryGroup{}
	for _, c := range internal.Categories {
		if list, ok := byCat[c]; ok {
			groups = append(groups, CategoryGroup{Category: c, Label: c.Label(), Activities: list})
		}
	}
	return groups
}
