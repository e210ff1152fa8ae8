package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

// DismissalStore keeps per-session dismissed repeat suggestions.
type DismissalStore interface {
	Dismiss(sessionID, activityID string)
	Dismissed(sessionID string) DismissedSet
}

// Today is the calendar date of now in the user's zone.
func Today(user *internal.User, now time.Time) string {
	return internal.DateIn(now, user.Location())
}

func applyActivityRequest(a *internal.Activity, body *ActivityRequest) {
	a.Category = body.Category
	a.Value = body.Value
	a.Unit = strings.TrimSpace(body.Unit)
	a.Diastolic = nil
	a.Notes = strings.TrimSpace(body.Notes)
	a.PerformedOn = body.PerformedOn
	a.Calories = body.Calories
	a.ProteinG = body.ProteinG
	a.CarbsG = body.CarbsG
	a.FatG = body.FatG
	a.FiberG = body.FiberG
	a.SugarG = body.SugarG
	if body.Photos != nil {
		a.Photos = append([]string(nil), body.Photos...)
	}

	if a.Category == internal.CategoryBloodPressure {
		// written to both places so older readers of unit keep working
		if d := body.diastolic(); d != nil {
			v := *d
			a.Diastolic = &v
			a.Unit = internal.FormatNumber(v)
		}
		return
	}
	if a.Unit == "" {
		a.Unit = a.Category.DefaultUnit()
	}
}

// CreateActivity stamps performed_on with today in the user's zone when omitted.
func CreateActivity(ctx context.Context, repo storage.ActivityRepository, user *internal.User, body *ActivityRequest, now time.Time) (*internal.Activity, error) {
	if strings.TrimSpace(body.PerformedOn) == "" {
		body.PerformedOn = Today(user, now)
	}
	if err := ValidateActivityRequest(body); err != nil {
		return nil, err
	}
	a := &internal.Activity{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyActivityRequest(a, body)
	if err := repo.SaveActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivity hides other users' activities behind ErrNotFound.
func GetActivity(ctx context.Context, repo storage.ActivityRepository, user *internal.User, id string) (*internal.Activity, error) {
	a, err := repo.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != user.ID {
		return nil, fmt.Errorf("activity %s: %w", id, internal.ErrNotFound)
	}
	return a, nil
}

func UpdateActivity(ctx context.Context, repo storage.ActivityRepository, user *internal.User, id string, body *ActivityRequest, now time.Time) (*internal.Activity, error) {
	a, err := GetActivity(ctx, repo, user, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.PerformedOn) == "" {
		body.PerformedOn = a.PerformedOn
	}
	if err := ValidateActivityRequest(body); err != nil {
		return nil, err
	}
	applyActivityRequest(a, body)
	a.UpdatedAt = now
	if err := repo.SaveActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func DeleteActivity(ctx context.Context, repo storage.ActivityRepository, user *internal.User, id string) error {
	if _, err := GetActivity(ctx, repo, user, id); err != nil {
		return err
	}
	return repo.DeleteActivity(ctx, id)
}

// QuickIncrement adds delta to the activity's value, treating a missing value as 0.
func QuickIncrement(ctx context.Context, repo storage.ActivityRepository, user *internal.User, id string, delta float64, now time.Time) (*internal.Activity, error) {
	if !finite(delta) {
		return nil, fmt.Errorf("%w: add_value must be a finite number", internal.ErrValidation)
	}
	a, err := GetActivity(ctx, repo, user, id)
	if err != nil {
		return nil, err
	}
	v := a.ValueOrZero() + delta
	a.Value = &v
	a.UpdatedAt = now
	if err := repo.SaveActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Duplicate copies an activity onto targetDate (today when empty). Photo blob keys
// are shared with the source, not re-uploaded.
func Duplicate(ctx context.Context, repo storage.ActivityRepository, user *internal.User, id, targetDate string, now time.Time) (*internal.Activity, error) {
	src, err := GetActivity(ctx, repo, user, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(targetDate) == "" {
		targetDate = Today(user, now)
	}
	if _, err := internal.ParseDate(targetDate); err != nil {
		return nil, err
	}
	dup := src.Clone()
	dup.ID = uuid.NewString()
	dup.PerformedOn = strings.TrimSpace(targetDate)
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if err := repo.SaveActivity(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// ListDay returns the day's activities newest first.
func ListDay(ctx context.Context, repo storage.ActivityRepository, user *internal.User, date string) ([]internal.Activity, error) {
	if _, err := internal.ParseDate(date); err != nil {
		return nil, err
	}
	acts, err := repo.ListActivitiesByDate(ctx, user.ID, date)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(acts)-1; i < j; i, j = i+1, j-1 {
		acts[i], acts[j] = acts[j], acts[i]
	}
	return acts, nil
}

func ListRange(ctx context.Context, repo storage.ActivityRepository, user *internal.User, from, to string) ([]internal.Activity, error) {
	if _, err := DateRange(from, to); err != nil {
		return nil, err
	}
	return repo.ListActivitiesInRange(ctx, user.ID, from, to)
}

// Metrics charts [from, to], defaulting to the last 30 days.
func Metrics(ctx context.Context, repo storage.ActivityRepository, user *internal.User, from, to string, now time.Time) (*MetricSeries, error) {
	defFrom, defTo := DefaultSeriesRange(now, user.Location())
	if from == "" {
		from = defFrom
	}
	if to == "" {
		to = defTo
	}
	acts, err := ListRange(ctx, repo, user, from, to)
	if err != nil {
		return nil, err
	}
	return BuildSeries(acts, from, to, user.Location())
}

// Dismiss hides an owned activity from this session's suggestions.
func Dismiss(ctx context.Context, repo storage.ActivityRepository, store DismissalStore, user *internal.User, sessionID, id string) error {
	if _, err := GetActivity(ctx, repo, user, id); err != nil {
		return err
	}
	store.Dismiss(sessionID, id)
	return nil
}

var foodCategories = []internal.Category{internal.CategoryFood, internal.CategoryCoffee}

// LastFoodAt is when food or coffee was last logged, or nil.
func LastFoodAt(ctx context.Context, repo storage.ActivityRepository, user *internal.User) (*time.Time, error) {
	a, err := repo.LatestActivity(ctx, user.ID, foodCategories)
	if errors.Is(err, internal.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := a.CreatedAt
	return &t, nil
}
