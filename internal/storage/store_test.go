package storage

import (
	"context"
	"testing"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// testStoreContract runs the repository behaviour every backend must share.
func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	acts := []*internal.Activity{
		{ID: "a2", UserID: "u1", Category: internal.CategoryFood, Notes: "eggs", PerformedOn: "2024-03-10",
			Calories: iptr(300), ProteinG: fptr(18.5), Photos: []string{"blob-1"}, CreatedAt: base.Add(time.Hour), UpdatedAt: base},
		{ID: "a1", UserID: "u1", Category: internal.CategoryWalk, Value: fptr(2.5), Unit: "miles", PerformedOn: "2024-03-10",
			Calories: iptr(220), CreatedAt: base, UpdatedAt: base},
		{ID: "a3", UserID: "u1", Category: internal.CategoryBloodPressure, Value: fptr(120), Unit: "80", Diastolic: fptr(80),
			PerformedOn: "2024-03-11", CreatedAt: base.Add(24 * time.Hour), UpdatedAt: base},
		{ID: "b1", UserID: "u2", Category: internal.CategoryWater, Value: fptr(2), Unit: "cups", PerformedOn: "2024-03-10",
			CreatedAt: base, UpdatedAt: base},
	}
	for _, a := range acts {
		require.NoError(t, store.SaveActivity(ctx, a))
	}

	day, err := store.ListActivitiesByDate(ctx, "u1", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "a1", day[0].ID)
	assert.Equal(t, "a2", day[1].ID)
	assert.Equal(t, []string{"blob-1"}, day[1].Photos)
	assert.Nil(t, day[1].Value)
	assert.Equal(t, 300, day[1].CaloriesOrZero())
	assert.InDelta(t, 18.5, *day[1].ProteinG, 0.001)

	rng, err := store.ListActivitiesInRange(ctx, "u1", "2024-03-09", "2024-03-11")
	require.NoError(t, err)
	require.Len(t, rng, 3)
	assert.Equal(t, "a3", rng[2].ID)
	dia, ok := rng[2].DiastolicValue()
	assert.True(t, ok)
	assert.Equal(t, 80.0, dia)

	empty, err := store.ListActivitiesByDate(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)

	latest, err := store.LatestActivity(ctx, "u1", []internal.Category{internal.CategoryFood, internal.CategoryCoffee})
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.ID)
	_, err = store.LatestActivity(ctx, "u2", []internal.Category{internal.CategoryFood})
	assert.ErrorIs(t, err, internal.ErrNotFound)

	got, err := store.GetActivity(ctx, "a1")
	require.NoError(t, err)
	got.Value = fptr(3.5)
	got.PerformedOn = "2024-03-11"
	require.NoError(t, store.SaveActivity(ctx, got))
	day, err = store.ListActivitiesByDate(ctx, "u1", "2024-03-10")
	require.NoError(t, err)
	assert.Len(t, day, 1)
	moved, err := store.GetActivity(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 3.5, moved.ValueOrZero())
	assert.Equal(t, "2024-03-11", moved.PerformedOn)

	require.NoError(t, store.DeleteActivity(ctx, "a2"))
	_, err = store.GetActivity(ctx, "a2")
	assert.ErrorIs(t, err, internal.ErrNotFound)
	assert.ErrorIs(t, store.DeleteActivity(ctx, "a2"), internal.ErrNotFound)

	u := &internal.User{ID: "u1", Token: "tok-1", DisplayName: "Ann", Weight: fptr(165), Height: fptr(70),
		DateOfBirth: "1989-06-01", Sex: "female", FastingStartHour: iptr(19), CreatedAt: base, UpdatedAt: base}
	require.NoError(t, store.SaveUser(ctx, u))
	byID, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.DisplayName)
	assert.Equal(t, "1989-06-01", byID.DateOfBirth)
	assert.Equal(t, 19, byID.FastingHour())
	assert.Nil(t, byID.WaterGoalCups)
	byToken, err := store.GetUserByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byToken.ID)
	_, err = store.GetUserByToken(ctx, "nope")
	assert.ErrorIs(t, err, internal.ErrNotFound)
	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}
