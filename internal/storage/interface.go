package storage

import (
	"context"

	"github.com/richdownie/healthme/internal"
)

// ActivityRepository returns internal.ErrNotFound (wrapped) for unknown ids.
// Date arguments are YYYY-MM-DD calendar dates and range bounds are inclusive.
// Lists are ordered by (performed_on, created_at, id) ascending.
type ActivityRepository interface {
	SaveActivity(ctx context.Context, a *internal.Activity) error
	GetActivity(ctx context.Context, id string) (*internal.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	ListActivitiesByDate(ctx context.Context, userID, date string) ([]internal.Activity, error)
	ListActivitiesInRange(ctx context.Context, userID, from, to string) ([]internal.Activity, error)
	// LatestActivity is the most recently created activity in any of categories.
	LatestActivity(ctx context.Context, userID string, categories []internal.Category) (*internal.Activity, error)
}

type UserRepository interface {
	SaveUser(ctx context.Context, u *internal.User) error
	GetUser(ctx context.Context, id string) (*internal.User, error)
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
}

// Store is a backend serving both repositories.
type Store interface {
	ActivityRepository
	UserRepository
	Close() error
}
