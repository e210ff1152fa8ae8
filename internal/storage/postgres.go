package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richdownie/healthme/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("storage: failed to connect to postgres: %v", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("storage: postgres ping failed: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		token TEXT UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		weight DOUBLE PRECISION,
		height DOUBLE PRECISION,
		date_of_birth DATE,
		sex TEXT NOT NULL DEFAULT '',
		race_ethnicity TEXT NOT NULL DEFAULT '',
		activity_level TEXT NOT NULL DEFAULT '',
		goal TEXT NOT NULL DEFAULT '',
		health_concerns TEXT NOT NULL DEFAULT '',
		blood_pressure_systolic INTEGER,
		blood_pressure_diastolic INTEGER,
		timezone TEXT NOT NULL DEFAULT '',
		prayer_goal_minutes INTEGER,
		water_goal_cups DOUBLE PRECISION,
		fasting_start_hour INTEGER,
		llm_api_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		value DOUBLE PRECISION,
		unit TEXT NOT NULL DEFAULT '',
		diastolic DOUBLE PRECISION,
		notes TEXT NOT NULL DEFAULT '',
		performed_on DATE NOT NULL,
		calories INTEGER,
		protein_g DOUBLE PRECISION,
		carbs_g DOUBLE PRECISION,
		fat_g DOUBLE PRECISION,
		fiber_g DOUBLE PRECISION,
		sugar_g DOUBLE PRECISION,
		photos TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS activities_user_day_idx ON activities (user_id, performed_on, created_at)`,
}

// Migrate creates the schema if it does not exist.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			p.logger.Errorf("storage: postgres migration failed: %v", err)
			return err
		}
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- ActivityRepository ---

const activityColumns = `id, user_id, category, value, unit, diastolic, notes, to_char(performed_on, 'YYYY-MM-DD'),
	calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, photos, created_at, updated_at`

func (p *PostgresStorage) SaveActivity(ctx context.Context, a *internal.Activity) error {
	photos := a.Photos
	if photos == nil {
		photos = []string{}
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO activities (id, user_id, category, value, unit, diastolic, notes, performed_on,
			calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, photos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, to_date($8, 'YYYY-MM-DD'), $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category, value = EXCLUDED.value, unit = EXCLUDED.unit,
			diastolic = EXCLUDED.diastolic, notes = EXCLUDED.notes, performed_on = EXCLUDED.performed_on,
			calories = EXCLUDED.calories, protein_g = EXCLUDED.protein_g, carbs_g = EXCLUDED.carbs_g,
			fat_g = EXCLUDED.fat_g, fiber_g = EXCLUDED.fiber_g, sugar_g = EXCLUDED.sugar_g,
			photos = EXCLUDED.photos, updated_at = EXCLUDED.updated_at`,
		a.ID, a.UserID, string(a.Category), a.Value, a.Unit, a.Diastolic, a.Notes, a.PerformedOn,
		a.Calories, a.ProteinG, a.CarbsG, a.FatG, a.FiberG, a.SugarG, photos, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		p.logger.Errorf("storage: failed to upsert activity: %v", err)
		return err
	}
	return nil
}

func scanActivity(row pgx.Row) (*internal.Activity, error) {
	var a internal.Activity
	var category string
	err := row.Scan(&a.ID, &a.UserID, &category, &a.Value, &a.Unit, &a.Diastolic, &a.Notes, &a.PerformedOn,
		&a.Calories, &a.ProteinG, &a.CarbsG, &a.FatG, &a.FiberG, &a.SugarG, &a.Photos, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Category = internal.Category(category)
	return &a, nil
}

func (p *PostgresStorage) GetActivity(ctx context.Context, id string) (*internal.Activity, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("storage: failed to load activity: %v", err)
		return nil, err
	}
	return a, nil
}

func (p *PostgresStorage) DeleteActivity(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("storage: failed to delete activity: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

func (p *PostgresStorage) ListActivitiesByDate(ctx context.Context, userID, date string) ([]internal.Activity, error) {
	return p.ListActivitiesInRange(ctx, userID, date, date)
}

func (p *PostgresStorage) ListActivitiesInRange(ctx context.Context, userID, from, to string) ([]internal.Activity, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE user_id = $1 AND performed_on BETWEEN to_date($2, 'YYYY-MM-DD') AND to_date($3, 'YYYY-MM-DD')
		ORDER BY performed_on, created_at, id`, userID, from, to)
	if err != nil {
		p.logger.Errorf("storage: failed to query activities: %v", err)
		return nil, err
	}
	defer rows.Close()

	acts := []internal.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			p.logger.Errorf("storage: failed to scan activity: %v", err)
			return nil, err
		}
		acts = append(acts, *a)
	}
	return acts, rows.Err()
}

func (p *PostgresStorage) LatestActivity(ctx context.Context, userID string, categories []internal.Category) (*internal.Activity, error) {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	row := p.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE user_id = $1 AND category = ANY($2) ORDER BY created_at DESC LIMIT 1`, userID, names)
	a, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: latest activity: %w", internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("storage: failed to load latest activity: %v", err)
		return nil, err
	}
	return a, nil
}

// --- UserRepository ---

const userColumns = `id, COALESCE(token, ''), display_name, weight, height,
	COALESCE(to_char(date_of_birth, 'YYYY-MM-DD'), ''), sex, race_ethnicity, activity_level, goal,
	health_concerns, blood_pressure_systolic, blood_pressure_diastolic, timezone, prayer_goal_minutes,
	water_goal_cups, fasting_start_hour, llm_api_key, created_at, updated_at`

func (p *PostgresStorage) SaveUser(ctx context.Context, u *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, token, display_name, weight, height, date_of_birth, sex,
			race_ethnicity, activity_level, goal, health_concerns, blood_pressure_systolic, blood_pressure_diastolic,
			timezone, prayer_goal_minutes, water_goal_cups, fasting_start_hour, llm_api_key, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, to_date(NULLIF($6, ''), 'YYYY-MM-DD'), $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token, display_name = EXCLUDED.display_name, weight = EXCLUDED.weight,
			height = EXCLUDED.height, date_of_birth = EXCLUDED.date_of_birth, sex = EXCLUDED.sex,
			race_ethnicity = EXCLUDED.race_ethnicity, activity_level = EXCLUDED.activity_level,
			goal = EXCLUDED.goal, health_concerns = EXCLUDED.health_concerns,
			blood_pressure_systolic = EXCLUDED.blood_pressure_systolic,
			blood_pressure_diastolic = EXCLUDED.blood_pressure_diastolic, timezone = EXCLUDED.timezone,
			prayer_goal_minutes = EXCLUDED.prayer_goal_minutes, water_goal_cups = EXCLUDED.water_goal_cups,
			fasting_start_hour = EXCLUDED.fasting_start_hour, llm_api_key = EXCLUDED.llm_api_key,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Token, u.DisplayName, u.Weight, u.Height, u.DateOfBirth, u.Sex, u.RaceEthnicity,
		u.ActivityLevel, u.Goal, u.HealthConcerns, u.BloodPressureSystolic, u.BloodPressureDiastolic,
		u.Timezone, u.PrayerGoalMinutes, u.WaterGoalCups, u.FastingStartHour, u.LLMAPIKey, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		p.logger.Errorf("storage: failed to upsert user: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) scanUser(row pgx.Row, key string) (*internal.User, error) {
	var u internal.User
	err := row.Scan(&u.ID, &u.Token, &u.DisplayName, &u.Weight, &u.Height, &u.DateOfBirth, &u.Sex,
		&u.RaceEthnicity, &u.ActivityLevel, &u.Goal, &u.HealthConcerns, &u.BloodPressureSystolic,
		&u.BloodPressureDiastolic, &u.Timezone, &u.PrayerGoalMinutes, &u.WaterGoalCups, &u.FastingStartHour,
		&u.LLMAPIKey, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: user %s: %w", key, internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("storage: failed to scan user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), id)
}

func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE token = $1`, token), "token")
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
