package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
	_ "modernc.org/sqlite"
)

// fixed-width UTC timestamps keep text ordering chronological
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Errorf("storage: open sqlite database: %v", err)
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		logger.Errorf("storage: ping sqlite database: %v", err)
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

type migration struct {
	version int
	name    string
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  token TEXT,
  display_name TEXT NOT NULL DEFAULT '',
  weight REAL,
  height REAL,
  date_of_birth TEXT NOT NULL DEFAULT '',
  sex TEXT NOT NULL DEFAULT '',
  activity_level TEXT NOT NULL DEFAULT '',
  goal TEXT NOT NULL DEFAULT '',
  health_concerns TEXT NOT NULL DEFAULT '',
  blood_pressure_systolic INTEGER,
  blood_pressure_diastolic INTEGER,
  timezone TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS users_token_idx ON users(token) WHERE token IS NOT NULL;

CREATE TABLE IF NOT EXISTS activities (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  category TEXT NOT NULL,
  value REAL,
  unit TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  performed_on TEXT NOT NULL,
  calories INTEGER,
  protein_g REAL,
  carbs_g REAL,
  fat_g REAL,
  fiber_g REAL,
  sugar_g REAL,
  photos_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS activities_user_day_idx ON activities(user_id, performed_on, created_at);
`,
	},
	{
		version: 2,
		name:    "activity_diastolic",
		sql:     `ALTER TABLE activities ADD COLUMN diastolic REAL;`,
	},
	{
		version: 3,
		name:    "user_goal_settings",
		sql: `
ALTER TABLE users ADD COLUMN race_ethnicity TEXT NOT NULL DEFAULT '';
ALTER TABLE users ADD COLUMN prayer_goal_minutes INTEGER;
ALTER TABLE users ADD COLUMN water_goal_cups REAL;
ALTER TABLE users ADD COLUMN fasting_start_hour INTEGER;
ALTER TABLE users ADD COLUMN llm_api_key TEXT NOT NULL DEFAULT '';
`,
	},
}

// Migrate applies pending versioned migrations, each in its own transaction.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range sqliteMigrations {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			s.logger.Errorf("storage: sqlite migration %d (%s) failed: %v", m.version, m.name, err)
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- ActivityRepository ---

const sqliteActivityColumns = `id, user_id, category, value, unit, diastolic, notes, performed_on,
  calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, photos_json, created_at, updated_at`

func (s *SQLiteStorage) SaveActivity(ctx context.Context, a *internal.Activity) error {
	photos := a.Photos
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO activities(`+sqliteActivityColumns+`)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  category = excluded.category, value = excluded.value, unit = excluded.unit,
  diastolic = excluded.diastolic, notes = excluded.notes, performed_on = excluded.performed_on,
  calories = excluded.calories, protein_g = excluded.protein_g, carbs_g = excluded.carbs_g,
  fat_g = excluded.fat_g, fiber_g = excluded.fiber_g, sugar_g = excluded.sugar_g,
  photos_json = excluded.photos_json, updated_at = excluded.updated_at`,
		a.ID, a.UserID, string(a.Category), a.Value, a.Unit, a.Diastolic, a.Notes, a.PerformedOn,
		a.Calories, a.ProteinG, a.CarbsG, a.FatG, a.FiberG, a.SugarG, string(photosJSON),
		formatSQLiteTime(a.CreatedAt), formatSQLiteTime(a.UpdatedAt))
	if err != nil {
		s.logger.Errorf("storage: failed to upsert activity: %v", err)
		return fmt.Errorf("upsert activity: %w", err)
	}
	return nil
}

func scanSQLiteActivity(row rowScanner) (*internal.Activity, error) {
	var (
		a                    internal.Activity
		category, photosJSON string
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.UserID, &category, &a.Value, &a.Unit, &a.Diastolic, &a.Notes, &a.PerformedOn,
		&a.Calories, &a.ProteinG, &a.CarbsG, &a.FatG, &a.FiberG, &a.SugarG, &photosJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.Category = internal.Category(category)
	if err := json.Unmarshal([]byte(photosJSON), &a.Photos); err != nil {
		return nil, fmt.Errorf("decode photos for activity %s: %w", a.ID, err)
	}
	if len(a.Photos) == 0 {
		a.Photos = nil
	}
	if a.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for activity %s: %w", a.ID, err)
	}
	if a.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for activity %s: %w", a.ID, err)
	}
	return &a, nil
}

func (s *SQLiteStorage) GetActivity(ctx context.Context, id string) (*internal.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteActivityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanSQLiteActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	if err != nil {
		s.logger.Errorf("storage: failed to load activity: %v", err)
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStorage) DeleteActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		s.logger.Errorf("storage: failed to delete activity: %v", err)
		return fmt.Errorf("delete activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete activity rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) ListActivitiesByDate(ctx context.Context, userID, date string) ([]internal.Activity, error) {
	return s.ListActivitiesInRange(ctx, userID, date, date)
}

func (s *SQLiteStorage) ListActivitiesInRange(ctx context.Context, userID, from, to string) ([]internal.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteActivityColumns+` FROM activities
WHERE user_id = ? AND performed_on >= ? AND performed_on <= ?
ORDER BY performed_on, created_at, id`, userID, from, to)
	if err != nil {
		s.logger.Errorf("storage: failed to query activities: %v", err)
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	acts := []internal.Activity{}
	for rows.Next() {
		a, err := scanSQLiteActivity(rows)
		if err != nil {
			s.logger.Errorf("storage: failed to scan activity: %v", err)
			return nil, err
		}
		acts = append(acts, *a)
	}
	return acts, rows.Err()
}

func (s *SQLiteStorage) LatestActivity(ctx context.Context, userID string, categories []internal.Category) (*internal.Activity, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("storage: latest activity: %w", internal.ErrNotFound)
	}
	args := []any{userID}
	for _, c := range categories {
		args = append(args, string(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(categories)), ", ")
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteActivityColumns+` FROM activities
WHERE user_id = ? AND category IN (`+placeholders+`) ORDER BY created_at DESC LIMIT 1`, args...)
	a, err := scanSQLiteActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: latest activity: %w", internal.ErrNotFound)
	}
	if err != nil {
		s.logger.Errorf("storage: failed to load latest activity: %v", err)
		return nil, err
	}
	return a, nil
}

// --- UserRepository ---

const sqliteUserColumns = `id, COALESCE(token, ''), display_name, weight, height, date_of_birth, sex,
  race_ethnicity, activity_level, goal, health_concerns, blood_pressure_systolic, blood_pressure_diastolic,
  timezone, prayer_goal_minutes, water_goal_cups, fasting_start_hour, llm_api_key, created_at, updated_at`

func (s *SQLiteStorage) SaveUser(ctx context.Context, u *internal.User) error {
	var token any
	if u.Token != "" {
		token = u.Token
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users(id, token, display_name, weight, height, date_of_birth, sex,
  race_ethnicity, activity_level, goal, health_concerns, blood_pressure_systolic, blood_pressure_diastolic,
  timezone, prayer_goal_minutes, water_goal_cups, fasting_start_hour, llm_api_key, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  token = excluded.token, display_name = excluded.display_name, weight = excluded.weight,
  height = excluded.height, date_of_birth = excluded.date_of_birth, sex = excluded.sex,
  race_ethnicity = excluded.race_ethnicity, activity_level = excluded.activity_level, goal = excluded.goal,
  health_concerns = excluded.health_concerns, blood_pressure_systolic = excluded.blood_pressure_systolic,
  blood_pressure_diastolic = excluded.blood_pressure_diastolic, timezone = excluded.timezone,
  prayer_goal_minutes = excluded.prayer_goal_minutes, water_goal_cups = excluded.water_goal_cups,
  fasting_start_hour = excluded.fasting_start_hour, llm_api_key = excluded.llm_api_key,
  updated_at = excluded.updated_at`,
		u.ID, token, u.DisplayName, u.Weight, u.Height, u.DateOfBirth, u.Sex, u.RaceEthnicity,
		u.ActivityLevel, u.Goal, u.HealthConcerns, u.BloodPressureSystolic, u.BloodPressureDiastolic,
		u.Timezone, u.PrayerGoalMinutes, u.WaterGoalCups, u.FastingStartHour, u.LLMAPIKey,
		formatSQLiteTime(u.CreatedAt), formatSQLiteTime(u.UpdatedAt))
	if err != nil {
		s.logger.Errorf("storage: failed to upsert user: %v", err)
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) scanUser(row rowScanner, key string) (*internal.User, error) {
	var (
		u                    internal.User
		createdAt, updatedAt string
	)
	err := row.Scan(&u.ID, &u.Token, &u.DisplayName, &u.Weight, &u.Height, &u.DateOfBirth, &u.Sex,
		&u.RaceEthnicity, &u.ActivityLevel, &u.Goal, &u.HealthConcerns, &u.BloodPressureSystolic,
		&u.BloodPressureDiastolic, &u.Timezone, &u.PrayerGoalMinutes, &u.WaterGoalCups, &u.FastingStartHour,
		&u.LLMAPIKey, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: user %s: %w", key, internal.ErrNotFound)
	}
	if err != nil {
		s.logger.Errorf("storage: failed to scan user: %v", err)
		return nil, err
	}
	if u.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for user %s: %w", u.ID, err)
	}
	if u.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for user %s: %w", u.ID, err)
	}
	return &u, nil
}

func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id), id)
}

func (s *SQLiteStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE token = ?`, token), "token")
}

// --- Compile-time assertions ---
var _ Store = (*SQLiteStorage)(nil)
