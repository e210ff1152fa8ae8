package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/analysis"
	"github.com/richdownie/healthme/internal/auth"
	"github.com/richdownie/healthme/internal/session"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "MOCK-TOKEN"

// 10:00 AM in New York
var fixedNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type fakeGateway struct {
	fail   bool
	lastBP *analysis.BloodPressureRequest
	lastDT *analysis.DietTipsRequest
}

func (g *fakeGateway) EstimateCalories(_ context.Context, req *analysis.CalorieRequest) (*analysis.CalorieEstimate, error) {
	if g.fail {
		return nil, analysis.ErrNoResult
	}
	return &analysis.CalorieEstimate{Calories: 420, Description: req.Notes}, nil
}

func (g *fakeGateway) AnalyzeBloodPressure(_ context.Context, req *analysis.BloodPressureRequest) (*analysis.BPAnalysis, error) {
	g.lastBP = req
	if g.fail {
		return nil, errors.New("upstream exploded")
	}
	return &analysis.BPAnalysis{Analysis: "ok", Risk: analysis.RiskLow}, nil
}

func (g *fakeGateway) AnalyzeSleep(context.Context, *analysis.SleepRequest) (*analysis.SleepAnalysis, error) {
	if g.fail {
		return nil, analysis.ErrNoResult
	}
	return &analysis.SleepAnalysis{Analysis: "rested", Quality: analysis.QualityGood}, nil
}

func (g *fakeGateway) AnalyzeMedication(context.Context, *analysis.MedicationRequest) (*analysis.MedicationAnalysis, error) {
	if g.fail {
		return nil, analysis.ErrNoResult
	}
	return &analysis.MedicationAnalysis{Analysis: "typical", Risk: analysis.RiskLow}, nil
}

func (g *fakeGateway) DietTips(_ context.Context, req *analysis.DietTipsRequest) (*analysis.DietTips, error) {
	g.lastDT = req
	if g.fail {
		return nil, analysis.ErrNoResult
	}
	return &analysis.DietTips{Tips: "1. Eat greens.", Items: []string{"Eat greens."}}, nil
}

type testEnv struct {
	router  *gin.Engine
	store   *storage.FileStorage
	gateway *fakeGateway
}

func setupRouter(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	logger := internal.NewNopLogger()
	store, err := storage.NewFileStorage(filepath.Join(dir, "activities.json"), filepath.Join(dir, "users.json"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SaveUser(context.Background(), &internal.User{ID: "other", Token: "OTHER-TOKEN", Timezone: "UTC"}))

	sessions := session.NewStore(time.Hour, 0, logger)
	t.Cleanup(sessions.Close)

	gw := &fakeGateway{}
	app := NewApp(Deps{
		Logger:   logger,
		Store:    store,
		Gateway:  gw,
		Sessions: sessions,
		Clock:    func() time.Time { return fixedNow },
	})
	provider := auth.NewLocalAuthProvider(token, store, logger)
	return &testEnv{router: NewRouter(app, provider), store: store, gateway: gw}
}

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

type result struct {
	envelope
	Code   int
	Header http.Header
	Raw    string
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) result {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	res := result{Code: w.Code, Header: w.Header(), Raw: w.Body.String()}
	_ = json.Unmarshal(w.Body.Bytes(), &res.envelope)
	return res
}

func decode[T any](t *testing.T, r result) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v), r.Raw)
	return v
}

func (e *testEnv) create(t *testing.T, body string) internal.Activity {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/activities", body)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	return decode[internal.Activity](t, res)
}

func TestHealthAndAuth(t *testing.T) {
	env := setupRouter(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/day", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostActivity_ValidAndInvalid(t *testing.T) {
	env := setupRouter(t)

	a := env.create(t, `{"category":"food","notes":"oatmeal","calories":350}`)
	assert.Equal(t, "2024-03-10", a.PerformedOn)
	assert.Equal(t, "local", a.UserID)

	res := env.do(t, http.MethodPost, "/api/activities", `{"category":"banana","performed_on":"2024-03-10"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPost, "/api/activities", `{"category":"blood_pressure","value":120}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPost, "/api/activities", `{"category":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestActivityOwnership(t *testing.T) {
	env := setupRouter(t)
	a := env.create(t, `{"category":"water","value":1}`)

	res := env.do(t, http.MethodGet, "/api/activities/"+a.ID, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = env.do(t, http.MethodGet, "/api/activities/"+a.ID, "", "Authorization", "Bearer OTHER-TOKEN")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(t, http.MethodDelete, "/api/activities/"+a.ID, "", "Authorization", "Bearer OTHER-TOKEN")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(t, http.MethodDelete, "/api/activities/"+a.ID, "")
	assert.Equal(t, http.StatusOK, res.Code)
	res = env.do(t, http.MethodGet, "/api/activities/"+a.ID, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUpdateQuickUpdateAndDuplicate(t *testing.T) {
	env := setupRouter(t)
	a := env.create(t, `{"category":"water","value":1,"photos":["blob-1"]}`)
	assert.Equal(t, "cups", a.Unit)

	res := env.do(t, http.MethodPut, "/api/activities/"+a.ID, `{"category":"water","value":2,"notes":"big glass"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	updated := decode[internal.Activity](t, res)
	assert.Equal(t, 2.0, *updated.Value)
	assert.Equal(t, []string{"blob-1"}, updated.Photos)

	res = env.do(t, http.MethodPatch, "/api/activities/"+a.ID+"/quick_update", `{"add_value":0.5}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, 2.5, *decode[internal.Activity](t, res).Value)

	res = env.do(t, http.MethodPatch, "/api/activities/"+a.ID+"/quick_update", `{}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPost, "/api/activities/"+a.ID+"/duplicate", `{"date":"2024-03-11"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	dup := decode[internal.Activity](t, res)
	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, "2024-03-11", dup.PerformedOn)
	assert.Equal(t, []string{"blob-1"}, dup.Photos)

	res = env.do(t, http.MethodPost, "/api/activities/"+a.ID+"/duplicate", "")
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.Equal(t, "2024-03-10", decode[internal.Activity](t, res).PerformedOn)

	res = env.do(t, http.MethodPost, "/api/activities/"+a.ID+"/duplicate", `{"date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestListActivities(t *testing.T) {
	env := setupRouter(t)
	env.create(t, `{"category":"coffee","performed_on":"2024-03-09"}`)
	env.create(t, `{"category":"walk","value":2}`)

	res := env.do(t, http.MethodGet, "/api/activities", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode[[]internal.Activity](t, res), 1)

	res = env.do(t, http.MethodGet, "/api/activities?from=2024-03-09&to=2024-03-10", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode[[]internal.Activity](t, res), 2)

	res = env.do(t, http.MethodGet, "/api/activities?from=2024-03-10&to=2024-03-01", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

type dayView struct {
	Date        string `json:"date"`
	Suggestions []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"suggestions"`
	Totals struct {
		CaloriesIn int `json:"calories_in"`
	} `json:"totals"`
	TimePeriod string `json:"time_period"`
}

func TestDayViewSuggestionsAndDismiss(t *testing.T) {
	env := setupRouter(t)
	y := env.create(t, `{"category":"coffee","calories":5,"performed_on":"2024-03-09"}`)
	env.create(t, `{"category":"food","calories":400}`)

	res := env.do(t, http.MethodGet, "/api/day", "", session.HeaderName, "sess-1")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "sess-1", res.Header.Get(session.HeaderName))
	view := decode[dayView](t, res)
	assert.Equal(t, "2024-03-10", view.Date)
	assert.Equal(t, 400, view.Totals.CaloriesIn)
	assert.Equal(t, "morning", view.TimePeriod)
	require.Len(t, view.Suggestions, 1)
	assert.Equal(t, y.ID, view.Suggestions[0].ID)

	res = env.do(t, http.MethodPost, "/api/activities/"+y.ID+"/dismiss_repeat", "", session.HeaderName, "sess-1")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	view = decode[dayView](t, env.do(t, http.MethodGet, "/api/day", "", session.HeaderName, "sess-1"))
	assert.Empty(t, view.Suggestions)

	// other sessions still see it
	view = decode[dayView](t, env.do(t, http.MethodGet, "/api/day", "", session.HeaderName, "sess-2"))
	assert.Len(t, view.Suggestions, 1)

	res = env.do(t, http.MethodPost, "/api/activities/missing/dismiss_repeat", "", session.HeaderName, "sess-1")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestSessionCookieIsMinted(t *testing.T) {
	env := setupRouter(t)
	res := env.do(t, http.MethodGet, "/api/day", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header.Get(session.HeaderName))
	assert.Contains(t, res.Header.Get("Set-Cookie"), session.CookieName+"=")
}

func TestMetricsDefaultRange(t *testing.T) {
	env := setupRouter(t)
	env.create(t, `{"category":"sleep","value":7.5}`)

	res := env.do(t, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	type metrics struct {
		Dates      []string  `json:"dates"`
		SleepHours []float64 `json:"sleep_hours"`
	}
	series := decode[metrics](t, res)
	require.Len(t, series.Dates, 31)
	assert.Equal(t, "2024-03-10", series.Dates[30])
	assert.Equal(t, 7.5, series.SleepHours[30])

	res = env.do(t, http.MethodGet, "/api/metrics?from=2023-01-01&to=2024-03-10", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestProfileAndTargets(t *testing.T) {
	env := setupRouter(t)

	res := env.do(t, http.MethodGet, "/api/profile/targets", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = env.do(t, http.MethodPut, "/api/profile", `{"weight":1200}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPut, "/api/profile",
		`{"weight":180,"height":70,"date_of_birth":"1990-01-01","sex":"male","activity_level":"moderately_active","goal":"lose_weight","llm_api_key":"sk-user"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.NotContains(t, res.Raw, "sk-user")
	assert.Contains(t, res.Raw, `"has_personal_api_key":true`)

	res = env.do(t, http.MethodGet, "/api/profile/targets", "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	type targetsView struct {
		BMR           int `json:"bmr"`
		DailyCalories int `json:"daily_calories"`
	}
	targets := decode[targetsView](t, res)
	assert.Equal(t, 1763, targets.BMR)
	assert.Greater(t, targets.DailyCalories, 1200)
	assert.Equal(t, "5'10\"", res.Meta["height_label"])

	res = env.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Raw, `"profile_complete":true`)
}

func TestAnalysisEndpoints(t *testing.T) {
	env := setupRouter(t)
	env.create(t, `{"category":"coffee","notes":"espresso"}`)

	res := env.do(t, http.MethodPost, "/api/analysis/calories", `{"notes":"burrito","category":"food"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Contains(t, res.Raw, `"calories":420`)

	res = env.do(t, http.MethodPost, "/api/analysis/calories", `{"notes":"burrito","category":"pizza"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPost, "/api/analysis/blood_pressure", `{"systolic":130,"diastolic":85}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	require.NotNil(t, env.gateway.lastBP)
	assert.Len(t, env.gateway.lastBP.Today, 1)

	res = env.do(t, http.MethodPost, "/api/analysis/sleep", `{"hours":7}`)
	assert.Equal(t, http.StatusOK, res.Code)
	res = env.do(t, http.MethodPost, "/api/analysis/medication", `{"name":"Vitamin D","dose":1000,"unit":"IU"}`)
	assert.Equal(t, http.StatusOK, res.Code)

	res = env.do(t, http.MethodGet, "/api/analysis/diet_tips?question=snack", "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	require.NotNil(t, env.gateway.lastDT)
	assert.Equal(t, "snack", env.gateway.lastDT.Question)
	assert.NotNil(t, env.gateway.lastDT.LastFoodAt)
	assert.Equal(t, 8.0, env.gateway.lastDT.WaterGoalCups)
}

func TestAnalysisFailureIsIsolated(t *testing.T) {
	env := setupRouter(t)
	env.gateway.fail = true

	res := env.do(t, http.MethodPost, "/api/analysis/calories", `{"notes":"burrito"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	require.NotNil(t, res.Error)
	assert.Equal(t, "Could not estimate calories", res.Error.Message)

	res = env.do(t, http.MethodPost, "/api/analysis/blood_pressure", `{"systolic":130,"diastolic":85}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, "Could not analyze reading", res.Error.Message)

	res = env.do(t, http.MethodGet, "/api/analysis/diet_tips", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	// core operations keep working
	env.create(t, `{"category":"food","calories":250}`)
	res = env.do(t, http.MethodGet, "/api/day", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 250, decode[dayView](t, res).Totals.CaloriesIn)
}
