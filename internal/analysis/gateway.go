package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
)

// ErrNoResult is returned whenever an analysis could not be produced: missing
// input, no API key, transport failure or an unusable reply.
var ErrNoResult = errors.New("analysis: no result")

// Gateway produces advisory analyses. Results never feed back into stored data
// unless a caller chooses to persist them.
type Gateway interface {
	EstimateCalories(ctx context.Context, req *CalorieRequest) (*CalorieEstimate, error)
	AnalyzeBloodPressure(ctx context.Context, req *BloodPressureRequest) (*BPAnalysis, error)
	AnalyzeSleep(ctx context.Context, req *SleepRequest) (*SleepAnalysis, error)
	AnalyzeMedication(ctx context.Context, req *MedicationRequest) (*MedicationAnalysis, error)
	DietTips(ctx context.Context, req *DietTipsRequest) (*DietTips, error)
}

// --- Enums ---

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ParseRisk falls back to def for empty or unknown values.
func ParseRisk(s string, def Risk) Risk {
	switch r := Risk(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r
	default:
		return def
	}
}

type Quality string

const (
	QualityGood Quality = "good"
	QualityFair Quality = "fair"
	QualityPoor Quality = "poor"
)

func ParseQuality(s string) Quality {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityGood, QualityFair, QualityPoor:
		return q
	default:
		return QualityFair
	}
}

// --- Requests ---

// Image is a base64 encoded photo.
type Image struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}

type CalorieRequest struct {
	User     *internal.User
	Images   []Image
	Notes    string
	Category internal.Category
	Value    *float64
	Unit     string
}

type BloodPressureRequest struct {
	User      *internal.User
	Systolic  int
	Diastolic int
	Today     []internal.Activity
	Now       time.Time
}

type SleepRequest struct {
	User  *internal.User
	Hours float64
	Notes string
	Today []internal.Activity
	Now   time.Time
}

// MedicationRequest carries the other medication activities already logged today.
type MedicationRequest struct {
	User             *internal.User
	Name             string
	Dose             *float64
	Unit             string
	OtherMedications []internal.Activity
	Now              time.Time
}

// DietTipsRequest takes the core's targets and totals as computed; Question is
// optional.
type DietTipsRequest struct {
	User          *internal.User
	Today         []internal.Activity
	Targets       *service.Targets
	Totals        service.DailyTotals
	WaterGoalCups float64
	LastFoodAt    *time.Time
	Question      string
	Now           time.Time
}

// --- Results ---

type CalorieEstimate struct {
	Calories    int      `json:"calories"`
	Description string   `json:"description"`
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
	FiberG      *float64 `json:"fiber_g,omitempty"`
	SugarG      *float64 `json:"sugar_g,omitempty"`
}

type BPAnalysis struct {
	Analysis       string `json:"analysis"`
	Risk           Risk   `json:"risk"`
	Classification string `json:"classification,omitempty"`
}

type SleepAnalysis struct {
	Analysis         string   `json:"analysis"`
	Quality          Quality  `json:"quality"`
	RecommendedHours *float64 `json:"recommended_hours,omitempty"`
}

type MedicationAnalysis struct {
	Analysis string `json:"analysis"`
	Risk     Risk   `json:"risk"`
	Category string `json:"category,omitempty"`
}

type DietTips struct {
	Tips  string   `json:"tips"`
	Items []string `json:"items"`
}

// --- Disabled ---

// Disabled is used when analysis is switched off; every call yields ErrNoResult.
type Disabled struct{}

func (Disabled) EstimateCalories(context.Context, *CalorieRequest) (*CalorieEstimate, error) {
	return nil, ErrNoResult
}

func (Disabled) AnalyzeBloodPressure(context.Context, *BloodPressureRequest) (*BPAnalysis, error) {
	return nil, ErrNoResult
}

func (Disabled) AnalyzeSleep(context.Context, *SleepRequest) (*SleepAnalysis, error) {
	return nil, ErrNoResult
}

func (Disabled) AnalyzeMedication(context.Context, *MedicationRequest) (*MedicationAnalysis, error) {
	return nil, ErrNoResult
}

func (Disabled) DietTips(context.Context, *DietTipsRequest) (*DietTips, error) {
	return nil, ErrNoResult
}

var (
	_ Gateway = Disabled{}
	_ Gateway = (*AnthropicClient)(nil)
)
