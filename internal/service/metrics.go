package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/richdownie/healthme/internal"
)

const (
	MaxSeriesDays     = 366
	DefaultSeriesDays = 30
)

type ExerciseSeries struct {
	Walk    []float64 `json:"walk"`
	Run     []float64 `json:"run"`
	Weights []float64 `json:"weights"`
	Yoga    []float64 `json:"yoga"`
}

type BPPoint struct {
	Date      string  `json:"date"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
	Time      string  `json:"time"`
}

// MetricSeries holds one entry per date for every per-day series.
type MetricSeries struct {
	Dates           []string       `json:"dates"`
	CaloriesIn      []float64      `json:"calories_in"`
	CaloriesBurned  []float64      `json:"calories_burned"`
	Protein         []float64      `json:"protein"`
	Carbs           []float64      `json:"carbs"`
	Fat             []float64      `json:"fat"`
	WaterCups       []float64      `json:"water_cups"`
	ExerciseMinutes ExerciseSeries `json:"exercise_minutes"`
	BloodPressure   []BPPoint      `json:"blood_pressure"`
	SleepHours      []float64      `json:"sleep_hours"`
	PrayerMinutes   []float64      `json:"prayer_minutes"`
	MedicationCount []int          `json:"medication_count"`
}

// DateRange expands [from, to] into calendar dates.
func DateRange(from, to string) ([]string, error) {
	start, err := internal.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := internal.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", internal.ErrValidation, from, to)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxSeriesDays {
		return nil, fmt.Errorf("%w: range of %d days exceeds %d", internal.ErrValidation, days, MaxSeriesDays)
	}
	dates := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(internal.DateLayout))
	}
	return dates, nil
}

// DefaultSeriesRange runs from 30 days ago through today in loc, both inclusive.
func DefaultSeriesRange(now time.Time, loc *time.Location) (string, string) {
	today := now.In(loc)
	return today.AddDate(0, 0, -DefaultSeriesDays).Format(internal.DateLayout), today.Format(internal.DateLayout)
}

type nutrientField func(n internal.Nutrients) float64

// BuildSeries charts activities over [from, to]. Activities outside the range are ignored.
func BuildSeries(activities []internal.Activity, from, to string, loc *time.Location) (*MetricSeries, error) {
	dates, err := DateRange(from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string][]internal.Activity, len(dates))
	for _, a := range activities {
		byDay[a.PerformedOn] = append(byDay[a.PerformedOn], a)
	}

	n := len(dates)
	s := &MetricSeries{
		Dates:          dates,
		CaloriesIn:     make([]float64, n),
		CaloriesBurned: make([]float64, n),
		Protein:        make([]float64, n),
		Carbs:          make([]float64, n),
		Fat:            make([]float64, n),
		WaterCups:      make([]float64, n),
		ExerciseMinutes: ExerciseSeries{
			Walk:    make([]float64, n),
			Run:     make([]float64, n),
			Weights: make([]float64, n),
			Yoga:    make([]float64, n),
		},
		BloodPressure:   []BPPoint{},
		SleepHours:      make([]float64, n),
		PrayerMinutes:   make([]float64, n),
		MedicationCount: make([]int, n),
	}

	for i, d := range dates {
		day := byDay[d]
		if len(day) == 0 {
			continue
		}
		s.CaloriesIn[i] = sumCalories(day, internal.KindIntake)
		s.CaloriesBurned[i] = sumCalories(day, internal.KindBurn)
		s.Protein[i] = sumIntake(day, func(n internal.Nutrients) float64 { return n.ProteinG })
		s.Carbs[i] = sumIntake(day, func(n internal.Nutrients) float64 { return n.CarbsG })
		s.Fat[i] = sumIntake(day, func(n internal.Nutrients) float64 { return n.FatG })
		s.WaterCups[i] = internal.Round1(SumValues(day, internal.CategoryWater))
		s.ExerciseMinutes.Walk[i] = internal.Round1(SumValues(day, internal.CategoryWalk))
		s.ExerciseMinutes.Run[i] = internal.Round1(SumValues(day, internal.CategoryRun))
		s.ExerciseMinutes.Weights[i] = internal.Round1(SumValues(day, internal.CategoryWeights))
		s.ExerciseMinutes.Yoga[i] = internal.Round1(SumValues(day, internal.CategoryYoga))
		s.SleepHours[i] = internal.Round1(SumValues(day, internal.CategorySleep))
		s.PrayerMinutes[i] = internal.Round1(SumValues(day, internal.CategoryPrayerMeditation))
		s.MedicationCount[i] = countCategory(day, internal.CategoryMedication)
		s.BloodPressure = append(s.BloodPressure, bpPoints(day, loc)...)
	}
	return s, nil
}

func sumCalories(day []internal.Activity, kind internal.CategoryKind) float64 {
	total := 0
	for i := range day {
		if day[i].Category.Kind() == kind {
			total += day[i].CaloriesOrZero()
		}
	}
	return float64(total)
}

func sumIntake(day []internal.Activity, field nutrientField) float64 {
	total := 0.0
	for i := range day {
		if day[i].IsIntake() {
			total += field(day[i].Nutrients())
		}
	}
	return internal.Round1(total)
}

func countCategory(day []internal.Activity, c internal.Category) int {
	n := 0
	for i := range day {
		if day[i].Category == c {
			n++
		}
	}
	return n
}

// bpPoints keeps every reading of the day ordered by logging time.
func bpPoints(day []internal.Activity, loc *time.Location) []BPPoint {
	var readings []internal.Activity
	for _, a := range day {
		if a.Category == internal.CategoryBloodPressure {
			readings = append(readings, a)
		}
	}
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].CreatedAt.Before(readings[j].CreatedAt) })
	points := make([]BPPoint, 0, len(readings))
	for i := range readings {
		dia, _ := readings[i].DiastolicValue()
		points = append(points, BPPoint{
			Date:      readings[i].PerformedOn,
			Systolic:  readings[i].ValueOrZero(),
			Diastolic: dia,
			Time:      readings[i].CreatedAt.In(loc).Format("3:04 PM"),
		})
	}
	return points
}
