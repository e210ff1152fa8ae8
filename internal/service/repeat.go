package service

import (
	"sort"
	"time"

	"github.com/richdownie/healthme/internal"
)

type TimePeriod string

const (
	PeriodMorning   TimePeriod = "morning"
	PeriodAfternoon TimePeriod = "afternoon"
	PeriodEvening   TimePeriod = "evening"
)

// TimePeriodOf buckets t by local hour: [0,12) morning, [12,17) afternoon, else evening.
func TimePeriodOf(t time.Time, loc *time.Location) TimePeriod {
	h := t.In(loc).Hour()
	switch {
	case h < 12:
		return PeriodMorning
	case h < 17:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// Signature identifies "the same logged thing" across days.
type Signature struct {
	Category internal.Category
	Value    float64
	Unit     string
	Calories int
	Notes    string
}

func SignatureOf(a *internal.Activity) Signature {
	return Signature{
		Category: a.Category,
		Value:    a.ValueOrZero(),
		Unit:     a.Unit,
		Calories: a.CaloriesOrZero(),
		Notes:    a.Notes,
	}
}

// DismissedSet is the session's set of activity ids hidden from suggestions.
type DismissedSet struct {
	ids map[string]struct{}
}

func NewDismissedSet(ids ...string) DismissedSet {
	s := DismissedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Add is idempotent.
func (s *DismissedSet) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s DismissedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s DismissedSet) Len() int { return len(s.ids) }

func (s DismissedSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s DismissedSet) Clone() DismissedSet {
	return NewDismissedSet(s.IDs()...)
}

type RepeatInput struct {
	Yesterday []internal.Activity
	Today     []internal.Activity
	Dismissed DismissedSet
	Now       time.Time
	Location  *time.Location
}

type Suggestion struct {
	internal.Activity
	Label string `json:"label"`
}

// SuggestRepeats returns yesterday's activities not yet repeated today, logged in the
// same time period as now and not dismissed, in (category, created_at) order.
func SuggestRepeats(in RepeatInput) []Suggestion {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	yesterday := make([]internal.Activity, len(in.Yesterday))
	copy(yesterday, in.Yesterday)
	sort.SliceStable(yesterday, func(i, j int) bool {
		if yesterday[i].Category != yesterday[j].Category {
			return yesterday[i].Category < yesterday[j].Category
		}
		return yesterday[i].CreatedAt.Before(yesterday[j].CreatedAt)
	})

	used := make(map[Signature]int, len(in.Today))
	for i := range in.Today {
		used[SignatureOf(&in.Today[i])]++
	}

	period := TimePeriodOf(in.Now, loc)
	out := []Suggestion{}
	for i := range yesterday {
		a := &yesterday[i]
		sig := SignatureOf(a)
		if used[sig] > 0 {
			used[sig]--
			continue
		}
		if TimePeriodOf(a.CreatedAt, loc) != period {
			continue
		}
		if in.Dismissed.Has(a.ID) {
			continue
		}
		out = append(out, Suggestion{Activity: *a, Label: a.TagLabel()})
	}
	return out
}
