package internal

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryFood             Category = "food"
	CategoryCoffee           Category = "coffee"
	CategoryWalk             Category = "walk"
	CategoryRun              Category = "run"
	CategoryWeights          Category = "weights"
	CategoryYoga             Category = "yoga"
	CategorySleep            Category = "sleep"
	CategoryWater            Category = "water"
	CategoryPrayerMeditation Category = "prayer_meditation"
	CategoryBloodPressure    Category = "blood_pressure"
	CategoryMedication       Category = "medication"
	CategoryOther            Category = "other"
)

// Categories lists every loggable category in display order.
var Categories = []Category{
	CategoryFood, CategoryCoffee, CategoryWalk, CategoryRun, CategoryWeights, CategoryYoga,
	CategorySleep, CategoryWater, CategoryPrayerMeditation, CategoryBloodPressure,
	CategoryMedication, CategoryOther,
}

// CategoryKind partitions categories by their effect on the calorie balance.
type CategoryKind int

const (
	KindInfo CategoryKind = iota
	KindIntake
	KindBurn
)

func (k CategoryKind) String() string {
	switch k {
	case KindIntake:
		return "intake"
	case KindBurn:
		return "burn"
	default:
		return "info"
	}
}

// UnitMode says whether the unit field is free text or fixed by the category.
type UnitMode int

const (
	UnitFree UnitMode = iota
	UnitFixed
)

func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(strings.ToLower(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryCoffee, CategoryWalk, CategoryRun, CategoryWeights, CategoryYoga,
		CategorySleep, CategoryWater, CategoryPrayerMeditation, CategoryBloodPressure,
		CategoryMedication, CategoryOther:
		return true
	}
	return false
}

func (c Category) Kind() CategoryKind {
	switch c {
	case CategoryFood, CategoryCoffee, CategoryWater:
		return KindIntake
	case CategoryWalk, CategoryRun, CategoryWeights, CategoryYoga:
		return KindBurn
	case CategorySleep, CategoryPrayerMeditation, CategoryBloodPressure, CategoryMedication, CategoryOther:
		return KindInfo
	}
	return KindInfo
}

func (c Category) IsIntake() bool { return c.Kind() == KindIntake }
func (c Category) IsBurn() bool   { return c.Kind() == KindBurn }

func (c Category) Label() string {
	switch c {
	case CategoryWeights:
		return "Weight Training"
	case CategoryPrayerMeditation:
		return "Prayer / Meditation"
	case CategoryBloodPressure:
		return "Blood Pressure"
	case CategoryMedication:
		return "Medication / Supplement"
	case CategoryFood, CategoryCoffee, CategoryWalk, CategoryRun, CategoryYoga,
		CategorySleep, CategoryWater, CategoryOther:
		s := string(c)
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return "Other"
}

// DefaultUnit is the unit pre-filled for a category; empty means free-form.
func (c Category) DefaultUnit() string {
	switch c {
	case CategoryWater:
		return "cups"
	case CategoryWalk, CategoryRun:
		return "miles"
	case CategoryWeights, CategoryYoga, CategoryPrayerMeditation:
		return "minutes"
	case CategorySleep:
		return "hours"
	case CategoryMedication:
		return "mg"
	case CategoryBloodPressure, CategoryFood, CategoryCoffee, CategoryOther:
		return ""
	}
	return ""
}

func (c Category) UnitMode() UnitMode {
	switch c {
	case CategoryWater, CategorySleep, CategoryPrayerMeditation, CategoryBloodPressure:
		return UnitFixed
	case CategoryFood, CategoryCoffee, CategoryWalk, CategoryRun, CategoryWeights, CategoryYoga,
		CategoryMedication, CategoryOther:
		return UnitFree
	}
	return UnitFree
}

// IntakeCategories and BurnCategories are derived from Kind so the two sets stay disjoint.
func IntakeCategories() []Category { return categoriesOfKind(KindIntake) }
func BurnCategories() []Category   { return categoriesOfKind(KindBurn) }

func categoriesOfKind(k CategoryKind) []Category {
	out := make([]Category, 0, 4)
	for _, c := range Categories {
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}
