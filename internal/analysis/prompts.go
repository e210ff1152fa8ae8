package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
)

const clockLayout = "3:04 PM"

const jsonOnly = "\nDo not include any other text. Just the JSON."

func localClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(clockLayout)
}

func describe(a *internal.Activity) string {
	if a.Notes != "" {
		return a.Notes
	}
	return a.DisplayValue()
}

func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// profileLines lists the optional profile facts shared by the analyzers.
func profileLines(u *internal.User, now time.Time, withHeight bool) []string {
	var lines []string
	if age, ok := u.Age(now); ok {
		lines = append(lines, fmt.Sprintf("Age: %d", age))
	}
	if u.Sex != "" {
		lines = append(lines, "Sex: "+u.Sex)
	}
	if u.Weight != nil {
		lines = append(lines, fmt.Sprintf("Weight: %s lbs", internal.FormatNumber(*u.Weight)))
	}
	if withHeight && u.Height != nil {
		lines = append(lines, fmt.Sprintf("Height: %s inches", internal.FormatNumber(*u.Height)))
	}
	if u.ActivityLevel != "" {
		lines = append(lines, "Activity level: "+humanize(u.ActivityLevel))
	}
	if u.HealthConcerns != "" {
		lines = append(lines, "Health concerns: "+u.HealthConcerns)
	}
	return lines
}

func timed(acts []internal.Activity, loc *time.Location, keep func(*internal.Activity) bool, text func(*internal.Activity) string) []string {
	var out []string
	for i := range acts {
		a := &acts[i]
		if !keep(a) {
			continue
		}
		out = append(out, fmt.Sprintf("%s at %s", text(a), localClock(a.CreatedAt, loc)))
	}
	return out
}

func isFoodOrCoffee(a *internal.Activity) bool {
	return a.Category == internal.CategoryFood || a.Category == internal.CategoryCoffee
}

func exerciseText(a *internal.Activity) string {
	return strings.TrimSpace(a.Category.Label() + " " + a.DisplayValue())
}

func instructions(b *strings.Builder, items ...string) {
	b.WriteString("\n\nProvide a brief analysis (3-5 sentences) covering:")
	for i, it := range items {
		fmt.Fprintf(b, "\n%d. %s", i+1, it)
	}
	b.WriteString("\n\nKeep it conversational and helpful. Do not give medical diagnoses.")
}

// --- Calories ---

func caloriePrompt(req *CalorieRequest) string {
	var ctxLines []string
	if req.Category != "" {
		ctxLines = append(ctxLines, "Category: "+string(req.Category))
	}
	if req.Value != nil {
		ctxLines = append(ctxLines, strings.TrimSpace(fmt.Sprintf("Amount: %s %s", internal.FormatNumber(*req.Value), req.Unit)))
	}
	if req.Notes != "" {
		ctxLines = append(ctxLines, "Description: "+req.Notes)
	}

	var b strings.Builder
	b.WriteString("Estimate the total calories and macronutrients for this food or activity.")
	if len(ctxLines) > 0 {
		b.WriteString("\n" + strings.Join(ctxLines, "\n"))
	}
	b.WriteString("\n\nRespond with ONLY a JSON object like: " +
		`{"calories": 350, "description": "brief description of what you see", ` +
		`"protein_g": 12, "carbs_g": 40, "fat_g": 9, "fiber_g": 3, "sugar_g": 8}`)
	b.WriteString(jsonOnly)
	return b.String()
}

// --- Blood pressure ---

func bloodPressurePrompt(req *BloodPressureRequest) string {
	u := req.User
	loc := u.Location()

	lines := []string{
		fmt.Sprintf("Blood pressure reading: %d/%d mmHg", req.Systolic, req.Diastolic),
		"Time of reading: " + localClock(req.Now, loc),
	}
	lines = append(lines, profileLines(u, req.Now, true)...)
	if u.BloodPressureSystolic != nil && u.BloodPressureDiastolic != nil {
		lines = append(lines, fmt.Sprintf("Baseline BP from profile: %d/%d", *u.BloodPressureSystolic, *u.BloodPressureDiastolic))
	}
	if food := timed(req.Today, loc, isFoodOrCoffee, describe); len(food) > 0 {
		lines = append(lines, "Food/drink today: "+strings.Join(food, "; "))
	}
	if ex := timed(req.Today, loc, (*internal.Activity).IsBurn, exerciseText); len(ex) > 0 {
		lines = append(lines, "Exercise today: "+strings.Join(ex, "; "))
	} else {
		lines = append(lines, "No exercise logged today")
	}

	var b strings.Builder
	b.WriteString("You are a health assistant. Analyze this blood pressure reading in context.\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	instructions(&b,
		"Classification of the reading (normal, elevated, stage 1/2 hypertension)",
		"How time of day and today's food/caffeine may affect it",
		"Whether recent exercise could be a factor",
		"One actionable suggestion based on their profile",
	)
	b.WriteString("\nAlso return a risk level: \"low\", \"medium\", or \"high\".")
	b.WriteString("\n\nRespond with ONLY a JSON object: " +
		`{"analysis": "your analysis text", "risk": "low|medium|high", "classification": "Normal|Elevated|Stage 1|Stage 2"}`)
	b.WriteString(jsonOnly)
	return b.String()
}

// --- Sleep ---

func sleepPrompt(req *SleepRequest) string {
	u := req.User
	loc := u.Location()

	lines := []string{fmt.Sprintf("Sleep duration: %s hours", internal.FormatNumber(req.Hours))}
	if req.Notes != "" {
		lines = append(lines, "Sleep notes: "+req.Notes)
	}
	lines = append(lines, profileLines(u, req.Now, false)...)
	if ex := timed(req.Today, loc, (*internal.Activity).IsBurn, exerciseText); len(ex) > 0 {
		lines = append(lines, "Exercise today: "+strings.Join(ex, "; "))
	}
	isCoffee := func(a *internal.Activity) bool { return a.Category == internal.CategoryCoffee }
	if caf := timed(req.Today, loc, isCoffee, describe); len(caf) > 0 {
		lines = append(lines, "Caffeine today: "+strings.Join(caf, "; "))
	}
	if meal := lastMeal(req.Today); meal != nil {
		lines = append(lines, fmt.Sprintf("Last meal: %s at %s", describe(meal), localClock(meal.CreatedAt, loc)))
	}

	var b strings.Builder
	b.WriteString("You are a health assistant. Analyze this sleep entry in context of the user's day.\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	instructions(&b,
		"Whether the sleep duration is adequate for their age/profile",
		"How today's exercise may affect sleep quality",
		"Whether caffeine timing could be a factor",
		"One actionable tip to improve sleep",
	)
	b.WriteString("\nAlso return a quality rating: \"good\" if duration and habits look solid, " +
		"\"fair\" if minor concerns, \"poor\" if significant issues.")
	b.WriteString("\n\nRespond with ONLY a JSON object: " +
		`{"analysis": "your analysis text", "quality": "good|fair|poor", "recommended_hours": 8}`)
	b.WriteString(jsonOnly)
	return b.String()
}

func lastMeal(acts []internal.Activity) *internal.Activity {
	var last *internal.Activity
	for i := range acts {
		a := &acts[i]
		if a.Category != internal.CategoryFood {
			continue
		}
		if last == nil || a.CreatedAt.After(last.CreatedAt) {
			last = a
		}
	}
	return last
}

// --- Medication ---

func medicationPrompt(req *MedicationRequest) string {
	lines := []string{"Medication/supplement: " + req.Name}
	if req.Dose != nil {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("Dose: %s %s", internal.FormatNumber(*req.Dose), req.Unit)))
	}
	lines = append(lines, profileLines(req.User, req.Now, false)...)

	var others []string
	for i := range req.OtherMedications {
		a := &req.OtherMedications[i]
		if a.Notes != "" {
			others = append(others, fmt.Sprintf("%s (%s)", a.Notes, a.DisplayValue()))
		} else {
			others = append(others, a.DisplayValue())
		}
	}
	if len(others) > 0 {
		lines = append(lines, "Other medications/supplements taken today: "+strings.Join(others, "; "))
	}

	var b strings.Builder
	b.WriteString("You are a health assistant. Analyze this medication or supplement in context of the user's profile.\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	instructions(&b,
		"What this supplement/medication is commonly used for",
		"Whether the dose is within the typical recommended range",
		"Any interactions with other supplements taken today, if applicable",
		"One helpful tip (best time to take it, take with food, etc.)",
	)
	b.WriteString("\nAlso return a risk level: \"low\" if safe and typical, \"medium\" if dose is high or minor " +
		"interaction concern, \"high\" if potentially dangerous interaction or very high dose.")
	b.WriteString("\n\nRespond with ONLY a JSON object: " +
		`{"analysis": "your analysis text", "risk": "low|medium|high", "category": "Supplement|Medication|Vitamin|Mineral|Amino Acid|Herbal"}`)
	b.WriteString(jsonOnly)
	return b.String()
}

// --- Diet tips ---

func dietTipsPrompt(req *DietTipsRequest) string {
	u := req.User
	var b strings.Builder

	b.WriteString("You are a helpful health and nutrition advisor. Based on this user's profile and today's " +
		"food log, provide 3-4 brief, actionable diet tips.\n\n")

	b.WriteString("## User Profile\n")
	age, _ := u.Age(req.Now)
	fmt.Fprintf(&b, "Age: %d, Sex: %s, Weight: %s lbs, Height: %s inches\n",
		age, u.Sex, optFloat(u.Weight), optFloat(u.Height))
	if t := req.Targets; t != nil {
		fmt.Fprintf(&b, "BMI: %s (%s)\n", internal.FormatNumber(t.BMI), t.BMICategory)
	} else {
		b.WriteString("BMI: unknown (unknown)\n")
	}
	fmt.Fprintf(&b, "Blood pressure: %s/%s mmHg\n", optInt(u.BloodPressureSystolic), optInt(u.BloodPressureDiastolic))
	fmt.Fprintf(&b, "Activity level: %s\n", orUnknown(humanize(u.ActivityLevel)))
	fmt.Fprintf(&b, "Goal: %s\n", service.GoalLabel(u.Goal))
	concerns := u.HealthConcerns
	if concerns == "" {
		concerns = "none noted"
	}
	fmt.Fprintf(&b, "Health concerns: %s\n", concerns)

	b.WriteString("\n## Daily Targets\n")
	if t := req.Targets; t != nil {
		fmt.Fprintf(&b, "Daily calorie target: %d cal\n", t.DailyCalories)
		fmt.Fprintf(&b, "Protein target: %dg, Carbs: %dg, Fat: %dg\n", t.ProteinG, t.CarbsG, t.FatG)
		fmt.Fprintf(&b, "Water goal: %s cups\n", internal.FormatNumber(req.WaterGoalCups))
	} else {
		b.WriteString("No calculated targets available.\n")
	}

	b.WriteString("\n## Today's Food Log\n")
	var food, exercise []string
	for i := range req.Today {
		a := &req.Today[i]
		switch {
		case a.Category == internal.CategoryFood:
			food = append(food, foodLine(a))
		case a.IsBurn():
			line := fmt.Sprintf("%s: %d cal burned", a.Category.Label(), a.CaloriesOrZero())
			if a.Notes != "" {
				line += " - " + a.Notes
			}
			exercise = append(exercise, line)
		}
	}
	if len(food) > 0 {
		b.WriteString(strings.Join(food, "\n") + "\n")
	} else {
		b.WriteString("No food logged yet today.\n")
	}

	fmt.Fprintf(&b, "\nCalories consumed so far: %d cal\n", req.Totals.CaloriesIn)
	fmt.Fprintf(&b, "Calories burned from exercise: %d cal\n", req.Totals.CaloriesBurned)
	fmt.Fprintf(&b, "Macros so far: protein %sg, carbs %sg, fat %sg\n",
		internal.FormatNumber(req.Totals.Macros.ProteinG),
		internal.FormatNumber(req.Totals.Macros.CarbsG),
		internal.FormatNumber(req.Totals.Macros.FatG))
	fmt.Fprintf(&b, "Water consumed: %s cups\n", internal.FormatNumber(req.Totals.WaterCups))

	b.WriteString("\n## Today's Exercise\n")
	if len(exercise) > 0 {
		b.WriteString(strings.Join(exercise, "\n") + "\n")
	} else {
		b.WriteString("No exercise logged.\n")
	}

	if req.LastFoodAt != nil {
		hours := req.Now.Sub(*req.LastFoodAt).Hours()
		fmt.Fprintf(&b, "\nLast food/drink logged at %s (%s hours ago)\n",
			localClock(*req.LastFoodAt, u.Location()), internal.FormatNumber(internal.Round1(hours)))
	}
	if q := strings.TrimSpace(req.Question); q != "" {
		fmt.Fprintf(&b, "\n## User Question\n%s\nAnswer this question first, then give the tips.\n", q)
	}

	b.WriteString(`
## Instructions
- Give 3-4 short, specific, actionable tips based on what they've eaten today and their health profile
- Consider their BMI, blood pressure, goal, and health concerns
- Suggest specific foods they could add for the rest of the day
- If they have high blood pressure, mention sodium awareness
- Keep each tip to 1-2 sentences
- Use a friendly, encouraging tone
- Format as a simple numbered list (1. 2. 3.)
- Do NOT include any preamble or closing, just the numbered tips
`)
	return b.String()
}

func foodLine(a *internal.Activity) string {
	var parts []string
	if a.Value != nil {
		parts = append(parts, strings.TrimSpace(internal.FormatNumber(*a.Value)+" "+a.Unit))
	}
	if a.Notes != "" {
		parts = append(parts, a.Notes)
	}
	if c := a.CaloriesOrZero(); c > 0 {
		parts = append(parts, fmt.Sprintf("(%d cal)", c))
	}
	return strings.Join(parts, " - ")
}

func optFloat(v *float64) string {
	if v == nil {
		return "?"
	}
	return internal.FormatNumber(*v)
}

func optInt(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprint(*v)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
