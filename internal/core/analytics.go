package core

import "time"

type (
	// CategoryTotal is one slice of the category breakdown.
	CategoryTotal struct {
		Category   string
		Amount     Money
		Percentage float64
	}

	// DailyPoint is one day of the trailing-week series.
	DailyPoint struct {
		Day    time.Time
		Amount Money
	}

	// MonthlyPoint is one (year, month) bucket.
	MonthlyPoint struct {
		Year   int
		Month  time.Month
		Amount Money
	}

	// Summary holds the headline figures for a filtered set.
	Summary struct {
		Total   Money
		Count   int
		Average Money
	}

	// Snapshot is the full derived view of a filtered expense set.
	// A nil Snapshot means the set was empty; Average is therefore
	// always well defined on a non-nil Snapshot.
	Snapshot struct {
		Summary    Summary
		ByCategory []CategoryTotal
		Daily      []DailyPoint
		Monthly    []MonthlyPoint
	}
)

// Aggregate computes the derived views for an already-filtered set.
// It returns nil for an empty set so callers can distinguish "no data"
// from a zero total. Category and monthly buckets keep first-occurrence
// order so the presentation is stable across recomputations.
func Aggregate(filtered []Expense, today time.Time) *Snapshot {
	if len(filtered) == 0 {
		return nil
	}

	var total int64
	for _, e := range filtered {
		total += e.Amount.Cents
	}

	byCategory := make([]CategoryTotal, 0)
	catIndex := make(map[string]int)
	monthly := make([]MonthlyPoint, 0)
	monthIndex := make(map[[2]int]int)
	for _, e := range filtered {
		if i, ok := catIndex[e.Category]; ok {
			byCategory[i].Amount.Cents += e.Amount.Cents
		} else {
			catIndex[e.Category] = len(byCategory)
			byCategory = append(byCategory, CategoryTotal{Category: e.Category, Amount: e.Amount})
		}

		key := [2]int{e.CreatedAt.Year(), int(e.CreatedAt.Month())}
		if i, ok := monthIndex[key]; ok {
			monthly[i].Amount.Cents += e.Amount.Cents
		} else {
			monthIndex[key] = len(monthly)
			monthly = append(monthly, MonthlyPoint{
				Year:   e.CreatedAt.Year(),
				Month:  e.CreatedAt.Month(),
				Amount: e.Amount,
			})
		}
	}
	for i := range byCategory {
		byCategory[i].Percentage = float64(byCategory[i].Amount.Cents) / float64(total) * 100
	}

	count := int64(len(filtered))
	avg := (total + count/2) / count

	return &Snapshot{
		Summary: Summary{
			Total:   Money{Cents: total},
			Count:   len(filtered),
			Average: Money{Cents: avg},
		},
		ByCategory: byCategory,
		Daily:      DailySeries(filtered, today),
		Monthly:    monthly,
	}
}

// DailySeries returns exactly 7 points covering the 7 calendar days
// ending at today inclusive, zero-filled for days without spending.
func DailySeries(filtered []Expense, today time.Time) []DailyPoint {
	points := make([]DailyPoint, 7)
	index := make(map[[3]int]int, 7)
	for i := 0; i < 7; i++ {
		day := midnight(today.AddDate(0, 0, i-6))
		points[i] = DailyPoint{Day: day}
		index[[3]int{day.Year(), int(day.Month()), day.Day()}] = i
	}
	for _, e := range filtered {
		key := [3]int{e.CreatedAt.Year(), int(e.CreatedAt.Month()), e.CreatedAt.Day()}
		if i, ok := index[key]; ok {
			points[i].Amount.Cents += e.Amount.Cents
		}
	}
	return points
}
