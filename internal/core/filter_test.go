package core

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC)
}

func TestFilterExpenses(t *testing.T) {
	records := []Expense{
		{ID: 1, CreatedAt: day(1), Title: "Coffee", Amount: Money{Cents: 350}, Category: "Food"},
		{ID: 2, CreatedAt: day(5), Title: "Bus", Amount: Money{Cents: 200}, Category: "Transport"},
		{ID: 3, CreatedAt: day(8), Title: "Lunch", Amount: Money{Cents: 1200}, Category: "Food"},
		{ID: 4, CreatedAt: day(20), Title: "Cinema", Amount: Money{Cents: 900}, Category: "Leisure"},
	}
	firstWeek := Interval{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 7, 23, 59, 59, 999000000, time.UTC),
	}

	tests := []struct {
		name     string
		category string
		iv       Interval
		wantIDs  []int64
	}{
		{name: "all sentinel keeps everything", category: CategoryAll, iv: Interval{All: true}, wantIDs: []int64{1, 2, 3, 4}},
		{name: "category match", category: "Food", iv: Interval{All: true}, wantIDs: []int64{1, 3}},
		{name: "category is case sensitive", category: "food", iv: Interval{All: true}, wantIDs: []int64{}},
		{name: "interval only", category: CategoryAll, iv: firstWeek, wantIDs: []int64{1, 2}},
		{name: "category and interval", category: "Food", iv: firstWeek, wantIDs: []int64{1}},
		{name: "no matches", category: "Rent", iv: Interval{All: true}, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterExpenses(records, tt.category, tt.iv)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("FilterExpenses() returned %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, e := range got {
				if e.ID != tt.wantIDs[i] {
					t.Errorf("FilterExpenses()[%d].ID = %v, want %v", i, e.ID, tt.wantIDs[i])
				}
			}
		})
	}

	t.Run("empty input", func(t *testing.T) {
		got := FilterExpenses(nil, CategoryAll, Interval{All: true})
		if len(got) != 0 {
			t.Errorf("FilterExpenses(nil) returned %d records, want 0", len(got))
		}
	})

	t.Run("preserves original order", func(t *testing.T) {
		got := FilterExpenses(records, CategoryAll, Interval{All: true})
		for i := 1; i < len(got); i++ {
			if got[i].ID < got[i-1].ID {
				t.Errorf("order not preserved: ID %d before %d", got[i-1].ID, got[i].ID)
			}
		}
	})
}
