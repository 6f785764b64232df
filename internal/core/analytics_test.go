package core

import (
	"testing"
	"time"
)

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, testNow); got != nil {
		t.Errorf("Aggregate(nil) = %v, want nil", got)
	}
	if got := Aggregate([]Expense{}, testNow); got != nil {
		t.Errorf("Aggregate(empty) = %v, want nil", got)
	}
}

func TestAggregateSummary(t *testing.T) {
	filtered := []Expense{
		{CreatedAt: day(1), Amount: Money{Cents: 1000}, Category: "Food"},
		{CreatedAt: day(2), Amount: Money{Cents: 2000}, Category: "Transport"},
		{CreatedAt: day(3), Amount: Money{Cents: 1001}, Category: "Food"},
	}

	got := Aggregate(filtered, testNow)
	if got == nil {
		t.Fatal("Aggregate() = nil, want snapshot")
	}
	if got.Summary.Total.Cents != 4001 {
		t.Errorf("Summary.Total = %v, want 4001", got.Summary.Total.Cents)
	}
	if got.Summary.Count != 3 {
		t.Errorf("Summary.Count = %v, want 3", got.Summary.Count)
	}
	// 4001/3 = 1333.67 rounded
	if got.Summary.Average.Cents != 1334 {
		t.Errorf("Summary.Average = %v, want 1334", got.Summary.Average.Cents)
	}
}

func TestAggregateByCategory(t *testing.T) {
	filtered := []Expense{
		{CreatedAt: day(1), Amount: Money{Cents: 3000}, Category: "Food"},
		{CreatedAt: day(2), Amount: Money{Cents: 1000}, Category: "Transport"},
		{CreatedAt: day(3), Amount: Money{Cents: 1000}, Category: "Food"},
	}

	got := Aggregate(filtered, testNow)
	if len(got.ByCategory) != 2 {
		t.Fatalf("len(ByCategory) = %d, want 2", len(got.ByCategory))
	}
	// First-occurrence order: Food, then Transport.
	if got.ByCategory[0].Category != "Food" || got.ByCategory[1].Category != "Transport" {
		t.Errorf("ByCategory order = [%s, %s], want [Food, Transport]",
			got.ByCategory[0].Category, got.ByCategory[1].Category)
	}
	if got.ByCategory[0].Amount.Cents != 4000 {
		t.Errorf("Food total = %v, want 4000", got.ByCategory[0].Amount.Cents)
	}
	if got.ByCategory[0].Percentage != 80 {
		t.Errorf("Food percentage = %v, want 80", got.ByCategory[0].Percentage)
	}
	if got.ByCategory[1].Percentage != 20 {
		t.Errorf("Transport percentage = %v, want 20", got.ByCategory[1].Percentage)
	}
}

func TestDailySeries(t *testing.T) {
	today := time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
	filtered := []Expense{
		{CreatedAt: time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC), Amount: Money{Cents: 500}},
		{CreatedAt: time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC), Amount: Money{Cents: 300}},
		{CreatedAt: time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC), Amount: Money{Cents: 700}},
		// Outside the window, must be ignored.
		{CreatedAt: time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC), Amount: Money{Cents: 9999}},
	}

	got := DailySeries(filtered, today)
	if len(got) != 7 {
		t.Fatalf("len(DailySeries()) = %d, want 7", len(got))
	}
	wantFirst := time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC)
	if !got[0].Day.Equal(wantFirst) {
		t.Errorf("DailySeries()[0].Day = %v, want %v", got[0].Day, wantFirst)
	}
	if got[0].Amount.Cents != 700 {
		t.Errorf("DailySeries()[0].Amount = %v, want 700", got[0].Amount.Cents)
	}
	if got[6].Amount.Cents != 800 {
		t.Errorf("DailySeries()[6].Amount = %v, want 800", got[6].Amount.Cents)
	}
	for i := 1; i < 6; i++ {
		if got[i].Amount.Cents != 0 {
			t.Errorf("DailySeries()[%d].Amount = %v, want 0", i, got[i].Amount.Cents)
		}
	}
}

func TestDailySeriesEmptyInput(t *testing.T) {
	got := DailySeries(nil, testNow)
	if len(got) != 7 {
		t.Fatalf("len(DailySeries(nil)) = %d, want 7", len(got))
	}
	for i, p := range got {
		if p.Amount.Cents != 0 {
			t.Errorf("DailySeries(nil)[%d].Amount = %v, want 0", i, p.Amount.Cents)
		}
	}
}

func TestAggregateMonthly(t *testing.T) {
	filtered := []Expense{
		{CreatedAt: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 100}},
		{CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 200}},
		{CreatedAt: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 300}},
		{CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 400}},
	}

	got := Aggregate(filtered, testNow)
	if len(got.Monthly) != 3 {
		t.Fatalf("len(Monthly) = %d, want 3", len(got.Monthly))
	}
	// First-occurrence order: 2024-05, 2024-06, 2023-06.
	want := []MonthlyPoint{
		{Year: 2024, Month: time.May, Amount: Money{Cents: 400}},
		{Year: 2024, Month: time.June, Amount: Money{Cents: 200}},
		{Year: 2023, Month: time.June, Amount: Money{Cents: 400}},
	}
	for i, w := range want {
		g := got.Monthly[i]
		if g.Year != w.Year || g.Month != w.Month || g.Amount != w.Amount {
			t.Errorf("Monthly[%d] = %+v, want %+v", i, g, w)
		}
	}
}

func TestAggregateSingleExpense(t *testing.T) {
	filtered := []Expense{
		{CreatedAt: day(1), Amount: Money{Cents: 999}, Category: "Food"},
	}
	got := Aggregate(filtered, testNow)
	if got.Summary.Average.Cents != 999 {
		t.Errorf("Average = %v, want 999", got.Summary.Average.Cents)
	}
	if got.ByCategory[0].Percentage != 100 {
		t.Errorf("single category percentage = %v, want 100", got.ByCategory[0].Percentage)
	}
}
