package core

// FilterExpenses returns the expenses matching the category and interval,
// in their original order. The CategoryAll sentinel disables the category
// check; any other value is matched exactly, case-sensitively, with no
// trimming. Timestamps on the interval bounds are included.
func FilterExpenses(records []Expense, category string, iv Interval) []Expense {
	out := make([]Expense, 0, len(records))
	for _, e := range records {
		if category != CategoryAll && e.Category != category {
			continue
		}
		if !iv.Contains(e.CreatedAt) {
			continue
		}
		out = append(out, e)
	}
	return out
}
