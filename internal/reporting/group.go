package reporting

import (
	"slices"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

// GroupBy folds rows into buckets named by key. Rows whose key reports false
// are skipped. The bucket names are returned sorted.
func GroupBy[T any, A any](rows []T, key func(T) (string, bool), add func(*A, T)) (map[string]*A, []string) {
	buckets := make(map[string]*A)
	keys := make([]string, 0)
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		bucket, exists := buckets[k]
		if !exists {
			bucket = new(A)
			buckets[k] = bucket
			keys = append(keys, k)
		}
		add(bucket, row)
	}
	slices.Sort(keys)
	return buckets, keys
}

// LineTotals accumulates sold lines.
type LineTotals struct {
	Category string
	Lines    int64
	Units    int64
	Revenue  decimal.Decimal
	Cost     decimal.Decimal
	Markup   decimal.Decimal
	Profit   decimal.Decimal
}

func AddLine(t *LineTotals, l SoldLine) {
	if t.Category == "" {
		t.Category = categoryLabel(l.Category)
	}
	t.Lines++
	t.Units += l.Units
	t.Revenue = t.Revenue.Add(l.Revenue)
	t.Cost = t.Cost.Add(l.Cost)
	t.Markup = t.Markup.Add(l.Markup)
	t.Profit = t.Profit.Add(l.Profit())
}

func ByCategory(l SoldLine) (string, bool) { return categoryLabel(l.Category), true }
func ByName(l SoldLine) (string, bool)     { return l.Name, l.Name != "" }
func Overall(SoldLine) (string, bool)      { return "", true }

// InCategory keeps the lines whose category label equals label, including the
// Uncategorized bucket.
func InCategory(lines []SoldLine, label string) []SoldLine {
	out := make([]SoldLine, 0, len(lines))
	for _, l := range lines {
		if categoryLabel(l.Category) == label {
			out = append(out, l)
		}
	}
	return out
}

func ProductTotals(lines []SoldLine) domain.ProductAggregate {
	totals := sumLines(lines)
	return domain.ProductAggregate{
		Revenue:    totals.Revenue,
		Cost:       totals.Cost,
		SoldMarkup: totals.Markup,
		Units:      totals.Units,
	}
}

// ServiceTotals counts service occurrences using the recorded quantity.
func ServiceTotals(lines []SoldLine) domain.ServiceAggregate {
	totals := sumLines(lines)
	return domain.ServiceAggregate{Revenue: totals.Revenue, Count: totals.Units}
}

func sumLines(lines []SoldLine) LineTotals {
	buckets, _ := GroupBy(lines, Overall, AddLine)
	if total, ok := buckets[""]; ok {
		return *total
	}
	return LineTotals{}
}
