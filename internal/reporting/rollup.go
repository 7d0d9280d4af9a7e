package reporting

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

const (
	DefaultLimit = 5
	MaxLimit     = 50
	TotalLabel   = "Total"
)

// ClampLimit applies the default for non-positive limits and caps the rest.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ProductCategoryRollup builds the product P&L per category. Categories that
// only lost stock in the window still get a row.
func ProductCategoryRollup(lines []SoldLine, lossByCategory []domain.LossRow) []domain.CategoryProfitRow {
	buckets, keys := GroupBy(lines, ByCategory, AddLine)

	rows := make([]domain.CategoryProfitRow, 0, len(keys)+len(lossByCategory))
	index := make(map[string]int, len(keys))
	for _, key := range keys {
		t := buckets[key]
		index[key] = len(rows)
		rows = append(rows, domain.CategoryProfitRow{
			Category:   key,
			Units:      t.Units,
			Revenue:    t.Revenue,
			Cost:       t.Cost,
			SoldMarkup: t.Markup,
		})
	}
	for _, loss := range lossByCategory {
		i, ok := index[loss.Key]
		if !ok {
			i = len(rows)
			index[loss.Key] = i
			rows = append(rows, domain.CategoryProfitRow{Category: loss.Key})
		}
		rows[i].FullLoss = rows[i].FullLoss.Add(loss.FullLoss)
	}
	for i := range rows {
		rows[i].Sales = rows[i].Cost.Add(rows[i].SoldMarkup)
		rows[i].Profit = rows[i].SoldMarkup.Sub(rows[i].FullLoss)
	}

	sortByProfit(rows, func(r domain.CategoryProfitRow) (decimal.Decimal, string) { return r.Profit, r.Category })
	return rows
}

func SumCategoryProfit(rows []domain.CategoryProfitRow) domain.CategoryProfitRow {
	total := domain.CategoryProfitRow{Category: TotalLabel}
	for _, row := range rows {
		total.Units += row.Units
		total.Revenue = total.Revenue.Add(row.Revenue)
		total.Cost = total.Cost.Add(row.Cost)
		total.SoldMarkup = total.SoldMarkup.Add(row.SoldMarkup)
		total.Sales = total.Sales.Add(row.Sales)
		total.FullLoss = total.FullLoss.Add(row.FullLoss)
		total.Profit = total.Profit.Add(row.Profit)
	}
	return total
}

func ServiceCategoryRollup(lines []SoldLine) []domain.ServiceCategoryRow {
	buckets, keys := GroupBy(lines, ByCategory, AddLine)

	rows := make([]domain.ServiceCategoryRow, 0, len(keys))
	for _, key := range keys {
		t := buckets[key]
		rows = append(rows, domain.ServiceCategoryRow{
			Category: key,
			Count:    t.Units,
			Revenue:  t.Revenue,
			Profit:   t.Revenue,
		})
	}
	sortByProfit(rows, func(r domain.ServiceCategoryRow) (decimal.Decimal, string) { return r.Profit, r.Category })
	return rows
}

func SumServiceCategories(rows []domain.ServiceCategoryRow) domain.ServiceCategoryRow {
	total := domain.ServiceCategoryRow{Category: TotalLabel}
	for _, row := range rows {
		total.Count += row.Count
		total.Revenue = total.Revenue.Add(row.Revenue)
		total.Profit = total.Profit.Add(row.Profit)
	}
	return total
}

// RevenueByCategory is the sales-only view across both sides, highest revenue
// first.
func RevenueByCategory(lines ...[]SoldLine) []domain.CategoryRevenueRow {
	rows := make([]domain.CategoryRevenueRow, 0)
	for _, set := range lines {
		if len(set) == 0 {
			continue
		}
		kind := set[0].Kind
		buckets, keys := GroupBy(set, ByCategory, AddLine)
		for _, key := range keys {
			t := buckets[key]
			rows = append(rows, domain.CategoryRevenueRow{
				Kind:     kind,
				Category: key,
				Units:    t.Units,
				Revenue:  t.Revenue,
			})
		}
	}
	slices.SortStableFunc(rows, func(a, b domain.CategoryRevenueRow) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(string(a.Kind), string(b.Kind))
	})
	return rows
}

func ProductRollup(lines []SoldLine) []domain.EntityRow {
	return entityRollup(lines, domain.LineKindProduct)
}

func ServiceRollup(lines []SoldLine) []domain.EntityRow {
	return entityRollup(lines, domain.LineKindService)
}

func entityRollup(lines []SoldLine, kind domain.LineKind) []domain.EntityRow {
	buckets, keys := GroupBy(lines, ByName, AddLine)

	rows := make([]domain.EntityRow, 0, len(keys))
	for _, key := range keys {
		t := buckets[key]
		rows = append(rows, domain.EntityRow{
			Kind:     kind,
			Name:     key,
			Category: t.Category,
			Units:    t.Units,
			Revenue:  t.Revenue,
			Cost:     t.Cost,
			Profit:   t.Profit,
		})
	}
	sortByProfit(rows, func(r domain.EntityRow) (decimal.Decimal, string) { return r.Profit, r.Name })
	return rows
}

// TopSellers ranks rows by units sold.
func TopSellers(rows []domain.EntityRow, limit int) []domain.EntityRow {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b domain.EntityRow) int {
		switch {
		case a.Units > b.Units:
			return -1
		case a.Units < b.Units:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return truncate(out, ClampLimit(limit))
}

// TopProfitDrivers returns two independent rankings. Product profit is the
// realized markup and service profit is revenue; the lists are never merged.
func TopProfitDrivers(products, services []domain.EntityRow, limit int) ([]domain.EntityRow, []domain.EntityRow) {
	limit = ClampLimit(limit)
	p := slices.Clone(products)
	s := slices.Clone(services)
	byProfit := func(r domain.EntityRow) (decimal.Decimal, string) { return r.Profit, r.Name }
	sortByProfit(p, byProfit)
	sortByProfit(s, byProfit)
	return truncate(p, limit), truncate(s, limit)
}

func sortByProfit[T any](rows []T, key func(T) (decimal.Decimal, string)) {
	slices.SortStableFunc(rows, func(a, b T) int {
		pa, na := key(a)
		pb, nb := key(b)
		if c := pb.Cmp(pa); c != 0 {
			return c
		}
		return strings.Compare(na, nb)
	})
}

func truncate[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
