package reporting

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

// ExpiredUnit is a single expiration date that fell inside the report window.
// Each one counts as one lost unit.
type ExpiredUnit struct {
	ItemID    string
	Name      string
	Category  string
	ExpiredAt time.Time
	Price     decimal.Decimal
	BasePrice decimal.Decimal
	Markup    decimal.Decimal
}

func ExpiredUnits(items []domain.InventoryItem, p domain.Period, category string) []ExpiredUnit {
	category = strings.TrimSpace(category)
	out := make([]ExpiredUnit, 0)
	for _, item := range items {
		if category != "" && strings.TrimSpace(item.Category) != category {
			continue
		}
		for _, expiresAt := range item.ExpirationDates {
			if expiresAt.Before(p.Start) || expiresAt.After(p.End) {
				continue
			}
			out = append(out, ExpiredUnit{
				ItemID:    item.ID,
				Name:      lookupKey(item.Name),
				Category:  strings.TrimSpace(item.Category),
				ExpiredAt: expiresAt,
				Price:     item.Price,
				BasePrice: item.BasePrice,
				Markup:    item.EffectiveMarkup(),
			})
		}
	}
	return out
}

func LossTotals(units []ExpiredUnit) domain.Loss {
	var loss domain.Loss
	for _, unit := range units {
		addLoss(&loss, unit)
	}
	return loss
}

func LossByCategory(units []ExpiredUnit) []domain.LossRow {
	return lossRows(units, func(u ExpiredUnit) string { return categoryLabel(u.Category) })
}

func LossByItem(units []ExpiredUnit) []domain.LossRow {
	return lossRows(units, func(u ExpiredUnit) string { return u.Name })
}

// lossRows groups expired units under key, largest full loss first.
func lossRows(units []ExpiredUnit, key func(ExpiredUnit) string) []domain.LossRow {
	type bucket struct {
		category string
		loss     domain.Loss
	}
	buckets, keys := GroupBy(units, func(u ExpiredUnit) (string, bool) {
		k := key(u)
		return k, k != ""
	}, func(b *bucket, u ExpiredUnit) {
		if b.category == "" {
			b.category = categoryLabel(u.Category)
		}
		addLoss(&b.loss, u)
	})

	rows := make([]domain.LossRow, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		rows = append(rows, domain.LossRow{
			Key:        k,
			Category:   b.category,
			Units:      b.loss.Units,
			FullLoss:   b.loss.Full,
			BaseLoss:   b.loss.Base,
			MarkupLoss: b.loss.Markup,
		})
	}
	slices.SortStableFunc(rows, func(a, b domain.LossRow) int {
		if c := b.FullLoss.Cmp(a.FullLoss); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return rows
}

func addLoss(loss *domain.Loss, unit ExpiredUnit) {
	loss.Units++
	loss.Full = loss.Full.Add(unit.Price)
	loss.Base = loss.Base.Add(unit.BasePrice)
	loss.Markup = loss.Markup.Add(unit.Markup)
}

// ExpiringSoon lists inventory expiration dates from the start of from's day
// through the end of the day days later, soonest first.
func ExpiringSoon(items []domain.InventoryItem, from time.Time, days int, loc *time.Location) domain.ExpiringReport {
	if loc == nil {
		loc = time.Local
	}
	start := StartOfDay(from, loc)
	end := EndOfDay(start.AddDate(0, 0, days), loc)

	report := domain.ExpiringReport{From: start, Days: days, Entries: make([]domain.ExpiringEntry, 0)}
	for _, item := range items {
		for _, expiresAt := range item.ExpirationDates {
			if expiresAt.Before(start) || expiresAt.After(end) {
				continue
			}
			left := StartOfDay(expiresAt, loc).Sub(start).Hours() / 24
			report.Entries = append(report.Entries, domain.ExpiringEntry{
				Name:      lookupKey(item.Name),
				Category:  categoryLabel(item.Category),
				ExpiresAt: expiresAt,
				DaysLeft:  int(math.Round(left)),
				Price:     item.Price,
			})
			report.Value = report.Value.Add(item.Price)
		}
	}
	slices.SortStableFunc(report.Entries, func(a, b domain.ExpiringEntry) int {
		if c := a.ExpiresAt.Compare(b.ExpiresAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return report
}
