package reporting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

// SoldLine is one priced product or service line inside the report window.
type SoldLine struct {
	Kind          domain.LineKind
	TransactionID string
	SoldAt        time.Time
	Name          string
	Category      string
	CategoryID    string
	Matched       bool
	Units         int64
	Revenue       decimal.Decimal
	Cost          decimal.Decimal
	Markup        decimal.Decimal
}

// Profit is the realized markup for products and the full revenue for services.
func (l SoldLine) Profit() decimal.Decimal {
	if l.Kind == domain.LineKindService {
		return l.Revenue
	}
	return l.Markup
}

type lineValuer func(item domain.LineItem) (SoldLine, bool)

// ProductLines prices every product line of transactions inside p. Lines that
// are not in the catalog keep their revenue but carry no cost or markup, and
// are dropped whenever a category filter is set.
func ProductLines(txs []domain.Transaction, lookup ProductLookup, p domain.Period, category string) []SoldLine {
	category = strings.TrimSpace(category)
	return flatten(txs, p, domain.LineKindProduct, func(item domain.LineItem) (SoldLine, bool) {
		meta, matched := lookup.Find(item.Name)
		if category != "" && (!matched || meta.Category != category) {
			return SoldLine{}, false
		}

		units := int64(item.Units())
		qty := decimal.NewFromInt(units)
		line := SoldLine{Name: lookupKey(item.Name), Matched: matched, Units: units}

		switch {
		case item.LineTotal.Valid:
			line.Revenue = item.LineTotal.Decimal
		case item.UnitPrice.Valid:
			line.Revenue = qty.Mul(item.UnitPrice.Decimal)
		case matched:
			line.Revenue = qty.Mul(meta.Price)
		}
		if matched {
			line.Category = meta.Category
			line.Cost = qty.Mul(meta.BasePrice)
			line.Markup = qty.Mul(meta.Markup)
		}
		return line, true
	})
}

// ServiceLines prices every service line inside p. Services have no cost basis.
func ServiceLines(txs []domain.Transaction, lookup ServiceLookup, p domain.Period, category string) []SoldLine {
	category = strings.TrimSpace(category)
	return flatten(txs, p, domain.LineKindService, func(item domain.LineItem) (SoldLine, bool) {
		meta, matched := lookup.Find(item.Name)
		if category != "" && (!matched || !meta.MatchesCategory(category)) {
			return SoldLine{}, false
		}

		units := int64(item.Units())
		line := SoldLine{Name: lookupKey(item.Name), Matched: matched, Units: units}
		switch {
		case item.LineTotal.Valid:
			line.Revenue = item.LineTotal.Decimal
		case item.UnitPrice.Valid:
			line.Revenue = decimal.NewFromInt(units).Mul(item.UnitPrice.Decimal)
		}
		if matched {
			line.Category = meta.CategoryName
			line.CategoryID = meta.CategoryID
		}
		return line, true
	})
}

func flatten(txs []domain.Transaction, p domain.Period, kind domain.LineKind, value lineValuer) []SoldLine {
	out := make([]SoldLine, 0, len(txs))
	for _, tx := range txs {
		if !tx.InRange(p.Start, p.End) {
			continue
		}
		for _, item := range tx.Lines(kind) {
			line, ok := value(item)
			if !ok {
				continue
			}
			line.Kind = kind
			line.TransactionID = tx.ID
			line.SoldAt = tx.OccurredAt()
			out = append(out, line)
		}
	}
	return out
}

// SoldNames returns the set of line names of kind sold inside p.
func SoldNames(txs []domain.Transaction, kind domain.LineKind, p domain.Period) map[string]struct{} {
	sold := make(map[string]struct{})
	for _, tx := range txs {
		if !tx.InRange(p.Start, p.End) {
			continue
		}
		for _, item := range tx.Lines(kind) {
			if name := lookupKey(item.Name); name != "" {
				sold[name] = struct{}{}
			}
		}
	}
	return sold
}
