package reporting

import (
	"strings"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// NormalizeMode defaults anything unrecognized to both sides.
func NormalizeMode(mode string) domain.Mode {
	switch domain.Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case domain.ModeProducts:
		return domain.ModeProducts
	case domain.ModeServices:
		return domain.ModeServices
	default:
		return domain.ModeBoth
	}
}

// BuildKPI combines the per-side aggregates for mode. Services never carry
// loss, so the loss is only kept while products are part of the report.
func BuildKPI(mode domain.Mode, products *domain.ProductAggregate, services *domain.ServiceAggregate, loss domain.Loss) domain.KPI {
	var kpi domain.KPI

	if mode.IncludesProducts() {
		agg := domain.ProductAggregate{}
		if products != nil {
			agg = *products
		}
		kpi.Products = &agg
		kpi.Loss = loss
		kpi.TotalRevenue = kpi.TotalRevenue.Add(agg.Revenue)
		kpi.ProfitBeforeLoss = kpi.ProfitBeforeLoss.Add(agg.SoldMarkup)
	}
	if mode.IncludesServices() {
		agg := domain.ServiceAggregate{}
		if services != nil {
			agg = *services
		}
		kpi.Services = &agg
		kpi.TotalRevenue = kpi.TotalRevenue.Add(agg.Revenue)
		kpi.ProfitBeforeLoss = kpi.ProfitBeforeLoss.Add(agg.Revenue)
	}

	kpi.ProfitAfterLoss = kpi.ProfitBeforeLoss.Sub(kpi.Loss.Full)
	return kpi
}

func Compare(cur, prev domain.KPI, prevPeriod domain.Period) domain.Comparison {
	return domain.Comparison{
		Period:               prevPeriod,
		CurrentRevenue:       cur.TotalRevenue,
		PrevRevenue:          prev.TotalRevenue,
		RevenueChangePercent: ChangePercent(cur.TotalRevenue, prev.TotalRevenue),
		CurrentProfit:        cur.ProfitAfterLoss,
		PrevProfit:           prev.ProfitAfterLoss,
		ProfitChangePercent:  ChangePercent(cur.ProfitAfterLoss, prev.ProfitAfterLoss),
	}
}

// ChangePercent is (cur-prev)/|prev| as a percentage rounded to two places,
// or zero when prev is zero.
func ChangePercent(cur, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(2)
}
