package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportQuery is the normalized form of the query parameters every report
// endpoint accepts.
type ReportQuery struct {
	Range    string      `json:"range"`
	Start    string      `json:"start,omitempty"`
	End      string      `json:"end,omitempty"`
	Compare  CompareMode `json:"compare"`
	Mode     Mode        `json:"mode"`
	Category string      `json:"category,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

type Period struct {
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ProductAggregate struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	SoldMarkup decimal.Decimal `json:"sold_markup"`
	Units      int64           `json:"units"`
}

type ServiceAggregate struct {
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

type Loss struct {
	Full   decimal.Decimal `json:"full_loss"`
	Base   decimal.Decimal `json:"base_loss"`
	Markup decimal.Decimal `json:"markup_loss"`
	Units  int64           `json:"units"`
}

type KPI struct {
	Products         *ProductAggregate `json:"products,omitempty"`
	Services         *ServiceAggregate `json:"services,omitempty"`
	Loss             Loss              `json:"loss"`
	TotalRevenue     decimal.Decimal   `json:"total_revenue"`
	ProfitBeforeLoss decimal.Decimal   `json:"profit_before_loss"`
	ProfitAfterLoss  decimal.Decimal   `json:"profit_after_loss"`
}

type Comparison struct {
	Period               Period          `json:"period"`
	CurrentRevenue       decimal.Decimal `json:"current_revenue"`
	PrevRevenue          decimal.Decimal `json:"prev_revenue"`
	RevenueChangePercent decimal.Decimal `json:"revenue_change_percent"`
	CurrentProfit        decimal.Decimal `json:"current_profit"`
	PrevProfit           decimal.Decimal `json:"prev_profit"`
	ProfitChangePercent  decimal.Decimal `json:"profit_change_percent"`
}

type KPIReport struct {
	Mode       Mode        `json:"mode"`
	Category   string      `json:"category,omitempty"`
	Period     Period      `json:"period"`
	KPI        KPI         `json:"kpi"`
	Comparison *Comparison `json:"comparison,omitempty"`
}

type CategoryProfitRow struct {
	Category   string          `json:"category"`
	Units      int64           `json:"units"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	SoldMarkup decimal.Decimal `json:"sold_markup"`
	Sales      decimal.Decimal `json:"sales"`
	FullLoss   decimal.Decimal `json:"full_loss"`
	Profit     decimal.Decimal `json:"profit"`
}

type ServiceCategoryRow struct {
	Category string          `json:"category"`
	Count    int64           `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
}

type CategoryRevenueRow struct {
	Kind     LineKind        `json:"kind"`
	Category string          `json:"category"`
	Units    int64           `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// EntityRow is a per-product or per-service line of a rollup. Units counts
// product units or service occurrences.
type EntityRow struct {
	Kind     LineKind        `json:"kind"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Units    int64           `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

type CategoryReport struct {
	Mode     Mode                 `json:"mode"`
	Period   Period               `json:"period"`
	Products []CategoryProfitRow  `json:"products,omitempty"`
	Services []ServiceCategoryRow `json:"services,omitempty"`
}

type RevenueByCategoryReport struct {
	Mode   Mode                 `json:"mode"`
	Period Period               `json:"period"`
	Rows   []CategoryRevenueRow `json:"rows"`
}

type EntityReport struct {
	Mode       Mode        `json:"mode"`
	Period     Period      `json:"period"`
	Rows       []EntityRow `json:"rows"`
	TopSellers []EntityRow `json:"top_sellers,omitempty"`
}

type TopProfitReport struct {
	Mode     Mode        `json:"mode"`
	Period   Period      `json:"period"`
	Limit    int         `json:"limit"`
	Products []EntityRow `json:"products,omitempty"`
	Services []EntityRow `json:"services,omitempty"`
}

type LossRow struct {
	Key        string          `json:"key"`
	Category   string          `json:"category"`
	Units      int64           `json:"units"`
	FullLoss   decimal.Decimal `json:"full_loss"`
	BaseLoss   decimal.Decimal `json:"base_loss"`
	MarkupLoss decimal.Decimal `json:"markup_loss"`
}

type LossReport struct {
	Period     Period    `json:"period"`
	Category   string    `json:"category,omitempty"`
	Totals     Loss      `json:"totals"`
	ByCategory []LossRow `json:"by_category"`
	ByItem     []LossRow `json:"by_item"`
}

type SlowMover struct {
	Kind       LineKind   `json:"kind"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	LastSoldAt *time.Time `json:"last_sold_at"`
	DaysSince  *int       `json:"days_since"`
	NeverSold  bool       `json:"never_sold"`
}

type SlowMoverReport struct {
	Mode     Mode        `json:"mode"`
	Period   Period      `json:"period"`
	Products []SlowMover `json:"products,omitempty"`
	Services []SlowMover `json:"services,omitempty"`
}

type ExpiringEntry struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	ExpiresAt time.Time       `json:"expires_at"`
	DaysLeft  int             `json:"days_left"`
	Price     decimal.Decimal `json:"price"`
}

type ExpiringReport struct {
	From    time.Time       `json:"from"`
	Days    int             `json:"days"`
	Entries []ExpiringEntry `json:"entries"`
	Value   decimal.Decimal `json:"value_at_risk"`
}

type CategoryList struct {
	Products []string          `json:"products"`
	Services []ServiceCategory `json:"services"`
}

// OverviewTotals merges products and services for mode "both". Services carry
// no loss.
type OverviewTotals struct {
	Sales  decimal.Decimal `json:"sales"`
	Profit decimal.Decimal `json:"profit"`
	Loss   decimal.Decimal `json:"loss"`
}

type CategorySection[T any] struct {
	Category string      `json:"category"`
	Totals   T           `json:"totals"`
	Rows     []EntityRow `json:"rows"`
}

// ExportBundle holds everything the workbook renders. It is produced by the
// same computations as the JSON reports.
type ExportBundle struct {
	Mode     Mode   `json:"mode"`
	Category string `json:"category,omitempty"`
	Period   Period `json:"period"`

	Overview *OverviewTotals `json:"overview,omitempty"`

	ProductCategories []CategoryProfitRow                   `json:"product_categories,omitempty"`
	ProductTotals     CategoryProfitRow                     `json:"product_totals"`
	ProductSections   []CategorySection[CategoryProfitRow]  `json:"product_sections,omitempty"`
	LossByCategory    []LossRow                             `json:"loss_by_category,omitempty"`
	LossTotals        Loss                                  `json:"loss_totals"`
	ProductSlowMovers []SlowMover                           `json:"product_slow_movers,omitempty"`
	ServiceCategories []ServiceCategoryRow                  `json:"service_categories,omitempty"`
	ServiceTotals     ServiceCategoryRow                    `json:"service_totals"`
	ServiceSections   []CategorySection[ServiceCategoryRow] `json:"service_sections,omitempty"`
	ServiceSlowMovers []SlowMover                           `json:"service_slow_movers,omitempty"`
}
