package service

import (
	"context"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/reporting"
)

// ExportBundle gathers every table the workbook renders. It reuses the same
// aggregates as the JSON reports; each category section is the product or
// service rollup restricted to that category.
func (s *Service) ExportBundle(ctx context.Context, q domain.ReportQuery) (domain.ExportBundle, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needsFor(q.Mode))
	if err != nil {
		return domain.ExportBundle{}, err
	}

	bundle := domain.ExportBundle{Mode: q.Mode, Category: q.Category, Period: p}

	if q.Mode.IncludesProducts() {
		lines := snap.productLines(q.Category)
		units := snap.expired(q.Category)
		bundle.LossByCategory = reporting.LossByCategory(units)
		bundle.LossTotals = reporting.LossTotals(units)
		bundle.ProductCategories = reporting.ProductCategoryRollup(lines, bundle.LossByCategory)
		bundle.ProductTotals = reporting.SumCategoryProfit(bundle.ProductCategories)

		bundle.ProductSections = make([]domain.CategorySection[domain.CategoryProfitRow], 0, len(bundle.ProductCategories))
		for _, row := range bundle.ProductCategories {
			bundle.ProductSections = append(bundle.ProductSections, domain.CategorySection[domain.CategoryProfitRow]{
				Category: row.Category,
				Totals:   row,
				Rows:     reporting.ProductRollup(reporting.InCategory(lines, row.Category)),
			})
		}
	}

	if q.Mode.IncludesServices() {
		lines := snap.serviceLines(q.Category)
		bundle.ServiceCategories = reporting.ServiceCategoryRollup(lines)
		bundle.ServiceTotals = reporting.SumServiceCategories(bundle.ServiceCategories)

		bundle.ServiceSections = make([]domain.CategorySection[domain.ServiceCategoryRow], 0, len(bundle.ServiceCategories))
		for _, row := range bundle.ServiceCategories {
			bundle.ServiceSections = append(bundle.ServiceSections, domain.CategorySection[domain.ServiceCategoryRow]{
				Category: row.Category,
				Totals:   row,
				Rows:     reporting.ServiceRollup(reporting.InCategory(lines, row.Category)),
			})
		}
	}

	products, services, err := s.slowMovers(ctx, snap, q.Mode, q.Category)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	bundle.ProductSlowMovers = products
	bundle.ServiceSlowMovers = services

	if q.Mode == domain.ModeBoth {
		bundle.Overview = &domain.OverviewTotals{
			Sales:  bundle.ProductTotals.Sales.Add(bundle.ServiceTotals.Revenue),
			Profit: bundle.ProductTotals.Profit.Add(bundle.ServiceTotals.Revenue),
			Loss:   bundle.ProductTotals.FullLoss,
		}
	}
	return bundle, nil
}
