package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/reporting"
)

type needs uint8

const (
	needTransactions needs = 1 << iota
	needInventory
	needServices
)

func needsFor(mode domain.Mode) needs {
	n := needTransactions
	if mode.IncludesProducts() {
		n |= needInventory
	}
	if mode.IncludesServices() {
		n |= needServices
	}
	return n
}

// snapshot is everything one report needs for one window. Lookup tables are
// rebuilt per request and never shared.
type snapshot struct {
	period        domain.Period
	txs           []domain.Transaction
	items         []domain.InventoryItem
	services      []domain.ServiceCatalogEntry
	categories    []domain.ServiceCategory
	productLookup reporting.ProductLookup
	serviceLookup reporting.ServiceLookup
}

func (s *Service) load(ctx context.Context, p domain.Period, n needs) (snapshot, error) {
	snap := snapshot{period: p}

	g, gctx := errgroup.WithContext(ctx)
	if n&needTransactions != 0 {
		g.Go(func() error {
			txs, err := s.repo.FindTransactionsInRange(gctx, p.Start, p.End)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}
			snap.txs = txs
			return nil
		})
	}
	if n&needInventory != 0 {
		g.Go(func() error {
			items, err := s.repo.FindInventoryItems(gctx, "")
			if err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}
			snap.items = items
			return nil
		})
	}
	if n&needServices != 0 {
		g.Go(func() error {
			services, err := s.repo.FindServiceCatalog(gctx, "")
			if err != nil {
				return fmt.Errorf("load service catalog: %w", err)
			}
			snap.services = services
			return nil
		})
		g.Go(func() error {
			categories, err := s.repo.FindServiceCategories(gctx)
			if err != nil {
				return fmt.Errorf("load service categories: %w", err)
			}
			snap.categories = categories
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}

	snap.productLookup = reporting.NewProductLookup(snap.items)
	snap.serviceLookup = reporting.NewServiceLookup(snap.services, snap.categories)
	return snap, nil
}

func (s snapshot) productLines(category string) []reporting.SoldLine {
	return reporting.ProductLines(s.txs, s.productLookup, s.period, category)
}

func (s snapshot) serviceLines(category string) []reporting.SoldLine {
	return reporting.ServiceLines(s.txs, s.serviceLookup, s.period, category)
}

func (s snapshot) expired(category string) []reporting.ExpiredUnit {
	return reporting.ExpiredUnits(s.items, s.period, category)
}

func (s snapshot) productCategories(category string) []domain.CategoryProfitRow {
	return reporting.ProductCategoryRollup(s.productLines(category), reporting.LossByCategory(s.expired(category)))
}

func (s snapshot) kpi(mode domain.Mode, category string) domain.KPI {
	var (
		products *domain.ProductAggregate
		services *domain.ServiceAggregate
		loss     domain.Loss
	)
	if mode.IncludesProducts() {
		agg := reporting.ProductTotals(s.productLines(category))
		products = &agg
		loss = reporting.LossTotals(s.expired(category))
	}
	if mode.IncludesServices() {
		agg := reporting.ServiceTotals(s.serviceLines(category))
		services = &agg
	}
	return reporting.BuildKPI(mode, products, services, loss)
}
