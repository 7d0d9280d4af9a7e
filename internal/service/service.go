package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vetreport/backend/internal/cache"
	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/reporting"
	"vetreport/backend/internal/store"
)

const (
	DefaultExpiringDays = 30
	MaxExpiringDays     = 365
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// Location anchors every day boundary. Defaults to time.Local.
	Location *time.Location
	Cache    cache.ReportCache
	CacheTTL time.Duration
	// Now is overridable for tests.
	Now func() time.Time
}

type Service struct {
	repo     store.Repository
	cache    cache.ReportCache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Cache == nil {
		opts.Cache = cache.NoopReportCache{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// NormalizeQuery applies the lenient defaults: unknown range is a single day,
// unknown compare is none, unknown mode is both and the limit is clamped.
func NormalizeQuery(q domain.ReportQuery) domain.ReportQuery {
	q.Range = reporting.NormalizeRangeKind(q.Range)
	q.Compare = reporting.NormalizeCompareMode(string(q.Compare))
	q.Mode = reporting.NormalizeMode(string(q.Mode))
	q.Category = strings.TrimSpace(q.Category)
	if strings.EqualFold(q.Category, "all") {
		q.Category = ""
	}
	q.Limit = reporting.ClampLimit(q.Limit)
	if q.Range != reporting.RangeCustom {
		q.Start, q.End = "", ""
	}
	return q
}

func (s *Service) Period(q domain.ReportQuery) domain.Period {
	return reporting.ResolveRange(reporting.RangeSelector{Kind: q.Range, Start: q.Start, End: q.End}, s.now(), s.loc)
}

// KPIReport computes the headline figures and, when requested, the comparison
// window in parallel. On failure it still returns the zero-valued shape for
// the requested mode so callers can render it.
func (s *Service) KPIReport(ctx context.Context, q domain.ReportQuery) (domain.KPIReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	prevPeriod, hasPrev := reporting.ComparePeriod(p, q.Compare)

	report := domain.KPIReport{
		Mode:     q.Mode,
		Category: q.Category,
		Period:   p,
		KPI:      reporting.BuildKPI(q.Mode, nil, nil, domain.Loss{}),
	}

	key := kpiCacheKey(q, p)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: kpi cache get key=%s: %v", key, err)
	} else if ok {
		return *cached, nil
	}

	var cur, prev domain.KPI
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.load(gctx, p, needsFor(q.Mode))
		if err != nil {
			return err
		}
		cur = snap.kpi(q.Mode, q.Category)
		return nil
	})
	if hasPrev {
		g.Go(func() error {
			snap, err := s.load(gctx, prevPeriod, needsFor(q.Mode))
			if err != nil {
				return fmt.Errorf("comparison window: %w", err)
			}
			prev = snap.kpi(q.Mode, q.Category)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.KPI = cur
	if hasPrev {
		cmp := reporting.Compare(cur, prev, prevPeriod)
		report.Comparison = &cmp
	}

	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, &report, s.cacheTTL); err != nil {
			log.Printf("[service] WARN: kpi cache set key=%s: %v", key, err)
		}
	}
	return report, nil
}

func (s *Service) CategoryReport(ctx context.Context, q domain.ReportQuery) (domain.CategoryReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needsFor(q.Mode))
	if err != nil {
		return domain.CategoryReport{}, err
	}

	report := domain.CategoryReport{Mode: q.Mode, Period: p}
	if q.Mode.IncludesProducts() {
		report.Products = snap.productCategories(q.Category)
	}
	if q.Mode.IncludesServices() {
		report.Services = reporting.ServiceCategoryRollup(snap.serviceLines(q.Category))
	}
	return report, nil
}

func (s *Service) RevenueByCategory(ctx context.Context, q domain.ReportQuery) (domain.RevenueByCategoryReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needsFor(q.Mode))
	if err != nil {
		return domain.RevenueByCategoryReport{}, err
	}

	sets := make([][]reporting.SoldLine, 0, 2)
	if q.Mode.IncludesProducts() {
		sets = append(sets, snap.productLines(q.Category))
	}
	if q.Mode.IncludesServices() {
		sets = append(sets, snap.serviceLines(q.Category))
	}
	return domain.RevenueByCategoryReport{Mode: q.Mode, Period: p, Rows: reporting.RevenueByCategory(sets...)}, nil
}

func (s *Service) ProductReport(ctx context.Context, q domain.ReportQuery) (domain.EntityReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needTransactions|needInventory)
	if err != nil {
		return domain.EntityReport{}, err
	}

	rows := reporting.ProductRollup(snap.productLines(q.Category))
	return domain.EntityReport{
		Mode:       domain.ModeProducts,
		Period:     p,
		Rows:       rows,
		TopSellers: reporting.TopSellers(rows, q.Limit),
	}, nil
}

func (s *Service) ServiceReport(ctx context.Context, q domain.ReportQuery) (domain.EntityReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needTransactions|needServices)
	if err != nil {
		return domain.EntityReport{}, err
	}

	return domain.EntityReport{
		Mode:   domain.ModeServices,
		Period: p,
		Rows:   reporting.ServiceRollup(snap.serviceLines(q.Category)),
	}, nil
}

func (s *Service) TopProfit(ctx context.Context, q domain.ReportQuery) (domain.TopProfitReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needsFor(q.Mode))
	if err != nil {
		return domain.TopProfitReport{}, err
	}

	var products, services []domain.EntityRow
	if q.Mode.IncludesProducts() {
		products = reporting.ProductRollup(snap.productLines(q.Category))
	}
	if q.Mode.IncludesServices() {
		services = reporting.ServiceRollup(snap.serviceLines(q.Category))
	}
	topProducts, topServices := reporting.TopProfitDrivers(products, services, q.Limit)

	report := domain.TopProfitReport{Mode: q.Mode, Period: p, Limit: q.Limit}
	if q.Mode.IncludesProducts() {
		report.Products = topProducts
	}
	if q.Mode.IncludesServices() {
		report.Services = topServices
	}
	return report, nil
}

func (s *Service) LossReport(ctx context.Context, q domain.ReportQuery) (domain.LossReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needInventory)
	if err != nil {
		return domain.LossReport{}, err
	}

	units := reporting.ExpiredUnits(snap.items, p, q.Category)
	return domain.LossReport{
		Period:     p,
		Category:   q.Category,
		Totals:     reporting.LossTotals(units),
		ByCategory: reporting.LossByCategory(units),
		ByItem:     reporting.LossByItem(units),
	}, nil
}

func (s *Service) SlowMovers(ctx context.Context, q domain.ReportQuery) (domain.SlowMoverReport, error) {
	q = NormalizeQuery(q)
	p := s.Period(q)
	snap, err := s.load(ctx, p, needsFor(q.Mode))
	if err != nil {
		return domain.SlowMoverReport{}, err
	}

	products, services, err := s.slowMovers(ctx, snap, q.Mode, q.Category)
	if err != nil {
		return domain.SlowMoverReport{}, err
	}
	return domain.SlowMoverReport{Mode: q.Mode, Period: p, Products: products, Services: services}, nil
}

// ExpiringSoon lists stock expiring from today through days ahead.
func (s *Service) ExpiringSoon(ctx context.Context, days int, category string) (domain.ExpiringReport, error) {
	switch {
	case days <= 0:
		days = DefaultExpiringDays
	case days > MaxExpiringDays:
		days = MaxExpiringDays
	}

	items, err := s.repo.FindInventoryItems(ctx, strings.TrimSpace(category))
	if err != nil {
		return domain.ExpiringReport{}, fmt.Errorf("load inventory: %w", err)
	}
	return reporting.ExpiringSoon(items, s.now(), days, s.loc), nil
}

func (s *Service) Categories(ctx context.Context) (domain.CategoryList, error) {
	var list domain.CategoryList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.repo.DistinctInventoryCategories(gctx)
		if err != nil {
			return fmt.Errorf("load product categories: %w", err)
		}
		list.Products = products
		return nil
	})
	g.Go(func() error {
		services, err := s.repo.FindServiceCategories(gctx)
		if err != nil {
			return fmt.Errorf("load service categories: %w", err)
		}
		list.Services = services
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.CategoryList{}, err
	}
	return list, nil
}

// slowMovers runs the dependent chain per side: catalog scope, sold names in
// the window, the remainder, then one last-sold lookup for the remainder.
func (s *Service) slowMovers(ctx context.Context, snap snapshot, mode domain.Mode, category string) ([]domain.SlowMover, []domain.SlowMover, error) {
	var products, services []domain.SlowMover

	if mode.IncludesProducts() {
		cands := reporting.SlowMoverCandidates(
			reporting.ProductScope(snap.items, category),
			reporting.SoldNames(snap.txs, domain.LineKindProduct, snap.period),
		)
		lastSold, err := s.lastSold(ctx, domain.LineKindProduct, cands, snap.period.End)
		if err != nil {
			return nil, nil, err
		}
		products = reporting.AnnotateSlowMovers(cands, lastSold, snap.period.End)
	}
	if mode.IncludesServices() {
		cands := reporting.SlowMoverCandidates(
			reporting.ServiceScope(snap.services, snap.serviceLookup, category),
			reporting.SoldNames(snap.txs, domain.LineKindService, snap.period),
		)
		lastSold, err := s.lastSold(ctx, domain.LineKindService, cands, snap.period.End)
		if err != nil {
			return nil, nil, err
		}
		services = reporting.AnnotateSlowMovers(cands, lastSold, snap.period.End)
	}
	return products, services, nil
}

func (s *Service) lastSold(ctx context.Context, kind domain.LineKind, cands []reporting.Candidate, until time.Time) (map[string]time.Time, error) {
	if len(cands) == 0 {
		return map[string]time.Time{}, nil
	}
	last, err := s.repo.LastSoldAt(ctx, kind, reporting.CandidateNames(cands), until)
	if err != nil {
		return nil, fmt.Errorf("load last %s sales: %w", kind, err)
	}
	return last, nil
}

func kpiCacheKey(q domain.ReportQuery, p domain.Period) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%d", q.Mode, q.Category, q.Compare, p.Kind, p.Start.UnixMilli(), p.End.UnixMilli())
}
