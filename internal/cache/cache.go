package cache

import (
	"context"
	"time"

	"vetreport/backend/internal/domain"
)

// ReportCache stores finished KPI responses keyed by their fully resolved
// window, so a hit never crosses a day boundary.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.KPIReport, bool, error)
	Set(ctx context.Context, key string, value *domain.KPIReport, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.KPIReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.KPIReport, _ time.Duration) error {
	return nil
}
