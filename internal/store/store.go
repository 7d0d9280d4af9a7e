package store

import (
	"context"
	"errors"
	"time"

	"vetreport/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Repository is the read side the reporting engine needs. Transactions and the
// catalog are owned by other services; only user passwords are ever written.
type Repository interface {
	// FindTransactionsInRange returns transactions whose paid-at or created-at
	// falls inside [from, to].
	FindTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)
	// LastSoldAt returns, per name, the latest occurrence of a line of kind at
	// or before until. Names that never sold are absent from the map.
	LastSoldAt(ctx context.Context, kind domain.LineKind, names []string, until time.Time) (map[string]time.Time, error)
	FindInventoryItems(ctx context.Context, category string) ([]domain.InventoryItem, error)
	DistinctInventoryCategories(ctx context.Context) ([]string, error)
	FindServiceCatalog(ctx context.Context, categoryID string) ([]domain.ServiceCatalogEntry, error)
	FindServiceCategories(ctx context.Context) ([]domain.ServiceCategory, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
