package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the reporting tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) FindTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	if to.Before(from) {
		return nil, store.ErrInvalidQuery
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paid_at, created_at, COALESCE(payer_id, ''), payer_name, staff_id, amount
		FROM transactions
		WHERE (paid_at BETWEEN $1 AND $2) OR (created_at BETWEEN $1 AND $2)
		ORDER BY COALESCE(paid_at, created_at) ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, 128)
	index := make(map[string]int, 128)
	for rows.Next() {
		var (
			tx     domain.Transaction
			paidAt sql.NullTime
		)
		if err := rows.Scan(&tx.ID, &paidAt, &tx.CreatedAt, &tx.PayerID, &tx.PayerName, &tx.StaffID, &tx.Amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if paidAt.Valid {
			paid := paidAt.Time
			tx.PaidAt = &paid
		}
		index[tx.ID] = len(txs)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return txs, nil
	}

	if err := s.attachLines(ctx, txs, index); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) attachLines(ctx context.Context, txs []domain.Transaction, index map[string]int) error {
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, kind, name, quantity, unit_price, line_total
		FROM transaction_lines
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, kind, position
	`, ids)
	if err != nil {
		return fmt.Errorf("query transaction lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			txID string
			kind string
			line domain.LineItem
		)
		if err := rows.Scan(&txID, &kind, &line.Name, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return fmt.Errorf("scan transaction line: %w", err)
		}
		i, ok := index[txID]
		if !ok {
			continue
		}
		if domain.LineKind(kind) == domain.LineKindService {
			txs[i].Services = append(txs[i].Services, line)
		} else {
			txs[i].Products = append(txs[i].Products, line)
		}
	}
	return rows.Err()
}

func (s *Store) LastSoldAt(ctx context.Context, kind domain.LineKind, names []string, until time.Time) (map[string]time.Time, error) {
	result := make(map[string]time.Time, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT btrim(l.name), MAX(COALESCE(t.paid_at, t.created_at))
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE l.kind = $1
		  AND btrim(l.name) = ANY($2)
		  AND COALESCE(t.paid_at, t.created_at) <= $3
		GROUP BY btrim(l.name)
	`, string(kind), cleaned, until)
	if err != nil {
		return nil, fmt.Errorf("query last sold: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name string
			at   time.Time
		)
		if err := rows.Scan(&name, &at); err != nil {
			return nil, fmt.Errorf("scan last sold: %w", err)
		}
		result[name] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) FindInventoryItems(ctx context.Context, category string) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(category, ''), price, base_price, markup, quantity
		FROM inventory_items
		WHERE $1 = '' OR btrim(category) = $1
		ORDER BY name ASC, id ASC
	`, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 64)
	index := make(map[string]int, 64)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.BasePrice, &item.Markup, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	expRows, err := s.db.QueryContext(ctx, `
		SELECT item_id, expires_at
		FROM inventory_expirations
		WHERE item_id = ANY($1)
		ORDER BY expires_at ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query expirations: %w", err)
	}
	defer expRows.Close()

	for expRows.Next() {
		var (
			itemID    string
			expiresAt time.Time
		)
		if err := expRows.Scan(&itemID, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan expiration: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].ExpirationDates = append(items[i].ExpirationDates, expiresAt)
		}
	}
	if err := expRows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DistinctInventoryCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT btrim(category)
		FROM inventory_items
		WHERE category IS NOT NULL AND btrim(category) <> ''
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) FindServiceCatalog(ctx context.Context, categoryID string) ([]domain.ServiceCatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(category_id, ''), price
		FROM services
		WHERE $1 = '' OR category_id = $1
		ORDER BY name ASC, id ASC
	`, strings.TrimSpace(categoryID))
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ServiceCatalogEntry, 0, 32)
	for rows.Next() {
		var entry domain.ServiceCatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.CategoryID, &entry.Price); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) FindServiceCategories(ctx context.Context) ([]domain.ServiceCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM service_categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query service categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.ServiceCategory, 0, 16)
	for rows.Next() {
		var c domain.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM user_accounts
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidQuery
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE user_accounts
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
