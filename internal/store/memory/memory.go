package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/store"
	"vetreport/backend/internal/xid"
)

type Store struct {
	mu                sync.RWMutex
	transactionsByID  map[string]domain.Transaction
	itemsByID         map[string]domain.InventoryItem
	serviceCategories map[string]domain.ServiceCategory
	servicesByID      map[string]domain.ServiceCatalogEntry
	usersByUsername   map[string]domain.UserAccount
}

// seedUsers builds the dev/demo accounts. Passwords come from
// SEED_ADMIN_PASSWORD, SEED_DOCTOR_PASSWORD and SEED_HR_PASSWORD and fall back
// to well-known defaults with a warning.
func seedUsers(now time.Time) map[string]domain.UserAccount {
	accounts := []struct {
		username string
		envKey   string
		fallback string
		role     string
	}{
		{"admin", "SEED_ADMIN_PASSWORD", "admin123", domain.RoleAdmin},
		{"doctor", "SEED_DOCTOR_PASSWORD", "doctor123", domain.RoleDoctor},
		{"hr", "SEED_HR_PASSWORD", "hr123", domain.RoleHR},
	}

	users := map[string]domain.UserAccount{}
	warned := false
	for _, a := range accounts {
		if os.Getenv(a.envKey) == "" && !warned {
			log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_DOCTOR_PASSWORD and SEED_HR_PASSWORD to override.")
			warned = true
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(envOr(a.envKey, a.fallback)), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", a.username, err)
		}
		users[a.username] = domain.UserAccount{
			Username:  a.username,
			Password:  string(hash),
			Role:      a.role,
			Active:    true,
			CreatedAt: now.UTC(),
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty store without any accounts.
func New() *Store {
	return &Store{
		transactionsByID:  make(map[string]domain.Transaction),
		itemsByID:         make(map[string]domain.InventoryItem),
		serviceCategories: make(map[string]domain.ServiceCategory),
		servicesByID:      make(map[string]domain.ServiceCatalogEntry),
		usersByUsername:   make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a demo clinic with roughly three months of sales ending
// today, a few expired or soon-to-expire batches and dev accounts.
func NewSeeded() *Store {
	return newSeededAt(time.Now())
}

func newSeededAt(now time.Time) *Store {
	s := New()
	s.usersByUsername = seedUsers(now)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	daysAgo := func(d int) time.Time { return today.AddDate(0, 0, -d).Add(10 * time.Hour) }
	money := decimal.RequireFromString

	items := []domain.InventoryItem{
		{ID: "inv-amox", Name: "Amoxicillin 250mg", Category: "Medicine", Price: money("12.50"), BasePrice: money("7.00"), Quantity: 140,
			ExpirationDates: []time.Time{daysAgo(3), daysAgo(12), daysAgo(-20)}},
		{ID: "inv-melox", Name: "Meloxicam Oral Suspension", Category: "Medicine", Price: money("28.00"), BasePrice: money("18.00"), Quantity: 35,
			ExpirationDates: []time.Time{daysAgo(-9)}},
		{ID: "inv-rabies", Name: "Rabies Vaccine Dose", Category: "Vaccines", Price: money("35.00"), BasePrice: money("20.00"), Markup: decimal.NewNullDecimal(money("15.00")), Quantity: 60,
			ExpirationDates: []time.Time{daysAgo(1)}},
		{ID: "inv-dhpp", Name: "DHPP Vaccine Dose", Category: "Vaccines", Price: money("30.00"), BasePrice: money("17.50"), Quantity: 48},
		{ID: "inv-flea", Name: "Flea & Tick Chewable", Category: "Parasite Control", Price: money("22.00"), BasePrice: money("13.00"), Quantity: 90},
		{ID: "inv-deworm", Name: "Dewormer Tablet", Category: "Parasite Control", Price: money("9.50"), BasePrice: money("4.00"), Quantity: 200,
			ExpirationDates: []time.Time{daysAgo(40), daysAgo(-45)}},
		{ID: "inv-kibble", Name: "Grain-Free Kibble 5kg", Category: "Food", Price: money("64.00"), BasePrice: money("48.00"), Quantity: 25},
		{ID: "inv-renal", Name: "Renal Support Wet Food", Category: "Food", Price: money("4.20"), BasePrice: money("2.90"), Quantity: 300,
			ExpirationDates: []time.Time{daysAgo(6), daysAgo(6), daysAgo(-3)}},
		{ID: "inv-ecollar", Name: "Elizabethan Collar", Category: "Accessories", Price: money("15.00"), BasePrice: money("6.00"), Quantity: 30},
		{ID: "inv-catnip", Name: "Catnip Mouse", Category: "Accessories", Price: money("3.50"), BasePrice: money("1.20"), Quantity: 75},
		{ID: "inv-ear", Name: "Ear Cleaner 120ml", Category: "Hygiene", Price: money("14.00"), BasePrice: money("8.50"), Quantity: 18},
	}
	for _, item := range items {
		s.itemsByID[item.ID] = item
	}

	for _, c := range []domain.ServiceCategory{
		{ID: "svc-consult", Name: "Consultation"},
		{ID: "svc-vaccination", Name: "Vaccination"},
		{ID: "svc-surgery", Name: "Surgery"},
		{ID: "svc-grooming", Name: "Grooming"},
		{ID: "svc-diagnostics", Name: "Diagnostics"},
	} {
		s.serviceCategories[c.ID] = c
	}

	services := []domain.ServiceCatalogEntry{
		{ID: "srv-checkup", Name: "General Checkup", CategoryID: "svc-consult", Price: money("45.00")},
		{ID: "srv-followup", Name: "Follow-up Visit", CategoryID: "svc-consult", Price: money("25.00")},
		{ID: "srv-rabies", Name: "Rabies Shot", CategoryID: "svc-vaccination", Price: money("40.00")},
		{ID: "srv-spay", Name: "Spay/Neuter", CategoryID: "svc-surgery", Price: money("220.00")},
		{ID: "srv-dental", Name: "Dental Cleaning", CategoryID: "svc-surgery", Price: money("160.00")},
		{ID: "srv-bath", Name: "Bath & Trim", CategoryID: "svc-grooming", Price: money("35.00")},
		{ID: "srv-nails", Name: "Nail Clipping", CategoryID: "svc-grooming", Price: money("12.00")},
		{ID: "srv-blood", Name: "Blood Panel", CategoryID: "svc-diagnostics", Price: money("85.00")},
		{ID: "srv-xray", Name: "X-Ray", CategoryID: "svc-diagnostics", Price: money("120.00")},
	}
	for _, entry := range services {
		s.servicesByID[entry.ID] = entry
	}

	// Catnip Mouse and X-Ray never sell; Ear Cleaner sold once long ago.
	sellingItems := items[:9]
	sellingServices := services[:8]
	for d := 0; d < 90; d++ {
		for n := 0; n <= d%3; n++ {
			at := daysAgo(d).Add(time.Duration(n*3) * time.Hour)
			item := sellingItems[(d+n*4)%len(sellingItems)]
			entry := sellingServices[(d*2+n)%len(sellingServices)]
			qty := 1 + (d+n)%3

			tx := domain.Transaction{
				ID:        fmt.Sprintf("tx-seed-%03d-%d", d, n),
				PaidAt:    &at,
				CreatedAt: at,
				PayerName: "Walk-in",
				StaffID:   "doctor",
				Products:  []domain.LineItem{{Name: item.Name, Quantity: qty}},
				Services:  []domain.LineItem{{Name: entry.Name, Quantity: 1, UnitPrice: decimal.NewNullDecimal(entry.Price)}},
			}
			tx.Amount = item.Price.Mul(decimal.NewFromInt(int64(qty))).Add(entry.Price)
			s.transactionsByID[tx.ID] = tx
		}
	}
	earSale := daysAgo(75)
	s.transactionsByID["tx-seed-ear"] = domain.Transaction{
		ID: "tx-seed-ear", PaidAt: &earSale, CreatedAt: earSale, PayerName: "Walk-in", StaffID: "doctor",
		Amount:   money("14.00"),
		Products: []domain.LineItem{{Name: "Ear Cleaner 120ml", Quantity: 1, UnitPrice: decimal.NewNullDecimal(money("14.00"))}},
	}

	return s
}

func (s *Store) FindTransactionsInRange(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	if to.Before(from) {
		return nil, store.ErrInvalidQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactionsByID {
		if !tx.InRange(from, to) {
			continue
		}
		out = append(out, cloneTransaction(tx))
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := a.OccurredAt().Compare(b.OccurredAt()); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) LastSoldAt(_ context.Context, kind domain.LineKind, names []string, until time.Time) (map[string]time.Time, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = struct{}{}
		}
	}
	last := make(map[string]time.Time, len(wanted))
	if len(wanted) == 0 {
		return last, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactionsByID {
		at := tx.OccurredAt()
		if at.After(until) {
			continue
		}
		for _, line := range tx.Lines(kind) {
			name := strings.TrimSpace(line.Name)
			if _, ok := wanted[name]; !ok {
				continue
			}
			if prev, seen := last[name]; !seen || at.After(prev) {
				last[name] = at
			}
		}
	}
	return last, nil
}

func (s *Store) FindInventoryItems(_ context.Context, category string) ([]domain.InventoryItem, error) {
	category = strings.TrimSpace(category)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.InventoryItem, 0, len(s.itemsByID))
	for _, item := range s.itemsByID {
		if category != "" && strings.TrimSpace(item.Category) != category {
			continue
		}
		dup := item
		dup.ExpirationDates = slices.Clone(item.ExpirationDates)
		out = append(out, dup)
	}
	slices.SortFunc(out, func(a, b domain.InventoryItem) int {
		if c := cmpString(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) DistinctInventoryCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, item := range s.itemsByID {
		category := strings.TrimSpace(item.Category)
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) FindServiceCatalog(_ context.Context, categoryID string) ([]domain.ServiceCatalogEntry, error) {
	categoryID = strings.TrimSpace(categoryID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ServiceCatalogEntry, 0, len(s.servicesByID))
	for _, entry := range s.servicesByID {
		if categoryID != "" && entry.CategoryID != categoryID {
			continue
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b domain.ServiceCatalogEntry) int {
		if c := cmpString(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) FindServiceCategories(_ context.Context) ([]domain.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ServiceCategory, 0, len(s.serviceCategories))
	for _, c := range s.serviceCategories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.ServiceCategory) int {
		return cmpString(a.Name, b.Name)
	})
	return out, nil
}

// AddTransaction records a sale. It exists for fixtures and demo data; the
// reporting API never writes transactions.
func (s *Store) AddTransaction(tx domain.Transaction) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx = cloneTransaction(tx)
	s.transactionsByID[tx.ID] = tx
	return tx
}

func (s *Store) AddInventoryItem(item domain.InventoryItem) domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = xid.New("inv")
	}
	item.ExpirationDates = slices.Clone(item.ExpirationDates)
	s.itemsByID[item.ID] = item
	return item
}

func (s *Store) AddServiceCategory(category domain.ServiceCategory) domain.ServiceCategory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = xid.New("svc")
	}
	s.serviceCategories[category.ID] = category
	return category
}

func (s *Store) AddService(entry domain.ServiceCatalogEntry) domain.ServiceCatalogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("srv")
	}
	s.servicesByID[entry.ID] = entry
	return entry
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidQuery
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("user %s already exists: %w", user.Username, store.ErrInvalidQuery)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidQuery
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneTransaction(src domain.Transaction) domain.Transaction {
	dup := src
	if src.PaidAt != nil {
		paid := *src.PaidAt
		dup.PaidAt = &paid
	}
	dup.Products = slices.Clone(src.Products)
	dup.Services = slices.Clone(src.Services)
	return dup
}
