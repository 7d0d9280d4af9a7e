package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/store"
)

func at(day int, hour int) time.Time {
	return time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
}

func TestFindTransactionsInRangeMatchesPaidOrCreated(t *testing.T) {
	s := New()
	paidInside := at(10, 9)
	paidOutside := at(1, 9)
	s.AddTransaction(domain.Transaction{ID: "paid-in", PaidAt: &paidInside, CreatedAt: at(2, 9)})
	s.AddTransaction(domain.Transaction{ID: "created-in", PaidAt: &paidOutside, CreatedAt: at(11, 9)})
	s.AddTransaction(domain.Transaction{ID: "unpaid-in", CreatedAt: at(12, 9)})
	s.AddTransaction(domain.Transaction{ID: "outside", CreatedAt: at(20, 9)})

	txs, err := s.FindTransactionsInRange(context.Background(), at(10, 0), at(12, 23))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].ID != "created-in" {
		t.Fatalf("expected ordering by occurred-at, first=%s", txs[0].ID)
	}

	if _, err := s.FindTransactionsInRange(context.Background(), at(12, 0), at(10, 0)); !errors.Is(err, store.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for inverted range, got %v", err)
	}
}

func TestLastSoldAtTakesLatestBeforeCutoff(t *testing.T) {
	s := New()
	early, late, future := at(1, 9), at(5, 9), at(30, 9)
	s.AddTransaction(domain.Transaction{PaidAt: &early, CreatedAt: early, Products: []domain.LineItem{{Name: "Dewormer"}}})
	s.AddTransaction(domain.Transaction{PaidAt: &late, CreatedAt: late, Products: []domain.LineItem{{Name: " Dewormer "}}})
	s.AddTransaction(domain.Transaction{PaidAt: &future, CreatedAt: future, Products: []domain.LineItem{{Name: "Dewormer"}}})
	s.AddTransaction(domain.Transaction{PaidAt: &late, CreatedAt: late, Services: []domain.LineItem{{Name: "Dewormer"}}})

	last, err := s.LastSoldAt(context.Background(), domain.LineKindProduct, []string{"Dewormer", "Catnip"}, at(10, 0))
	if err != nil {
		t.Fatalf("last sold: %v", err)
	}
	if got := last["Dewormer"]; !got.Equal(late) {
		t.Fatalf("expected %s, got %s", late, got)
	}
	if _, ok := last["Catnip"]; ok {
		t.Fatalf("never-sold names must be absent")
	}
}

func TestCatalogQueries(t *testing.T) {
	s := New()
	s.AddInventoryItem(domain.InventoryItem{Name: "Kibble", Category: "Food", Price: decimal.NewFromInt(60)})
	s.AddInventoryItem(domain.InventoryItem{Name: "Amoxicillin", Category: "Medicine", Price: decimal.NewFromInt(10)})
	s.AddInventoryItem(domain.InventoryItem{Name: "Mystery", Category: " "})
	surgery := s.AddServiceCategory(domain.ServiceCategory{Name: "Surgery"})
	s.AddService(domain.ServiceCatalogEntry{Name: "Spay", CategoryID: surgery.ID})
	s.AddService(domain.ServiceCatalogEntry{Name: "Checkup", CategoryID: "other"})

	ctx := context.Background()
	categories, _ := s.DistinctInventoryCategories(ctx)
	if len(categories) != 2 || categories[0] != "Food" || categories[1] != "Medicine" {
		t.Fatalf("unexpected categories %v", categories)
	}

	food, _ := s.FindInventoryItems(ctx, "Food")
	if len(food) != 1 || food[0].Name != "Kibble" {
		t.Fatalf("unexpected food items %+v", food)
	}
	all, _ := s.FindInventoryItems(ctx, "")
	if len(all) != 3 || all[0].Name != "Amoxicillin" {
		t.Fatalf("expected all items sorted by name, got %+v", all)
	}

	surgeries, _ := s.FindServiceCatalog(ctx, surgery.ID)
	if len(surgeries) != 1 || surgeries[0].Name != "Spay" {
		t.Fatalf("unexpected surgery services %+v", surgeries)
	}
}

func TestSeededStoreHasSlowMoversAndUsers(t *testing.T) {
	s := newSeededAt(time.Date(2024, time.June, 30, 15, 0, 0, 0, time.UTC))
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 3 {
		t.Fatalf("expected three seeded users, got %d (%v)", len(users), err)
	}
	for _, u := range users {
		if u.Password == "" || u.Password == "admin123" {
			t.Fatalf("seed passwords must be hashed")
		}
	}

	last, _ := s.LastSoldAt(ctx, domain.LineKindProduct, []string{"Catnip Mouse", "Ear Cleaner 120ml"}, time.Date(2024, time.June, 30, 23, 0, 0, 0, time.UTC))
	if _, ok := last["Catnip Mouse"]; ok {
		t.Fatalf("Catnip Mouse should never sell in the demo data")
	}
	if _, ok := last["Ear Cleaner 120ml"]; !ok {
		t.Fatalf("Ear Cleaner should have one historic sale")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, domain.UserAccount{Username: "Admin", Password: "x", Role: domain.RoleAdmin, Active: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "admin", "hashed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "ghost", "hashed"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if users[0].Password != "hashed" {
		t.Fatalf("password not updated")
	}
}
