package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, testLoc)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nullDec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func ptr[T any](v T) *T { return &v }

type clinicFixture struct {
	period     domain.Period
	items      []domain.InventoryItem
	services   []domain.ServiceCatalogEntry
	categories []domain.ServiceCategory
	txs        []domain.Transaction
}

// newClinicFixture is a small clinic whose report week is 2024-03-09..15.
func newClinicFixture() clinicFixture {
	return clinicFixture{
		period: domain.Period{Kind: RangeWeek, Start: day(2024, 3, 9), End: dayEnd(2024, 3, 15)},
		items: []domain.InventoryItem{
			{
				ID: "inv-amox", Name: "Amoxicillin", Category: "Medicine",
				Price: dec("10"), BasePrice: dec("6"), Quantity: 40,
				ExpirationDates: []time.Time{noon(2024, 3, 10), noon(2024, 3, 12), noon(2024, 4, 1)},
			},
			{
				ID: "inv-collar", Name: "Flea Collar", Category: "Accessories",
				Price: dec("20"), BasePrice: dec("15"), Markup: nullDec("3"), Quantity: 12,
				ExpirationDates: []time.Time{noon(2024, 3, 11)},
			},
			{ID: "inv-food", Name: "Dog Food", Category: "Food", Price: dec("50"), BasePrice: dec("40"), Quantity: 8},
			{ID: "inv-paste", Name: "Vitamin Paste", Price: dec("8"), BasePrice: dec("10"), Quantity: 3},
			{ID: "inv-toy", Name: "Catnip Toy", Category: "Accessories", Price: dec("5"), BasePrice: dec("2"), Quantity: 20},
		},
		categories: []domain.ServiceCategory{
			{ID: "svc-cat-consult", Name: "Consultation"},
			{ID: "svc-cat-surgery", Name: "Surgery"},
		},
		services: []domain.ServiceCatalogEntry{
			{ID: "svc-checkup", Name: "Checkup", CategoryID: "svc-cat-consult", Price: dec("30")},
			{ID: "svc-vaccine", Name: "Vaccination", CategoryID: "svc-cat-consult", Price: dec("25")},
			{ID: "svc-spay", Name: "Spay", CategoryID: "svc-cat-surgery", Price: dec("200")},
			{ID: "svc-groom", Name: "Grooming", CategoryID: "svc-cat-missing", Price: dec("40")},
		},
		txs: []domain.Transaction{
			{
				ID: "tx-1", PaidAt: ptr(noon(2024, 3, 10)), CreatedAt: noon(2024, 3, 10),
				Products: []domain.LineItem{
					{Name: "Amoxicillin", Quantity: 3},
					{Name: "Flea Collar", Quantity: 0, UnitPrice: nullDec("22")},
				},
				Services: []domain.LineItem{{Name: "Checkup", Quantity: 1, UnitPrice: nullDec("30")}},
			},
			{
				ID: "tx-2", CreatedAt: noon(2024, 3, 12),
				Products: []domain.LineItem{
					{Name: "Dog Food", Quantity: 2, LineTotal: nullDec("95")},
					{Name: "Mystery Bone", Quantity: 1, UnitPrice: nullDec("7")},
				},
				Services: []domain.LineItem{
					{Name: "Spay", Quantity: 1, LineTotal: nullDec("180")},
					{Name: "Vaccination", Quantity: 2},
				},
			},
			{
				ID: "tx-3", PaidAt: ptr(noon(2024, 3, 1)), CreatedAt: noon(2024, 3, 13),
				Products: []domain.LineItem{{Name: " Amoxicillin ", Quantity: 1, UnitPrice: nullDec("10")}},
			},
			{
				ID: "tx-4", PaidAt: ptr(noon(2024, 2, 20)), CreatedAt: noon(2024, 2, 19),
				Products: []domain.LineItem{{Name: "Catnip Toy", Quantity: 1, UnitPrice: nullDec("5")}},
				Services: []domain.LineItem{{Name: "Grooming", Quantity: 1, UnitPrice: nullDec("40")}},
			},
		},
	}
}

func (f clinicFixture) productLines(category string) []SoldLine {
	return ProductLines(f.txs, NewProductLookup(f.items), f.period, category)
}

func (f clinicFixture) serviceLines(category string) []SoldLine {
	return ServiceLines(f.txs, NewServiceLookup(f.services, f.categories), f.period, category)
}
