package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetreport/backend/internal/domain"
)

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, "decimal mismatch: want "+want+", got "+got.String(), msgAndArgs...)
	}
}

func TestProductLinesFallbacks(t *testing.T) {
	f := newClinicFixture()
	lines := f.productLines("")
	require.Len(t, lines, 5)

	byTx := map[string]SoldLine{}
	for _, l := range lines {
		byTx[l.TransactionID+"/"+l.Name] = l
	}

	catalogPriced := byTx["tx-1/Amoxicillin"]
	assertDec(t, "30", catalogPriced.Revenue)
	assertDec(t, "18", catalogPriced.Cost)
	assertDec(t, "12", catalogPriced.Markup)

	defaultQty := byTx["tx-1/Flea Collar"]
	assert.EqualValues(t, 1, defaultQty.Units)
	assertDec(t, "22", defaultQty.Revenue)
	assertDec(t, "3", defaultQty.Markup, "stored markup wins over price minus base")

	lineTotal := byTx["tx-2/Dog Food"]
	assertDec(t, "95", lineTotal.Revenue)
	assertDec(t, "80", lineTotal.Cost)

	unmatched := byTx["tx-2/Mystery Bone"]
	assert.False(t, unmatched.Matched)
	assertDec(t, "7", unmatched.Revenue)
	assert.True(t, unmatched.Cost.IsZero())
	assert.True(t, unmatched.Markup.IsZero())

	createdInRange := byTx["tx-3/Amoxicillin"]
	assert.True(t, createdInRange.Matched, "names are trimmed before the join")
	assertDec(t, "4", createdInRange.Markup)
}

func TestServiceLinesFallbacks(t *testing.T) {
	f := newClinicFixture()
	totals := ServiceTotals(f.serviceLines(""))
	assertDec(t, "210", totals.Revenue)
	assert.EqualValues(t, 4, totals.Count)

	for _, l := range f.serviceLines("") {
		if l.Name == "Vaccination" {
			assert.True(t, l.Revenue.IsZero(), "services never fall back to the catalog price")
		}
		assert.True(t, l.Profit().Equal(l.Revenue))
	}
}

func TestCategoryFilter(t *testing.T) {
	f := newClinicFixture()

	medicine := ProductTotals(f.productLines("Medicine"))
	assertDec(t, "40", medicine.Revenue)
	assert.EqualValues(t, 4, medicine.Units)

	assert.Empty(t, f.productLines("Uncategorized"), "uncategorized lines never match a filter")

	byID := ServiceTotals(f.serviceLines("svc-cat-surgery"))
	byName := ServiceTotals(f.serviceLines("Surgery"))
	assertDec(t, "180", byID.Revenue)
	assert.True(t, byID.Revenue.Equal(byName.Revenue))
}

func TestGroupByFoldsAndSortsKeys(t *testing.T) {
	type tally struct{ n int }
	words := []string{"pear", "apple", "plum", "", "avocado"}
	buckets, keys := GroupBy(words, func(w string) (string, bool) {
		if w == "" {
			return "", false
		}
		return w[:1], true
	}, func(acc *tally, _ string) { acc.n++ })

	assert.Equal(t, []string{"a", "p"}, keys)
	assert.Equal(t, 2, buckets["a"].n)
	assert.Equal(t, 2, buckets["p"].n)
}

func TestLossAccounting(t *testing.T) {
	f := newClinicFixture()
	units := ExpiredUnits(f.items, f.period, "")
	require.Len(t, units, 3)

	loss := LossTotals(units)
	assertDec(t, "40", loss.Full)
	assertDec(t, "27", loss.Base)
	assertDec(t, "11", loss.Markup)
	assert.EqualValues(t, 3, loss.Units)

	byItem := LossByItem(units)
	require.Len(t, byItem, 2)
	assert.Equal(t, "Amoxicillin", byItem[0].Key, "ties on full loss sort by name")
	assert.EqualValues(t, 2, byItem[0].Units)

	byCategory := LossByCategory(units)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "Accessories", byCategory[0].Key)

	assert.Empty(t, ExpiredUnits(f.items, f.period, "Food"))
}

func TestBuildKPIByMode(t *testing.T) {
	f := newClinicFixture()
	products := ProductTotals(f.productLines(""))
	services := ServiceTotals(f.serviceLines(""))
	loss := LossTotals(ExpiredUnits(f.items, f.period, ""))

	both := BuildKPI(domain.ModeBoth, &products, &services, loss)
	assertDec(t, "374", both.TotalRevenue)
	assertDec(t, "249", both.ProfitBeforeLoss)
	assertDec(t, "209", both.ProfitAfterLoss)
	assert.True(t, both.ProfitAfterLoss.Equal(both.ProfitBeforeLoss.Sub(both.Loss.Full)))

	onlyServices := BuildKPI(domain.ModeServices, &products, &services, loss)
	assert.Nil(t, onlyServices.Products)
	assert.True(t, onlyServices.Loss.Full.IsZero(), "services carry no loss")
	assertDec(t, "210", onlyServices.ProfitAfterLoss)

	onlyProducts := BuildKPI(domain.ModeProducts, &products, nil, loss)
	assert.Nil(t, onlyProducts.Services)
	assertDec(t, "164", onlyProducts.TotalRevenue)
	assertDec(t, "-1", onlyProducts.ProfitAfterLoss)

	empty := BuildKPI(domain.ModeBoth, nil, nil, domain.Loss{})
	require.NotNil(t, empty.Products)
	assert.True(t, empty.TotalRevenue.IsZero())
}

func TestBuildKPIIsDeterministic(t *testing.T) {
	f := newClinicFixture()
	run := func() domain.KPI {
		products := ProductTotals(f.productLines(""))
		services := ServiceTotals(f.serviceLines(""))
		return BuildKPI(domain.ModeBoth, &products, &services, LossTotals(ExpiredUnits(f.items, f.period, "")))
	}
	assert.Equal(t, run(), run())
}

func TestChangePercent(t *testing.T) {
	assertDec(t, "50", ChangePercent(dec("150"), dec("100")))
	assertDec(t, "150", ChangePercent(dec("50"), dec("-100")))
	assertDec(t, "-66.67", ChangePercent(dec("1"), dec("3")))
	assert.True(t, ChangePercent(dec("10"), dec("0")).IsZero())

	cmp := Compare(domain.KPI{TotalRevenue: dec("120"), ProfitAfterLoss: dec("30")},
		domain.KPI{TotalRevenue: dec("100"), ProfitAfterLoss: dec("40")}, domain.Period{Kind: RangeDay})
	assertDec(t, "20", cmp.RevenueChangePercent)
	assertDec(t, "-25", cmp.ProfitChangePercent)
}

func TestProductCategoryRollupRoundTrip(t *testing.T) {
	f := newClinicFixture()
	lines := f.productLines("")
	rows := ProductCategoryRollup(lines, LossByCategory(ExpiredUnits(f.items, f.period, "")))

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Category)
	}
	assert.Equal(t, []string{"Food", UncategorizedLabel, "Medicine", "Accessories"}, names)

	assertDec(t, "-4", rows[2].Profit)
	assertDec(t, "40", rows[2].Sales)
	assertDec(t, "-17", rows[3].Profit)

	total := SumCategoryProfit(rows)
	assert.True(t, total.Revenue.Equal(ProductTotals(lines).Revenue), "category revenue sums to overall revenue")
	assertDec(t, "40", total.FullLoss)
}

func TestProductCategoryRollupKeepsLossOnlyCategories(t *testing.T) {
	f := newClinicFixture()
	rows := ProductCategoryRollup(nil, LossByCategory(ExpiredUnits(f.items, f.period, "")))
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Revenue.IsZero())
		assert.True(t, r.Profit.Equal(r.FullLoss.Neg()))
	}
}

func TestServiceCategoryRollup(t *testing.T) {
	f := newClinicFixture()
	rows := ServiceCategoryRollup(f.serviceLines(""))
	require.Len(t, rows, 2)
	assert.Equal(t, "Surgery", rows[0].Category)
	assert.Equal(t, "Consultation", rows[1].Category)
	assert.EqualValues(t, 3, rows[1].Count)
	assertDec(t, "210", SumServiceCategories(rows).Revenue)
}

func TestRevenueByCategory(t *testing.T) {
	f := newClinicFixture()
	rows := RevenueByCategory(f.productLines(""), f.serviceLines(""))
	require.NotEmpty(t, rows)
	assert.Equal(t, "Surgery", rows[0].Category)
	assert.Equal(t, domain.LineKindService, rows[0].Kind)
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Revenue.GreaterThan(rows[i-1].Revenue))
	}
}

func TestTopSellersAndProfitDrivers(t *testing.T) {
	f := newClinicFixture()
	products := ProductRollup(f.productLines(""))
	services := ServiceRollup(f.serviceLines(""))

	sellers := TopSellers(products, 10)
	require.Len(t, sellers, 4)
	assert.Equal(t, []string{"Amoxicillin", "Dog Food", "Flea Collar", "Mystery Bone"},
		[]string{sellers[0].Name, sellers[1].Name, sellers[2].Name, sellers[3].Name})

	topProducts, topServices := TopProfitDrivers(products, services, 2)
	require.Len(t, topProducts, 2)
	require.Len(t, topServices, 2)
	assert.Equal(t, "Dog Food", topProducts[0].Name)
	assert.Equal(t, "Amoxicillin", topProducts[1].Name)
	assert.Equal(t, "Spay", topServices[0].Name)
	assert.Equal(t, "Checkup", topServices[1].Name)

	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, MaxLimit, ClampLimit(500))
	assert.Equal(t, 7, ClampLimit(7))
}

func TestSlowMovers(t *testing.T) {
	f := newClinicFixture()

	productCands := SlowMoverCandidates(ProductScope(f.items, ""), SoldNames(f.txs, domain.LineKindProduct, f.period))
	assert.ElementsMatch(t, []string{"Vitamin Paste", "Catnip Toy"}, CandidateNames(productCands))

	movers := AnnotateSlowMovers(productCands, map[string]time.Time{"Catnip Toy": noon(2024, 2, 20)}, f.period.End)
	require.Len(t, movers, 2)
	assert.Equal(t, "Vitamin Paste", movers[0].Name)
	assert.True(t, movers[0].NeverSold)
	assert.Nil(t, movers[0].DaysSince)
	assert.Equal(t, "Catnip Toy", movers[1].Name)
	require.NotNil(t, movers[1].DaysSince)
	assert.Equal(t, 24, *movers[1].DaysSince)

	lookup := NewServiceLookup(f.services, f.categories)
	serviceCands := SlowMoverCandidates(ServiceScope(f.services, lookup, ""), SoldNames(f.txs, domain.LineKindService, f.period))
	require.Len(t, serviceCands, 1)
	assert.Equal(t, "Grooming", serviceCands[0].Name)
	assert.Equal(t, UncategorizedLabel, serviceCands[0].Category)

	assert.Empty(t, SlowMoverCandidates(ProductScope(f.items, "Food"), SoldNames(f.txs, domain.LineKindProduct, f.period)))
}

func TestSlowMoversOrderStaleFirst(t *testing.T) {
	cands := []Candidate{{Name: "b"}, {Name: "a"}, {Name: "c"}, {Name: "d"}}
	end := noon(2024, 3, 15)
	movers := AnnotateSlowMovers(cands, map[string]time.Time{
		"a": noon(2024, 3, 1),
		"c": noon(2024, 1, 1),
	}, end)
	got := []string{movers[0].Name, movers[1].Name, movers[2].Name, movers[3].Name}
	assert.Equal(t, []string{"b", "d", "c", "a"}, got)
	assert.Equal(t, 14, *movers[3].DaysSince)
}

func TestExpiringSoon(t *testing.T) {
	f := newClinicFixture()
	report := ExpiringSoon(f.items, noon(2024, 3, 9), 30, testLoc)
	require.Len(t, report.Entries, 4)
	assert.Equal(t, "Amoxicillin", report.Entries[0].Name)
	assert.Equal(t, 1, report.Entries[0].DaysLeft)
	assert.Equal(t, 23, report.Entries[3].DaysLeft)
	assertDec(t, "50", report.Value)

	assert.Len(t, ExpiringSoon(f.items, noon(2024, 3, 9), 2, testLoc).Entries, 2)
}
