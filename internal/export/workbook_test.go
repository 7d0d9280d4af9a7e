package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vetreport/backend/internal/domain"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleBundle(mode domain.Mode) domain.ExportBundle {
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, jakarta)
	end := time.Date(2024, 3, 15, 23, 59, 59, int(999*time.Millisecond), jakarta)
	days := 44
	lastSold := time.Date(2024, 1, 31, 12, 0, 0, 0, jakarta)

	meds := domain.CategoryProfitRow{
		Category: "Medicine", Units: 4, Revenue: d("100"), Cost: d("70"),
		SoldMarkup: d("30"), Sales: d("100"), FullLoss: d("40"), Profit: d("-10"),
	}
	total := meds
	total.Category = "Total"

	checkups := domain.ServiceCategoryRow{Category: "Consultation", Count: 3, Revenue: d("150"), Profit: d("150")}
	serviceTotal := checkups
	serviceTotal.Category = "Total"

	b := domain.ExportBundle{
		Mode:   mode,
		Period: domain.Period{Kind: "week", Start: start, End: end},
	}
	if mode.IncludesProducts() {
		b.ProductCategories = []domain.CategoryProfitRow{meds}
		b.ProductTotals = total
		b.ProductSections = []domain.CategorySection[domain.CategoryProfitRow]{{
			Category: "Medicine",
			Totals:   meds,
			Rows: []domain.EntityRow{
				{Kind: domain.LineKindProduct, Name: "Amoxicillin", Category: "Medicine", Units: 4, Revenue: d("100"), Cost: d("70"), Profit: d("30")},
			},
		}}
		b.LossByCategory = []domain.LossRow{{Key: "Medicine", Category: "Medicine", Units: 2, FullLoss: d("40"), BaseLoss: d("28"), MarkupLoss: d("12")}}
		b.LossTotals = domain.Loss{Full: d("40"), Base: d("28"), Markup: d("12"), Units: 2}
		b.ProductSlowMovers = []domain.SlowMover{
			{Kind: domain.LineKindProduct, Name: "Catnip Mouse", Category: "Toys", NeverSold: true},
			{Kind: domain.LineKindProduct, Name: "Ear Cleaner", Category: "Grooming", LastSoldAt: &lastSold, DaysSince: &days},
		}
	}
	if mode.IncludesServices() {
		b.ServiceCategories = []domain.ServiceCategoryRow{checkups}
		b.ServiceTotals = serviceTotal
		b.ServiceSections = []domain.CategorySection[domain.ServiceCategoryRow]{{
			Category: "Consultation",
			Totals:   checkups,
			Rows: []domain.EntityRow{
				{Kind: domain.LineKindService, Name: "Checkup", Category: "Consultation", Units: 3, Revenue: d("150"), Profit: d("150")},
			},
		}}
	}
	if mode == domain.ModeBoth {
		b.Overview = &domain.OverviewTotals{Sales: d("250"), Profit: d("140"), Loss: d("40")}
	}
	return b
}

func render(t *testing.T, b domain.ExportBundle) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	n, err := New(b, Options{Locale: "en-US", Location: jakarta}).WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func rows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	out, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return out
}

func findRow(rows [][]string, first string) []string {
	for _, r := range rows {
		if len(r) > 0 && r[0] == first {
			return r
		}
	}
	return nil
}

func TestWorkbookSheetsFollowMode(t *testing.T) {
	cases := []struct {
		mode domain.Mode
		want []string
	}{
		{domain.ModeBoth, []string{SheetOverview, SheetProducts, SheetExpiredLoss, SheetProductSlowMovers, SheetServices, SheetServiceSlowMovers}},
		{domain.ModeProducts, []string{SheetProducts, SheetExpiredLoss, SheetProductSlowMovers}},
		{domain.ModeServices, []string{SheetServices, SheetServiceSlowMovers}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			f := render(t, sampleBundle(tc.mode))
			assert.Equal(t, tc.want, f.GetSheetList())
		})
	}
}

func TestWorkbookOverviewAndHeading(t *testing.T) {
	f := render(t, sampleBundle(domain.ModeBoth))
	got := rows(t, f, SheetOverview)

	assert.Equal(t, SheetOverview, got[0][0])
	assert.Equal(t, []string{"Period", "2024-03-09 to 2024-03-15"}, got[1])
	assert.Equal(t, []string{"Category", "All categories"}, got[2])
	assert.Equal(t, []string{"Sales", "250"}, findRow(got, "Sales"))
	assert.Equal(t, []string{"Profit", "140"}, findRow(got, "Profit"))
	assert.Equal(t, []string{"Expired Loss", "40"}, findRow(got, "Expired Loss"))
}

func TestWorkbookProductTables(t *testing.T) {
	f := render(t, sampleBundle(domain.ModeProducts))

	products := rows(t, f, SheetProducts)
	assert.Equal(t, []string{"Medicine", "4", "100", "70", "30", "100", "40", "-10"}, findRow(products, "Medicine"))
	assert.Equal(t, []string{"Total", "4", "100", "70", "30", "100", "40", "-10"}, findRow(products, "Total"))
	assert.Equal(t, []string{"Amoxicillin", "4", "100", "70", "30"}, findRow(products, "Amoxicillin"))
	assert.Equal(t, []string{"Subtotal", "4", "100", "70", "30"}, findRow(products, "Subtotal"))

	loss := rows(t, f, SheetExpiredLoss)
	assert.Equal(t, []string{"Medicine", "2", "40", "28", "12"}, findRow(loss, "Medicine"))
	assert.Equal(t, []string{"Total", "2", "40", "28", "12"}, findRow(loss, "Total"))

	slow := rows(t, f, SheetProductSlowMovers)
	assert.Equal(t, []string{"Catnip Mouse", "Toys", "Never"}, findRow(slow, "Catnip Mouse"))
	assert.Equal(t, []string{"Ear Cleaner", "Grooming", "2024-01-31", "44"}, findRow(slow, "Ear Cleaner"))
}

func TestWorkbookServiceTables(t *testing.T) {
	b := sampleBundle(domain.ModeServices)
	b.Category = "Consultation"
	f := render(t, b)

	services := rows(t, f, SheetServices)
	assert.Equal(t, []string{"Category", "Consultation"}, services[2])
	assert.Equal(t, []string{"Total", "3", "150", "150"}, findRow(services, "Total"))
	assert.Equal(t, []string{"Checkup", "3", "150", "150"}, findRow(services, "Checkup"))
}

func TestWorkbookMoneyCellsUseLocaleFormat(t *testing.T) {
	f := render(t, sampleBundle(domain.ModeProducts))

	// Row 5 is the category table header; row 6 is Medicine.
	styleID, err := f.GetCellStyle(SheetProducts, "C6")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, FormatsFor("en-US").Currency, *style.CustomNumFmt)
}

func TestFormatsFor(t *testing.T) {
	us := FormatsFor("en-US")
	assert.Equal(t, "$", us.Symbol)
	assert.Equal(t, `"$"#,##0.00;[Red]-"$"#,##0.00`, us.Currency)
	assert.Equal(t, "#,##0;[Red]-#,##0", us.Integer)

	assert.Equal(t, us, FormatsFor("not a locale"))
	assert.NotEqual(t, us.Symbol, FormatsFor("id-ID").Symbol)
}

func TestFilename(t *testing.T) {
	b := sampleBundle(domain.ModeBoth)
	assert.Equal(t, "sales-report_both_all_2024-03-09_2024-03-15.xlsx", Filename(b, jakarta))

	b.Mode = domain.ModeProducts
	b.Category = "Pet Food / Dry"
	assert.Equal(t, "sales-report_products_pet-food-dry_2024-03-09_2024-03-15.xlsx", Filename(b, jakarta))
}
