package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"vetreport/backend/internal/domain"
)

const (
	SheetOverview          = "Overview"
	SheetProducts          = "Products"
	SheetExpiredLoss       = "Expired Loss"
	SheetProductSlowMovers = "Product Slow Movers"
	SheetServices          = "Services"
	SheetServiceSlowMovers = "Service Slow Movers"

	dateLayout = "2006-01-02"
)

type Options struct {
	Locale   string
	Location *time.Location
}

// Workbook renders an export bundle as an .xlsx file. Sheets are written
// through excelize stream writers.
type Workbook struct {
	bundle  domain.ExportBundle
	opts    Options
	formats NumberFormats
}

func New(bundle domain.ExportBundle, opts Options) *Workbook {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Workbook{bundle: bundle, opts: opts, formats: FormatsFor(opts.Locale)}
}

// Filename is sales-report_<mode>_<category|all>_<start>_<end>.xlsx.
func Filename(bundle domain.ExportBundle, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	category := slug(bundle.Category)
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("sales-report_%s_%s_%s_%s.xlsx",
		bundle.Mode, category,
		bundle.Period.Start.In(loc).Format(dateLayout),
		bundle.Period.End.In(loc).Format(dateLayout))
}

// WriteTo builds the complete file first and only then writes it to w.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	f, err := wb.build()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteTo(w)
}

func (wb *Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f, wb.formats)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}

	type sheetFunc struct {
		name  string
		write func(*sheet) error
	}
	b := wb.bundle
	sheets := make([]sheetFunc, 0, 6)
	if b.Overview != nil {
		sheets = append(sheets, sheetFunc{SheetOverview, wb.writeOverview})
	}
	if b.Mode.IncludesProducts() {
		sheets = append(sheets,
			sheetFunc{SheetProducts, wb.writeProducts},
			sheetFunc{SheetExpiredLoss, wb.writeLoss},
			sheetFunc{SheetProductSlowMovers, func(s *sheet) error { return wb.writeSlowMovers(s, "Product", b.ProductSlowMovers) }},
		)
	}
	if b.Mode.IncludesServices() {
		sheets = append(sheets,
			sheetFunc{SheetServices, wb.writeServices},
			sheetFunc{SheetServiceSlowMovers, func(s *sheet) error { return wb.writeSlowMovers(s, "Service", b.ServiceSlowMovers) }},
		)
	}

	for i, def := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", def.name); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(def.name); err != nil {
			_ = f.Close()
			return nil, err
		}

		sw, err := f.NewStreamWriter(def.name)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open sheet %s: %w", def.name, err)
		}
		if err := sw.SetColWidth(1, 1, 32); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := sw.SetColWidth(2, 8, 16); err != nil {
			_ = f.Close()
			return nil, err
		}
		s := &sheet{sw: sw, st: st}
		if err := wb.writeHeading(s, def.name); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := def.write(s); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sheet %s: %w", def.name, err)
		}
		if err := sw.Flush(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("flush sheet %s: %w", def.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (wb *Workbook) writeHeading(s *sheet, title string) error {
	b := wb.bundle
	category := b.Category
	if category == "" {
		category = "All categories"
	}
	period := fmt.Sprintf("%s to %s", b.Period.Start.In(wb.opts.Location).Format(dateLayout), b.Period.End.In(wb.opts.Location).Format(dateLayout))
	if err := s.add(s.st.cell(s.st.title, title)); err != nil {
		return err
	}
	if err := s.add("Period", period); err != nil {
		return err
	}
	if err := s.add("Category", category); err != nil {
		return err
	}
	s.skip()
	return nil
}

func (wb *Workbook) writeOverview(s *sheet) error {
	o := wb.bundle.Overview
	if err := s.header("Metric", "Amount"); err != nil {
		return err
	}
	if err := s.add("Sales", s.st.money(o.Sales)); err != nil {
		return err
	}
	if err := s.add("Profit", s.st.money(o.Profit)); err != nil {
		return err
	}
	return s.add("Expired Loss", s.st.money(o.Loss))
}

func (wb *Workbook) writeProducts(s *sheet) error {
	b := wb.bundle
	if err := s.header("Category", "Units", "Revenue", "Cost", "Sold Markup", "Sales", "Expired Loss", "Profit"); err != nil {
		return err
	}
	for _, row := range b.ProductCategories {
		if err := s.add(productCategoryCells(s.st, row, false)...); err != nil {
			return err
		}
	}
	if err := s.add(productCategoryCells(s.st, b.ProductTotals, true)...); err != nil {
		return err
	}

	for _, section := range b.ProductSections {
		s.skip()
		if err := s.add(s.st.cell(s.st.section, section.Category)); err != nil {
			return err
		}
		if err := s.header("Product", "Units", "Revenue", "Cost", "Profit"); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := s.add(row.Name, s.st.integer(row.Units), s.st.money(row.Revenue), s.st.money(row.Cost), s.st.money(row.Profit)); err != nil {
				return err
			}
		}
		// Entity rows carry no loss, so the subtotal profit is the sold markup.
		t := section.Totals
		if err := s.add(s.st.cell(s.st.bold, "Subtotal"), s.st.totalInteger(t.Units), s.st.totalMoney(t.Revenue), s.st.totalMoney(t.Cost), s.st.totalMoney(t.SoldMarkup)); err != nil {
			return err
		}
	}
	return nil
}

func productCategoryCells(st styles, row domain.CategoryProfitRow, total bool) []any {
	money, integer, label := st.money, st.integer, any(row.Category)
	if total {
		money, integer, label = st.totalMoney, st.totalInteger, st.cell(st.bold, row.Category)
	}
	return []any{
		label,
		integer(row.Units),
		money(row.Revenue),
		money(row.Cost),
		money(row.SoldMarkup),
		money(row.Sales),
		money(row.FullLoss),
		money(row.Profit),
	}
}

func (wb *Workbook) writeLoss(s *sheet) error {
	b := wb.bundle
	if err := s.header("Category", "Units", "Full Loss", "Base Loss", "Markup Loss"); err != nil {
		return err
	}
	for _, row := range b.LossByCategory {
		if err := s.add(row.Key, s.st.integer(row.Units), s.st.money(row.FullLoss), s.st.money(row.BaseLoss), s.st.money(row.MarkupLoss)); err != nil {
			return err
		}
	}
	t := b.LossTotals
	return s.add(s.st.cell(s.st.bold, "Total"), s.st.totalInteger(t.Units), s.st.totalMoney(t.Full), s.st.totalMoney(t.Base), s.st.totalMoney(t.Markup))
}

func (wb *Workbook) writeServices(s *sheet) error {
	b := wb.bundle
	if err := s.header("Category", "Count", "Revenue", "Profit"); err != nil {
		return err
	}
	for _, row := range b.ServiceCategories {
		if err := s.add(row.Category, s.st.integer(row.Count), s.st.money(row.Revenue), s.st.money(row.Profit)); err != nil {
			return err
		}
	}
	t := b.ServiceTotals
	if err := s.add(s.st.cell(s.st.bold, t.Category), s.st.totalInteger(t.Count), s.st.totalMoney(t.Revenue), s.st.totalMoney(t.Profit)); err != nil {
		return err
	}

	for _, section := range b.ServiceSections {
		s.skip()
		if err := s.add(s.st.cell(s.st.section, section.Category)); err != nil {
			return err
		}
		if err := s.header("Service", "Count", "Revenue", "Profit"); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := s.add(row.Name, s.st.integer(row.Units), s.st.money(row.Revenue), s.st.money(row.Profit)); err != nil {
				return err
			}
		}
		t := section.Totals
		if err := s.add(s.st.cell(s.st.bold, "Subtotal"), s.st.totalInteger(t.Count), s.st.totalMoney(t.Revenue), s.st.totalMoney(t.Profit)); err != nil {
			return err
		}
	}
	return nil
}

func (wb *Workbook) writeSlowMovers(s *sheet, label string, movers []domain.SlowMover) error {
	if err := s.header(label, "Category", "Last Sold", "Days Since"); err != nil {
		return err
	}
	for _, m := range movers {
		lastSold, days := any("Never"), any(nil)
		if m.LastSoldAt != nil {
			lastSold = m.LastSoldAt.In(wb.opts.Location).Format(dateLayout)
		}
		if m.DaysSince != nil {
			days = s.st.integer(int64(*m.DaysSince))
		}
		if err := s.add(m.Name, m.Category, lastSold, days); err != nil {
			return err
		}
	}
	return nil
}

// sheet tracks the next free row of a stream writer.
type sheet struct {
	sw  *excelize.StreamWriter
	st  styles
	row int
}

func (s *sheet) add(values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.sw.SetRow(cell, values)
}

func (s *sheet) header(labels ...string) error {
	values := make([]any, 0, len(labels))
	for _, label := range labels {
		values = append(values, s.st.cell(s.st.header, label))
	}
	return s.add(values...)
}

func (s *sheet) skip() {
	s.row++
}

type styles struct {
	title, section, header, bold int
	moneyID, integerID           int
	totalMoneyID, totalIntegerID int
}

func newStyles(f *excelize.File, formats NumberFormats) (styles, error) {
	var st styles
	var err error
	currencyFmt, integerFmt := formats.Currency, formats.Integer

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.section, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5597"}},
		}},
		{&st.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.moneyID, &excelize.Style{CustomNumFmt: &currencyFmt}},
		{&st.integerID, &excelize.Style{CustomNumFmt: &integerFmt}},
		{&st.totalMoneyID, &excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &currencyFmt}},
		{&st.totalIntegerID, &excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &integerFmt}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return styles{}, err
		}
	}
	return st, nil
}

func (st styles) cell(style int, value any) excelize.Cell {
	return excelize.Cell{StyleID: style, Value: value}
}

func (st styles) money(d decimal.Decimal) any {
	return st.cell(st.moneyID, d.InexactFloat64())
}

func (st styles) totalMoney(d decimal.Decimal) any {
	return st.cell(st.totalMoneyID, d.InexactFloat64())
}

func (st styles) integer(n int64) any {
	return st.cell(st.integerID, n)
}

func (st styles) totalInteger(n int64) any {
	return st.cell(st.totalIntegerID, n)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
