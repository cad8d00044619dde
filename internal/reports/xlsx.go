// Package reports renders ledgers and dashboards as xlsx workbooks.
package reports

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/analytics"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/hisaab"
)

const (
	SheetStatement = "Statement"
	SheetSummary   = "Summary"
	SheetCategory  = "By Category"
	SheetDaily     = "By Day"
	SheetOverview  = "Overview"
	dateLayout     = "2006-01-02"
)

const headerStyle = `{"font":{"bold":true},"fill":{"type":"pattern","color":["#E0E0E0"],"pattern":1}}`

type sheet struct {
	f    *excelize.File
	name string
	row  int
}

func cell(col, row int) string {
	return fmt.Sprintf("%s%d", excelize.ToAlphaString(col), row)
}

func (s *sheet) header(style int, titles ...string) {
	s.row++
	for i, t := range titles {
		s.f.SetCellValue(s.name, cell(i, s.row), t)
	}
	if style > 0 && len(titles) > 0 {
		s.f.SetCellStyle(s.name, cell(0, s.row), cell(len(titles)-1, s.row), style)
	}
}

func (s *sheet) line(values ...interface{}) {
	s.row++
	for i, v := range values {
		if d, ok := v.(decimal.Decimal); ok {
			v = d.InexactFloat64()
		}
		s.f.SetCellValue(s.name, cell(i, s.row), v)
	}
}

func newWorkbook(first string) (*excelize.File, int, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", first)
	style, err := f.NewStyle(headerStyle)
	if err != nil {
		return nil, 0, errors.Wrap(err, "header style")
	}
	return f, style, nil
}

// WriteStatement writes a counterparty statement, oldest entry first
func WriteStatement(w io.Writer, entityName string, st hisaab.Statement) error {
	f, style, err := newWorkbook(SheetStatement)
	if err != nil {
		return err
	}
	s := &sheet{f: f, name: SheetStatement}
	s.line("Hisaab statement", entityName)
	s.row++
	s.header(style, "Date", "Description", "Cash Debit", "Cash Credit", "Gold Debit (g)", "Gold Credit (g)", "Cash Balance", "Gold Balance (g)")
	for _, r := range st.Rows {
		s.line(r.Date.Format(dateLayout), r.Description, r.CashDebit, r.CashCredit,
			r.GoldDebitGrams, r.GoldCreditGrams, r.CashBalance, r.GoldBalance)
	}
	s.row++
	s.line("Final cash", "", "", "", "", "", st.FinalCash, hisaab.Position(st.FinalCash))
	s.line("Final gold", "", "", "", "", "", st.FinalGold, hisaab.Position(st.FinalGold))
	f.SetColWidth(SheetStatement, "B", "B", 40)
	return errors.Wrap(f.Write(w), "write statement")
}

// WriteOverview lists receivable and payable counterparties
func WriteOverview(w io.Writer, ov hisaab.Overview) error {
	f, style, err := newWorkbook(SheetOverview)
	if err != nil {
		return err
	}
	s := &sheet{f: f, name: SheetOverview}
	s.header(style, "Type", "Name", "Cash", "Cash Position", "Gold (g)", "Gold Position", "Entries")
	for _, list := range [][]hisaab.EntityBalance{ov.Receivable, ov.Payable} {
		for _, b := range list {
			s.line(b.EntityType, b.EntityName, b.Cash, b.CashPosition, b.Gold, b.GoldPosition, b.Entries)
		}
	}
	s.row++
	s.line("Total receivable", "", ov.TotalReceivable, "", ov.GoldReceivable)
	s.line("Total payable", "", ov.TotalPayable, "", ov.GoldPayable)
	return errors.Wrap(f.Write(w), "write overview")
}

// WriteSummary writes the sales dashboard across three sheets
func WriteSummary(w io.Writer, sum analytics.Summary) error {
	f, style, err := newWorkbook(SheetSummary)
	if err != nil {
		return err
	}
	s := &sheet{f: f, name: SheetSummary}
	s.header(style, "Metric", "Value")
	s.line("From", sum.From.Format(dateLayout))
	s.line("To", sum.To.Format(dateLayout))
	s.line("Invoices", sum.InvoiceCount)
	s.line("Items sold", sum.ItemsSold)
	s.line("Revenue", sum.Revenue)
	s.line("Discounts", sum.Discounts)
	s.line("Outstanding", sum.Outstanding)
	s.line("Average invoice", sum.Average)
	s.line("Median invoice", sum.Median)
	s.line("P90 invoice", sum.P90)
	s.line("Gold sold (g)", sum.GoldGramsSold)
	s.row++
	s.header(style, "Top items", "SKU", "Total")
	for _, it := range sum.TopItems {
		s.line(it.Name, it.Sku, it.Total)
	}

	f.NewSheet(SheetCategory)
	c := &sheet{f: f, name: SheetCategory}
	c.header(style, "Category", "Items", "Revenue")
	for _, cr := range sum.ByCategory {
		c.line(cr.Title, cr.Items, cr.Revenue)
	}

	f.NewSheet(SheetDaily)
	d := &sheet{f: f, name: SheetDaily}
	d.header(style, "Day", "Invoices", "Revenue")
	for _, dr := range sum.ByDay {
		d.line(dr.Day, dr.Invoices, dr.Revenue)
	}
	return errors.Wrap(f.Write(w), "write summary")
}
