package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/analytics"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/hisaab"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteStatement(t *testing.T) {
	st := hisaab.Aggregate([]domain.HisaabEntry{
		{ID: 2, Date: day(2), Description: "Payment", CashCredit: 40},
		{ID: 1, Date: day(1), Description: "Invoice", CashDebit: 100, GoldDebitGrams: 2.5},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, "Ali", st))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Ali", f.GetCellValue(SheetStatement, "B1"))
	assert.Equal(t, "Date", f.GetCellValue(SheetStatement, "A3"))
	assert.Equal(t, "2024-01-01", f.GetCellValue(SheetStatement, "A4"))
	assert.Equal(t, "Invoice", f.GetCellValue(SheetStatement, "B4"))
	assert.Equal(t, "60", f.GetCellValue(SheetStatement, "G5"))
	assert.Equal(t, "receivable", f.GetCellValue(SheetStatement, "H7"))
}

func TestWriteSummary(t *testing.T) {
	sum := analytics.Summary{
		From:         day(1),
		To:           day(31),
		InvoiceCount: 2,
		Revenue:      decimal.NewFromInt(1500),
		ByCategory:   []analytics.CategoryRevenue{{Title: "Rings", Items: 2, Revenue: decimal.NewFromInt(1500)}},
		ByDay:        []analytics.DayRevenue{{Day: "2024-01-03", Invoices: 2, Revenue: decimal.NewFromInt(1500)}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sum))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "2", f.GetCellValue(SheetSummary, "B4"))
	assert.Equal(t, "1500", f.GetCellValue(SheetSummary, "B6"))
	assert.Equal(t, "Rings", f.GetCellValue(SheetCategory, "A2"))
	assert.Equal(t, "2024-01-03", f.GetCellValue(SheetDaily, "A2"))
}

func TestWriteOverview(t *testing.T) {
	ov := hisaab.BuildOverview([]domain.HisaabEntry{
		{ID: 1, EntityID: 7, EntityType: domain.EntityKarigar, EntityName: "Usman", Date: day(1), CashCredit: 300},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteOverview(&buf, ov))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Usman", f.GetCellValue(SheetOverview, "B2"))
	assert.Equal(t, "payable", f.GetCellValue(SheetOverview, "D2"))
}
