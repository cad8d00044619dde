// Package hisaab folds ledger entries into running and final cash and gold balances.
//
// A positive balance is owed to the shop (receivable); a negative balance is owed by the
// shop (payable). Cash and gold are tracked independently.
package hisaab

import (
	"sort"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
	"github.com/shopspring/decimal"
)

const (
	Receivable = "receivable"
	Payable    = "payable"
	Settled    = "settled"
)

// Row is one entry with the balances after applying it
type Row struct {
	domain.HisaabEntry
	CashBalance decimal.Decimal `json:"cash_balance"`
	GoldBalance decimal.Decimal `json:"gold_balance"`
}

// Statement is an aggregated ledger in chronological order
type Statement struct {
	Rows      []Row           `json:"rows"`
	FinalCash decimal.Decimal `json:"final_cash"`
	FinalGold decimal.Decimal `json:"final_gold"`
}

// Fold accumulates entries in the order given
func Fold(entries []domain.HisaabEntry) Statement {
	st := Statement{Rows: make([]Row, 0, len(entries)), FinalCash: decimal.Zero, FinalGold: decimal.Zero}
	cash, gold := decimal.Zero, decimal.Zero
	for _, e := range entries {
		cash = cash.Add(amount(e.CashDebit)).Sub(amount(e.CashCredit))
		gold = gold.Add(amount(e.GoldDebitGrams)).Sub(amount(e.GoldCreditGrams))
		st.Rows = append(st.Rows, Row{HisaabEntry: e, CashBalance: cash, GoldBalance: gold})
	}
	st.FinalCash = cash
	st.FinalGold = gold
	return st
}

// Aggregate sorts a copy of entries oldest first (date, then id) and folds them.
// The caller's slice is left untouched.
func Aggregate(entries []domain.HisaabEntry) Statement {
	sorted := make([]domain.HisaabEntry, len(entries))
	copy(sorted, entries)
	SortOldestFirst(sorted)
	return Fold(sorted)
}

// SortOldestFirst orders entries chronologically in place
func SortOldestFirst(entries []domain.HisaabEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})
}

// NewestFirst returns the rows in reverse chronological order for display.
// Balances are those computed oldest first.
func (s Statement) NewestFirst() []Row {
	out := make([]Row, len(s.Rows))
	for i, r := range s.Rows {
		out[len(s.Rows)-1-i] = r
	}
	return out
}

// Position classifies a balance
func Position(balance decimal.Decimal) string {
	switch balance.Sign() {
	case 1:
		return Receivable
	case -1:
		return Payable
	}
	return Settled
}

func amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(common.ToFloat(v))
}
