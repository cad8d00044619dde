package hisaab

import (
	"sort"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// EntityBalance is the final position of one counterparty
type EntityBalance struct {
	EntityID     int64           `json:"entity_id,string"`
	EntityType   string          `json:"entity_type"`
	EntityName   string          `json:"entity_name"`
	Cash         decimal.Decimal `json:"cash"`
	Gold         decimal.Decimal `json:"gold"`
	CashPosition string          `json:"cash_position"`
	GoldPosition string          `json:"gold_position"`
	Entries      int             `json:"entries"`
}

// Overview totals every counterparty with a non-zero balance
type Overview struct {
	Receivable      []EntityBalance `json:"receivable"`
	Payable         []EntityBalance `json:"payable"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	GoldReceivable  decimal.Decimal `json:"gold_receivable"`
	GoldPayable     decimal.Decimal `json:"gold_payable"`
}

type entityKey struct {
	typ string
	id  int64
}

// Balances computes the final balance per counterparty
func Balances(entries []domain.HisaabEntry) []EntityBalance {
	groups := map[entityKey][]domain.HisaabEntry{}
	var order []entityKey
	for _, e := range entries {
		k := entityKey{e.EntityType, e.EntityID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	out := make([]EntityBalance, 0, len(order))
	for _, k := range order {
		st := Aggregate(groups[k])
		name := ""
		if n := len(st.Rows); n > 0 {
			name = st.Rows[n-1].EntityName
		}
		out = append(out, EntityBalance{
			EntityID:     k.id,
			EntityType:   k.typ,
			EntityName:   name,
			Cash:         st.FinalCash,
			Gold:         st.FinalGold,
			CashPosition: Position(st.FinalCash),
			GoldPosition: Position(st.FinalGold),
			Entries:      len(st.Rows),
		})
	}
	return out
}

// BuildOverview splits non-zero balances into receivable and payable lists.
// An entity whose cash is settled is classified by its gold balance.
func BuildOverview(entries []domain.HisaabEntry) Overview {
	ov := Overview{
		Receivable:      []EntityBalance{},
		Payable:         []EntityBalance{},
		TotalReceivable: decimal.Zero,
		TotalPayable:    decimal.Zero,
		GoldReceivable:  decimal.Zero,
		GoldPayable:     decimal.Zero,
	}
	for _, b := range Balances(entries) {
		switch b.Cash.Sign() {
		case 1:
			ov.TotalReceivable = ov.TotalReceivable.Add(b.Cash)
		case -1:
			ov.TotalPayable = ov.TotalPayable.Add(b.Cash.Neg())
		}
		switch b.Gold.Sign() {
		case 1:
			ov.GoldReceivable = ov.GoldReceivable.Add(b.Gold)
		case -1:
			ov.GoldPayable = ov.GoldPayable.Add(b.Gold.Neg())
		}

		sign := b.Cash.Sign()
		if sign == 0 {
			sign = b.Gold.Sign()
		}
		switch sign {
		case 1:
			ov.Receivable = append(ov.Receivable, b)
		case -1:
			ov.Payable = append(ov.Payable, b)
		}
	}
	sort.SliceStable(ov.Receivable, func(i, j int) bool { return ov.Receivable[i].Cash.GreaterThan(ov.Receivable[j].Cash) })
	sort.SliceStable(ov.Payable, func(i, j int) bool { return ov.Payable[i].Cash.LessThan(ov.Payable[j].Cash) })
	return ov
}
