// Package analytics summarises sales over a date range and values the stock on hand.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const topItems = 5

type CategoryRevenue struct {
	CategoryID int64           `json:"category_id,string"`
	Title      string          `json:"title"`
	Items      int             `json:"items"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type DayRevenue struct {
	Day      string          `json:"day"`
	Invoices int             `json:"invoices"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type TopItem struct {
	Sku       string          `json:"sku"`
	Name      string          `json:"name"`
	InvoiceID int64           `json:"invoice_id,string"`
	Total     decimal.Decimal `json:"total"`
}

// Summary is the sales dashboard for a period
type Summary struct {
	From          time.Time         `json:"from"`
	To            time.Time         `json:"to"`
	Revenue       decimal.Decimal   `json:"revenue"`
	Discounts     decimal.Decimal   `json:"discounts"`
	Outstanding   decimal.Decimal   `json:"outstanding"`
	InvoiceCount  int               `json:"invoice_count"`
	ItemsSold     int               `json:"items_sold"`
	Average       float64           `json:"average_invoice"`
	Median        float64           `json:"median_invoice"`
	P90           float64           `json:"p90_invoice"`
	GoldGramsSold decimal.Decimal   `json:"gold_grams_sold"`
	ByCategory    []CategoryRevenue `json:"by_category"`
	ByDay         []DayRevenue      `json:"by_day"`
	TopItems      []TopItem         `json:"top_items"`
}

// Summarize computes the dashboard from loaded invoices. categories maps id to title.
func Summarize(from, to time.Time, invoices []domain.Invoice, categories map[int64]string) Summary {
	sum := Summary{
		From:          from,
		To:            to,
		Revenue:       decimal.Zero,
		Discounts:     decimal.Zero,
		Outstanding:   decimal.Zero,
		GoldGramsSold: decimal.Zero,
		ByCategory:    []CategoryRevenue{},
		ByDay:         []DayRevenue{},
		TopItems:      []TopItem{},
	}
	totals := make(stats.Float64Data, 0, len(invoices))
	byCat := map[int64]*CategoryRevenue{}
	byDay := map[string]*DayRevenue{}
	var lines []TopItem

	for _, inv := range invoices {
		grand := common.Decimal(inv.GrandTotal)
		sum.Revenue = sum.Revenue.Add(grand)
		sum.Discounts = sum.Discounts.Add(common.Decimal(inv.DiscountAmount))
		if inv.BalanceDue > 0 {
			sum.Outstanding = sum.Outstanding.Add(common.Decimal(inv.BalanceDue))
		}
		sum.InvoiceCount++
		totals = append(totals, inv.GrandTotal)

		day := inv.CreatedAt.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &DayRevenue{Day: day, Revenue: decimal.Zero}
			byDay[day] = d
		}
		d.Invoices++
		d.Revenue = d.Revenue.Add(grand)

		for _, it := range inv.Items {
			sum.ItemsSold++
			total := common.Decimal(it.ItemTotal)
			if it.MetalType == domain.MetalGold {
				sum.GoldGramsSold = sum.GoldGramsSold.Add(common.Decimal(it.MetalWeightG))
			}
			c, ok := byCat[it.CategoryID]
			if !ok {
				c = &CategoryRevenue{CategoryID: it.CategoryID, Title: categories[it.CategoryID], Revenue: decimal.Zero}
				if c.Title == "" {
					c.Title = "Uncategorised"
				}
				byCat[it.CategoryID] = c
			}
			c.Items++
			c.Revenue = c.Revenue.Add(total)
			lines = append(lines, TopItem{Sku: it.Sku, Name: it.Name, InvoiceID: inv.ID, Total: total})
		}
	}

	if len(totals) > 0 {
		sum.Average, _ = stats.Mean(totals)
		sum.Median, _ = stats.Median(totals)
		sum.P90, _ = stats.Percentile(totals, 90)
	}

	for _, c := range byCat {
		sum.ByCategory = append(sum.ByCategory, *c)
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		if !sum.ByCategory[i].Revenue.Equal(sum.ByCategory[j].Revenue) {
			return sum.ByCategory[i].Revenue.GreaterThan(sum.ByCategory[j].Revenue)
		}
		return sum.ByCategory[i].Title < sum.ByCategory[j].Title
	})
	for _, d := range byDay {
		sum.ByDay = append(sum.ByDay, *d)
	}
	sort.Slice(sum.ByDay, func(i, j int) bool { return sum.ByDay[i].Day < sum.ByDay[j].Day })

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Total.GreaterThan(lines[j].Total) })
	if len(lines) > topItems {
		lines = lines[:topItems]
	}
	sum.TopItems = append(sum.TopItems, lines...)
	return sum
}

// KaratStock totals gold weight held per karat
type KaratStock struct {
	Karat string          `json:"karat"`
	Grams decimal.Decimal `json:"grams"`
	Items int             `json:"items"`
}

// Valuation is the value of in-stock products at current rates
type Valuation struct {
	Items      int               `json:"items"`
	TotalValue decimal.Decimal   `json:"total_value"`
	MetalValue decimal.Decimal   `json:"metal_value"`
	GoldGrams  decimal.Decimal   `json:"gold_grams"`
	ByKarat    []KaratStock      `json:"by_karat"`
	ByCategory []CategoryRevenue `json:"by_category"`
}

// Valuate prices every product with calc and groups the result
func Valuate(products []domain.Product, calc *pricing.Calculator, categories map[int64]string) Valuation {
	v := Valuation{
		TotalValue: decimal.Zero,
		MetalValue: decimal.Zero,
		GoldGrams:  decimal.Zero,
		ByKarat:    []KaratStock{},
		ByCategory: []CategoryRevenue{},
	}
	karats := map[string]*KaratStock{}
	cats := map[int64]*CategoryRevenue{}
	for _, p := range products {
		b := calc.PriceProduct(p.ProductFields)
		v.Items++
		v.TotalValue = v.TotalValue.Add(b.Total)
		v.MetalValue = v.MetalValue.Add(b.MetalCost)
		if p.MetalType == domain.MetalGold {
			g := common.Decimal(p.MetalWeightG)
			v.GoldGrams = v.GoldGrams.Add(g)
			k, ok := karats[p.Karat]
			if !ok {
				k = &KaratStock{Karat: p.Karat, Grams: decimal.Zero}
				karats[p.Karat] = k
			}
			k.Grams = k.Grams.Add(g)
			k.Items++
		}
		c, ok := cats[p.CategoryID]
		if !ok {
			c = &CategoryRevenue{CategoryID: p.CategoryID, Title: common.IfEmptyStr(categories[p.CategoryID], "Uncategorised"), Revenue: decimal.Zero}
			cats[p.CategoryID] = c
		}
		c.Items++
		c.Revenue = c.Revenue.Add(b.Total)
	}
	for _, k := range domain.Karats {
		if ks, ok := karats[k]; ok {
			v.ByKarat = append(v.ByKarat, *ks)
		}
	}
	for _, c := range cats {
		v.ByCategory = append(v.ByCategory, *c)
	}
	sort.Slice(v.ByCategory, func(i, j int) bool { return v.ByCategory[i].Title < v.ByCategory[j].Title })
	return v
}

// Service loads data for the dashboards
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) categories(ctx context.Context) (map[int64]string, error) {
	var cats []domain.Category
	if err := s.db.WithContext(ctx).Find(&cats).Error; err != nil {
		return nil, errors.Wrap(err, "load categories")
	}
	m := make(map[int64]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.Title
	}
	return m, nil
}

// Summary summarises invoices created in [from, to)
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	var invoices []domain.Invoice
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at").Find(&invoices).Error; err != nil {
		return nil, errors.Wrap(err, "load invoices")
	}
	cats, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}
	sum := Summarize(from, to, invoices, cats)
	return &sum, nil
}

// Inventory values the current stock with calc
func (s *Service) Inventory(ctx context.Context, calc *pricing.Calculator) (*Valuation, error) {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	cats, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}
	v := Valuate(products, calc, cats)
	return &v, nil
}
