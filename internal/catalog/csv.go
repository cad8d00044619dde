package catalog

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

// ProductRow is the CSV shape of a product. Numbers are kept as text and coerced on import.
type ProductRow struct {
	Sku               string `csv:"sku"`
	Name              string `csv:"name"`
	Category          string `csv:"category"`
	MetalType         string `csv:"metal_type"`
	Karat             string `csv:"karat"`
	MetalWeightG      string `csv:"metal_weight_g"`
	WastagePercentage string `csv:"wastage_percentage"`
	MakingCharges     string `csv:"making_charges"`
	HasDiamonds       string `csv:"has_diamonds"`
	DiamondCharges    string `csv:"diamond_charges"`
	StoneCharges      string `csv:"stone_charges"`
	MiscCharges       string `csv:"misc_charges"`
	IsCustomPrice     string `csv:"is_custom_price"`
	CustomPrice       string `csv:"custom_price"`
	StoneDetails      string `csv:"stone_details"`
	DiamondDetails    string `csv:"diamond_details"`
	ImageURL          string `csv:"image_url"`
}

// RowError reports one rejected CSV line (1 based, header excluded)
type RowError struct {
	Row     int    `json:"row"`
	Sku     string `json:"sku"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// skipBOM drops a leading UTF-8 byte order mark written by spreadsheet exports
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}

// Export writes every in-stock product as CSV
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Order("sku").Find(&products).Error; err != nil {
		return errors.Wrap(err, "load products")
	}
	prefixes, err := s.categoryPrefixes(ctx)
	if err != nil {
		return err
	}
	rows := make([]*ProductRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, &ProductRow{
			Sku:               p.Sku,
			Name:              p.Name,
			Category:          prefixes[p.CategoryID],
			MetalType:         p.MetalType,
			Karat:             p.Karat,
			MetalWeightG:      cast.ToString(p.MetalWeightG),
			WastagePercentage: cast.ToString(p.WastagePercentage),
			MakingCharges:     cast.ToString(p.MakingCharges),
			HasDiamonds:       cast.ToString(p.HasDiamonds),
			DiamondCharges:    cast.ToString(p.DiamondCharges),
			StoneCharges:      cast.ToString(p.StoneCharges),
			MiscCharges:       cast.ToString(p.MiscCharges),
			IsCustomPrice:     cast.ToString(p.IsCustomPrice),
			CustomPrice:       cast.ToString(p.CustomPrice),
			StoneDetails:      p.StoneDetails,
			DiamondDetails:    p.DiamondDetails,
			ImageURL:          p.ImageURL,
		})
	}
	return gocsv.Marshal(&rows, w)
}

func (s *Service) categoryPrefixes(ctx context.Context) (map[int64]string, error) {
	var cats []domain.Category
	if err := s.db.WithContext(ctx).Find(&cats).Error; err != nil {
		return nil, errors.Wrap(err, "load categories")
	}
	m := make(map[int64]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.Prefix
	}
	return m, nil
}

// Import upserts products by SKU. Bad rows are reported and skipped.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var rows []*ProductRow
	if err := gocsv.Unmarshal(skipBOM(r), &rows); err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	var cats []domain.Category
	if err := s.db.WithContext(ctx).Find(&cats).Error; err != nil {
		return nil, errors.Wrap(err, "load categories")
	}
	byPrefix := map[string]domain.Category{}
	for _, c := range cats {
		byPrefix[strings.ToUpper(c.Prefix)] = c
	}

	res := &ImportResult{Errors: []RowError{}}
	for i, row := range rows {
		fields := row.fields()
		cat, hasCat := byPrefix[strings.ToUpper(strings.TrimSpace(row.Category))]
		if hasCat {
			fields.CategoryID = cat.ID
		}
		if fields.Sku == "" && !hasCat {
			res.Errors = append(res.Errors, RowError{Row: i + 1, Message: "sku or a known category is required"})
			continue
		}

		existing, err := s.FindBySku(ctx, fields.Sku)
		switch {
		case fields.Sku != "" && err == nil:
			if _, err := s.Update(ctx, existing.ID, fields); err != nil {
				res.Errors = append(res.Errors, RowError{Row: i + 1, Sku: fields.Sku, Message: err.Error()})
				continue
			}
			res.Updated++
		case fields.Sku == "" || errors.Is(err, ErrProductNotFound):
			p := &domain.Product{ProductFields: fields}
			if err := s.Create(ctx, p); err != nil {
				res.Errors = append(res.Errors, RowError{Row: i + 1, Sku: fields.Sku, Message: err.Error()})
				continue
			}
			res.Created++
		default:
			res.Errors = append(res.Errors, RowError{Row: i + 1, Sku: fields.Sku, Message: err.Error()})
		}
	}
	return res, nil
}

func (row *ProductRow) fields() domain.ProductFields {
	return domain.ProductFields{
		Sku:               strings.ToUpper(strings.TrimSpace(row.Sku)),
		Name:              strings.TrimSpace(row.Name),
		MetalType:         row.MetalType,
		Karat:             row.Karat,
		MetalWeightG:      common.ToFloat(strings.TrimSpace(row.MetalWeightG)),
		WastagePercentage: common.ToFloat(strings.TrimSpace(row.WastagePercentage)),
		MakingCharges:     common.ToFloat(strings.TrimSpace(row.MakingCharges)),
		HasDiamonds:       cast.ToBool(strings.TrimSpace(row.HasDiamonds)),
		DiamondCharges:    common.ToFloat(strings.TrimSpace(row.DiamondCharges)),
		StoneCharges:      common.ToFloat(strings.TrimSpace(row.StoneCharges)),
		MiscCharges:       common.ToFloat(strings.TrimSpace(row.MiscCharges)),
		IsCustomPrice:     cast.ToBool(strings.TrimSpace(row.IsCustomPrice)),
		CustomPrice:       common.ToFloat(strings.TrimSpace(row.CustomPrice)),
		StoneDetails:      row.StoneDetails,
		DiamondDetails:    row.DiamondDetails,
		ImageURL:          row.ImageURL,
	}
}
