// Package catalog manages in-stock products: SKU allocation, scanner lookups,
// CSV import/export and the sold archive.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductSold     = errors.New("product already sold")
	ErrDuplicateSku    = errors.New("sku already exists")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrCategoryInUse   = errors.New("category has products")
)

type Service struct {
	db    *gorm.DB
	index *Index
	pub   events.Publisher
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{db: db, index: NewIndex(), pub: pub}
}

func (s *Service) Index() *Index {
	return s.index
}

// Warmup loads the SKU index
func (s *Service) Warmup(ctx context.Context) error {
	if err := s.index.Rebuild(ctx, s.db); err != nil {
		return err
	}
	zap.L().Info("catalog index loaded", zap.String("namespace", "catalog"), zap.Int("products", s.index.Len()))
	return nil
}

// Validate checks the metal and karat of a product. Numeric fields are not range checked.
func Validate(p *domain.ProductFields) error {
	p.Sku = strings.ToUpper(strings.TrimSpace(p.Sku))
	p.Name = strings.TrimSpace(p.Name)
	p.MetalType = strings.ToLower(strings.TrimSpace(p.MetalType))
	p.Karat = strings.ToLower(strings.TrimSpace(p.Karat))
	if p.Name == "" {
		return errors.Wrap(ErrInvalidProduct, "name is required")
	}
	if p.MetalType == "" {
		p.MetalType = domain.MetalGold
	}
	if !common.InSlice(p.MetalType, domain.MetalTypes) {
		return errors.Wrapf(ErrInvalidProduct, "unknown metal type %q", p.MetalType)
	}
	if p.MetalType == domain.MetalGold && !common.InSlice(p.Karat, domain.Karats) {
		return errors.Wrapf(ErrInvalidProduct, "gold karat must be one of %s", strings.Join(domain.Karats, ","))
	}
	if p.MetalType != domain.MetalGold {
		p.Karat = ""
	}
	if !p.HasDiamonds {
		p.DiamondCharges = 0
	}
	return nil
}

// Create validates, allocates a SKU when missing and inserts the product
func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	if err := Validate(&p.ProductFields); err != nil {
		return err
	}
	if p.Sku == "" {
		var cat domain.Category
		if err := s.db.WithContext(ctx).First(&cat, p.CategoryID).Error; err != nil {
			return errors.Wrap(ErrInvalidProduct, "sku or a valid category is required")
		}
		sku, err := GenerateSku(ctx, s.db, cat.Prefix)
		if err != nil {
			return err
		}
		p.Sku = sku
	}
	if err := s.checkSkuFree(ctx, p.Sku, 0); err != nil {
		return err
	}
	now := time.Now()
	p.ID = common.UUIDint64()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	s.saved(*p)
	return nil
}

// Update replaces the attributes of an existing product
func (s *Service) Update(ctx context.Context, id int64, fields domain.ProductFields) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "load product")
	}
	if err := Validate(&fields); err != nil {
		return nil, err
	}
	if fields.Sku == "" {
		fields.Sku = p.Sku
	}
	if fields.Sku != p.Sku {
		if err := s.checkSkuFree(ctx, fields.Sku, p.ID); err != nil {
			return nil, err
		}
		s.index.Remove(p.Sku)
	}
	p.ProductFields = fields
	p.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	s.saved(p)
	return &p, nil
}

func (s *Service) saved(p domain.Product) {
	s.index.Put(p)
	s.pub.Publish(events.ProductSaved, p)
}

func (s *Service) checkSkuFree(ctx context.Context, sku string, selfID int64) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Product{}).Where("sku = ? AND id <> ?", sku, selfID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "count products")
	}
	if n > 0 {
		return errors.Wrap(ErrDuplicateSku, sku)
	}
	if err := s.db.WithContext(ctx).Model(&domain.SoldProduct{}).Where("sku = ?", sku).Count(&n).Error; err != nil {
		return errors.Wrap(err, "count sold products")
	}
	if n > 0 {
		return errors.Wrap(ErrProductSold, sku)
	}
	return nil
}

// Delete removes an in-stock product
func (s *Service) Delete(ctx context.Context, id int64) error {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return errors.Wrap(err, "load product")
	}
	if err := s.db.WithContext(ctx).Delete(&p).Error; err != nil {
		return errors.Wrap(err, "delete product")
	}
	s.index.Remove(p.Sku)
	s.pub.Publish(events.ProductDeleted, p)
	return nil
}

// FindBySku returns an in-stock product; a sold SKU reports ErrProductSold
func (s *Service) FindBySku(ctx context.Context, sku string) (*domain.Product, error) {
	return FindBySku(s.db.WithContext(ctx), sku)
}

// FindBySku looks a SKU up with any handle, including a transaction
func FindBySku(db *gorm.DB, sku string) (*domain.Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	var p domain.Product
	err := db.Where("sku = ?", sku).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "query product")
	}
	var n int64
	if err := db.Model(&domain.SoldProduct{}).Where("sku = ?", sku).Count(&n).Error; err != nil {
		return nil, errors.Wrap(err, "query sold product")
	}
	if n > 0 {
		return nil, errors.Wrap(ErrProductSold, sku)
	}
	return nil, errors.Wrap(ErrProductNotFound, sku)
}

// Scan resolves a raw scanner payload to an in-stock product
func (s *Service) Scan(ctx context.Context, raw string) (*domain.Product, error) {
	sku := NormalizeScan(raw)
	if sku == "" {
		return nil, ErrProductNotFound
	}
	if e, ok := s.index.Lookup(sku); ok {
		var p domain.Product
		if err := s.db.WithContext(ctx).First(&p, e.ID).Error; err == nil {
			return &p, nil
		}
		s.index.Remove(sku)
	}
	return s.FindBySku(ctx, sku)
}

// MarkSold drops sold SKUs from the index
func (s *Service) MarkSold(skus ...string) {
	for _, sku := range skus {
		s.index.Remove(sku)
	}
}

// PurgeSold hard deletes archived products sold before the given time. Zero time purges only ids.
func (s *Service) PurgeSold(ctx context.Context, ids []int64, before time.Time) (int64, error) {
	q := s.db.WithContext(ctx)
	switch {
	case len(ids) > 0:
		q = q.Where("id IN ?", ids)
	case !before.IsZero():
		q = q.Where("sold_at < ?", before)
	default:
		return 0, errors.New("nothing to purge")
	}
	res := q.Delete(&domain.SoldProduct{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge sold products")
	}
	zap.L().Warn("sold products purged", zap.String("namespace", "catalog"), zap.Int64("rows", res.RowsAffected))
	return res.RowsAffected, nil
}

// DeleteCategory refuses to remove a category that still has products
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return errors.Wrap(err, "count category products")
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{}).Error
}
