package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

func TestNextSku(t *testing.T) {
	assert.Equal(t, "RIN-000001", NextSku("RIN", nil))
	assert.Equal(t, "RIN-000013", NextSku("RIN", []string{"RIN-000002", "RIN-000012", "NEC-000099", "RIN-OLD", "RIN-000007"}))
	assert.Equal(t, "BR-1000000", NextSku("BR", []string{"BR-999999"}))
}

func TestNormalizePrefix(t *testing.T) {
	p, err := NormalizePrefix(" rin ")
	require.NoError(t, err)
	assert.Equal(t, "RIN", p)
	_, err = NormalizePrefix("R-1")
	assert.Error(t, err)
	_, err = NormalizePrefix("")
	assert.Error(t, err)
}

func TestNormalizeScan(t *testing.T) {
	cases := map[string]string{
		"  rin-000001\r\n":                             "RIN-000001",
		"SKU:nec-000002":                               "NEC-000002",
		"https://shop.example.com/products/rin-000003": "RIN-000003",
		"https://shop.example.com/p/?sku=bra-000004":   "BRA-000004",
		"http://x.test/item/ear-000005/":               "EAR-000005",
		"":                                             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeScan(in), in)
	}
}

func TestIndexPrefix(t *testing.T) {
	x := NewIndex()
	for i, sku := range []string{"RIN-000002", "RIN-000001", "NEC-000001", "RIN-000010", "RING-1"} {
		x.Put(domain.Product{ID: int64(i + 1), ProductFields: domain.ProductFields{Sku: sku}})
	}
	got := x.Prefix("rin-", 10)
	require.Len(t, got, 3)
	assert.Equal(t, "RIN-000001", got[0].Sku)
	assert.Equal(t, "RIN-000010", got[2].Sku)
	assert.Len(t, x.Prefix("RIN", 2), 2)

	e, ok := x.Lookup("nec-000001")
	assert.True(t, ok)
	assert.Equal(t, int64(3), e.ID)
	x.Remove("NEC-000001")
	_, ok = x.Lookup("NEC-000001")
	assert.False(t, ok)
}

func seedCategory(t *testing.T, svc *Service, prefix string) domain.Category {
	cat := domain.Category{ID: common.UUIDint64(), Title: prefix, Prefix: prefix}
	require.NoError(t, svc.db.Create(&cat).Error)
	return cat
}

func TestServiceCreateAllocatesSku(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	cat := seedCategory(t, svc, "RIN")

	p1 := &domain.Product{ProductFields: domain.ProductFields{Name: "Ring", CategoryID: cat.ID, MetalType: "Gold", Karat: "22K", MetalWeightG: 4}}
	require.NoError(t, svc.Create(ctx, p1))
	assert.Equal(t, "RIN-000001", p1.Sku)
	assert.Equal(t, "gold", p1.MetalType)

	p2 := &domain.Product{ProductFields: domain.ProductFields{Name: "Ring 2", CategoryID: cat.ID, MetalType: "gold", Karat: "21k"}}
	require.NoError(t, svc.Create(ctx, p2))
	assert.Equal(t, "RIN-000002", p2.Sku)

	dup := &domain.Product{ProductFields: domain.ProductFields{Sku: "rin-000001", Name: "Dup", MetalType: "gold", Karat: "18k"}}
	assert.True(t, errors.Is(svc.Create(ctx, dup), ErrDuplicateSku))

	bad := &domain.Product{ProductFields: domain.ProductFields{Sku: "X-1", Name: "Bad", MetalType: "gold", Karat: "14k"}}
	assert.True(t, errors.Is(svc.Create(ctx, bad), ErrInvalidProduct))

	found, err := svc.Scan(ctx, "https://shop/p/rin-000002")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, found.ID)
}

func TestFindBySkuReportsSold(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	require.NoError(t, svc.db.Create(&domain.SoldProduct{ID: 1, ProductFields: domain.ProductFields{Sku: "RIN-000009"}, SoldAt: time.Now()}).Error)

	_, err := svc.FindBySku(ctx, "rin-000009")
	assert.True(t, errors.Is(err, ErrProductSold))
	_, err = svc.FindBySku(ctx, "RIN-404")
	assert.True(t, errors.Is(err, ErrProductNotFound))

	// a sold sku cannot be reused
	p := &domain.Product{ProductFields: domain.ProductFields{Sku: "RIN-000009", Name: "Again", MetalType: "platinum"}}
	assert.True(t, errors.Is(svc.Create(ctx, p), ErrProductSold))
	// and sku allocation skips past it
	sku, err := GenerateSku(ctx, svc.db, "rin")
	require.NoError(t, err)
	assert.Equal(t, "RIN-000010", sku)
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	seedCategory(t, svc, "NEC")

	existing := &domain.Product{ProductFields: domain.ProductFields{Sku: "NEC-000001", Name: "Old name", MetalType: "gold", Karat: "22k"}}
	require.NoError(t, svc.Create(ctx, existing))

	input := "\xEF\xBB\xBFsku,name,category,metal_type,karat,metal_weight_g,making_charges\n" +
		"NEC-000001,New name,NEC,gold,22k,12.5,1500\n" +
		",Fresh,NEC,gold,21k,abc,\n" +
		",Orphan,,gold,21k,1,1\n" +
		"PLT-1,Band,,platinum,,3,200\n"
	res, err := svc.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)

	updated, err := svc.FindBySku(ctx, "NEC-000001")
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, 12.5, updated.MetalWeightG)

	fresh, err := svc.FindBySku(ctx, "NEC-000002")
	require.NoError(t, err)
	assert.Equal(t, 0.0, fresh.MetalWeightG)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "sku,name,category,"))
	assert.Contains(t, out, "NEC-000002,Fresh,NEC,gold,21k")
	assert.Contains(t, out, "PLT-1,Band,,platinum,")
}

func TestLookupsSurfaceQueryErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	require.NoError(t, svc.db.Migrator().DropTable(&domain.SoldProduct{}))

	_, err := svc.FindBySku(ctx, "RIN-404")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProductNotFound))

	p := &domain.Product{ProductFields: domain.ProductFields{Sku: "RIN-000001", Name: "Band", MetalType: "platinum"}}
	err = svc.Create(ctx, p)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidProduct))
	var n int64
	require.NoError(t, svc.db.Model(&domain.Product{}).Count(&n).Error)
	assert.Zero(t, n)

	cat := seedCategory(t, svc, "EAR")
	require.NoError(t, svc.db.Migrator().DropTable(&domain.Product{}))
	require.Error(t, svc.DeleteCategory(ctx, cat.ID))
	assert.NoError(t, svc.db.First(&domain.Category{}, cat.ID).Error)
}

func TestDeleteCategoryInUse(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	cat := seedCategory(t, svc, "EAR")
	p := &domain.Product{ProductFields: domain.ProductFields{Name: "Stud", CategoryID: cat.ID, MetalType: "gold", Karat: "18k"}}
	require.NoError(t, svc.Create(ctx, p))

	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ErrCategoryInUse)
	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.NoError(t, svc.DeleteCategory(ctx, cat.ID))
}

func TestPurgeSold(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t), nil)
	old := time.Now().AddDate(-2, 0, 0)
	require.NoError(t, svc.db.Create(&domain.SoldProduct{ID: 1, ProductFields: domain.ProductFields{Sku: "A-1"}, SoldAt: old}).Error)
	require.NoError(t, svc.db.Create(&domain.SoldProduct{ID: 2, ProductFields: domain.ProductFields{Sku: "A-2"}, SoldAt: time.Now()}).Error)

	n, err := svc.PurgeSold(ctx, nil, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = svc.PurgeSold(ctx, nil, time.Time{})
	assert.Error(t, err)
}
