package labels

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

func TestSubstitute(t *testing.T) {
	entity := map[string]interface{}{"sku": "RIN-001", "weight": 10.5, "qty": 3, "empty": nil}
	assert.Equal(t, "SKU:RIN-001", Substitute("SKU:{sku}", entity))
	assert.Equal(t, "{missing}", Substitute("{missing}", entity))
	assert.Equal(t, "10.5g x3", Substitute("{weight}g x{qty}", entity))
	assert.Equal(t, "[]", Substitute("[{empty}]", entity))
	assert.Equal(t, "{}", Substitute("{}", entity))
	assert.Equal(t, "RIN-001 {nope} RIN-001", Substitute("{sku} {nope} {sku}", entity))
}

func TestGenerateZPLFraming(t *testing.T) {
	l := Layout{
		WidthDots:  400,
		HeightDots: 120,
		Fields: []Field{
			{Type: FieldText, X: 10, Y: 20, FontHeight: 24, Data: "SKU:{sku}"},
			{Type: FieldQR, X: 300, Y: 10, Magnification: 4, ErrorCorrection: "Q", Data: "{sku}"},
		},
	}
	out, err := GenerateZPL(l, map[string]interface{}{"sku": "RIN-001"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "^XA\n^PW400\n^LL120\n"))
	assert.True(t, strings.HasSuffix(out, "^PQ1\n^XZ\n"))
	assert.Contains(t, out, "^FO10,20^A0N,24,24^FDSKU:RIN-001^FS")
	assert.Contains(t, out, "^FO300,10^BQN,2,4^FDQA,RIN-001^FS")
	assert.Less(t, strings.Index(out, "SKU:RIN-001"), strings.Index(out, "^BQN"))
}

func TestGenerateZPLBlockAndRotation(t *testing.T) {
	l := Layout{WidthDots: 200, HeightDots: 50, Fields: []Field{
		{Type: FieldText, X: 0, Y: 0, FontHeight: 20, FontWidth: 10, Rotation: "R", BlockWidth: 180, BlockLines: 2, Align: "C", Data: "{name}"},
	}}
	out, err := GenerateZPL(l, map[string]interface{}{"name": "Ring"})
	require.NoError(t, err)
	assert.Contains(t, out, "^FO0,0^A0R,20,10^FB180,2,0,C,0^FDRing^FS")
}

func TestGenerateZPLEscapesCommandCharacters(t *testing.T) {
	l := Layout{WidthDots: 200, HeightDots: 50, Fields: []Field{{Type: FieldText, Data: "{name}"}}}
	out, err := GenerateZPL(l, map[string]interface{}{"name": "A^B~C"})
	require.NoError(t, err)
	assert.Contains(t, out, `^FH\^FDA\5EB\7EC^FS`)
}

func TestGenerateZPLUnknownField(t *testing.T) {
	l := Layout{WidthDots: 10, HeightDots: 10, Fields: []Field{{Type: "barcode128", Data: "x"}}}
	_, err := GenerateZPL(l, nil)
	assert.Error(t, err)

	l.Fields = []Field{{Type: FieldQR, Data: "{missing_sku_key}"}}
	out, err := GenerateZPL(l, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "MA,{missing_sku_key}")
}

func TestGenerateZPLBatch(t *testing.T) {
	out, err := GenerateZPLBatch(DefaultLayout(), []map[string]interface{}{{"sku": "A-1"}, {"sku": "B-2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "^XA"))
	assert.Equal(t, 2, strings.Count(out, "^XZ"))
}

func TestLayoutRoundTrip(t *testing.T) {
	stored, err := DefaultLayout().ToDomain()
	require.NoError(t, err)
	back, err := FromDomain(stored)
	require.NoError(t, err)
	assert.Equal(t, DefaultLayout(), back)

	_, err = FromDomain(domain.LabelLayout{Name: "bad", Fields: "{not json"})
	assert.Error(t, err)
}

func TestProductEntity(t *testing.T) {
	p := domain.Product{ID: 7, ProductFields: domain.ProductFields{Sku: "RIN-000001", Name: "Ring", Karat: "22k", MetalWeightG: 4.25}}
	m, err := ProductEntity(p, map[string]interface{}{"price": "12,000.00"})
	require.NoError(t, err)
	out := Substitute("{sku}|{name}|{karat}|{metalWeightG}|{price}|{id}", m)
	assert.Equal(t, "RIN-000001|Ring|22k|4.25|12,000.00|7", out)
}

func TestSplitPanels(t *testing.T) {
	rects := SplitPanels(60, 12, 2, 4)
	require.Len(t, rects, 2)
	assert.InDelta(t, 28, rects[0].W, 1e-9)
	assert.InDelta(t, 32, rects[1].X, 1e-9)
	assert.InDelta(t, 12, rects[1].H, 1e-9)

	tall := SplitPanels(10, 50, 3, 100)
	require.Len(t, tall, 3)
	assert.InDelta(t, 50.0/3, tall[0].H, 1e-9)
	assert.Len(t, SplitPanels(10, 10, 0, 0), 1)
}

func TestFit(t *testing.T) {
	w, h := Fit(200, 100, 50, 50)
	assert.InDelta(t, 50, w, 1e-9)
	assert.InDelta(t, 25, h, 1e-9)
	w, h = Fit(10, 40, 50, 20)
	assert.InDelta(t, 5, w, 1e-9)
	assert.InDelta(t, 20, h, 1e-9)
	w, h = Fit(0, 10, 10, 10)
	assert.Zero(t, w+h)

	r := Center(10, 4, Rect{X: 2, Y: 2, W: 20, H: 8})
	assert.InDelta(t, 7, r.X, 1e-9)
	assert.InDelta(t, 4, r.Y, 1e-9)
}

func TestFitFontSize(t *testing.T) {
	measure := func(pt float64) float64 { return pt * 2 }
	assert.InDelta(t, 10, FitFontSize(measure, 100, 10), 1e-9)
	assert.InDelta(t, 5, FitFontSize(measure, 10, 10), 1e-9)
	assert.InDelta(t, minFontPt, FitFontSize(measure, 1, 10), 1e-9)
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, DefaultLayout(), []map[string]interface{}{
		{"sku": "RIN-000001", "name": "Bridal ring", "karat": "22k", "metalWeightG": 4.2, "price": "91,000.00"},
		{"sku": "NEC-000002", "name": "Necklace", "karat": "21k", "metalWeightG": 12, "price": "240,500.00"},
	}, PDFOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	assert.Error(t, RenderPDF(&buf, Layout{}, nil, PDFOptions{}))
}
