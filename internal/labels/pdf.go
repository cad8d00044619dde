package labels

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultDPI   = 203
	panelPadMM   = 0.8
	minFontPt    = 4.0
	ptPerMM      = 72 / 25.4
	lineFillRate = 0.85
)

// Rect is an area on the sheet in millimetres
type Rect struct {
	X, Y, W, H float64
}

// DotsToMM converts printer dots to millimetres
func DotsToMM(dots, dpi int) float64 {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return float64(dots) / float64(dpi) * 25.4
}

// SplitPanels divides a tag into n equal panels along its longer side with a blank
// gap between neighbours. A gap too large for the tag is dropped.
func SplitPanels(width, height float64, n int, gap float64) []Rect {
	if n <= 1 {
		return []Rect{{0, 0, width, height}}
	}
	horizontal := width >= height
	length := height
	if horizontal {
		length = width
	}
	if gap < 0 || gap*float64(n-1) >= length {
		gap = 0
	}
	size := (length - gap*float64(n-1)) / float64(n)
	out := make([]Rect, n)
	for i := range out {
		offset := float64(i) * (size + gap)
		if horizontal {
			out[i] = Rect{X: offset, Y: 0, W: size, H: height}
		} else {
			out[i] = Rect{X: 0, Y: offset, W: width, H: size}
		}
	}
	return out
}

// Fit scales a source size proportionally so it fits inside box
func Fit(srcW, srcH, boxW, boxH float64) (float64, float64) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	scale := boxW / srcW
	if s := boxH / srcH; s < scale {
		scale = s
	}
	return srcW * scale, srcH * scale
}

// Center places a w x h area in the middle of box
func Center(w, h float64, box Rect) Rect {
	return Rect{X: box.X + (box.W-w)/2, Y: box.Y + (box.H-h)/2, W: w, H: h}
}

// FitFontSize shrinks from maxPt in half point steps until measure(size) fits maxWidth
func FitFontSize(measure func(pt float64) float64, maxWidth, maxPt float64) float64 {
	pt := maxPt
	for pt > minFontPt && measure(pt) > maxWidth {
		pt -= 0.5
	}
	if pt < minFontPt {
		pt = minFontPt
	}
	return pt
}

// PDFOptions tunes PDF rendering
type PDFOptions struct {
	DPI  int
	Logo []byte
}

// RenderPDF writes one page per entity, each page the size of the tag
func RenderPDF(w io.Writer, l Layout, entities []map[string]interface{}, opts PDFOptions) error {
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	width := DotsToMM(l.WidthDots, opts.DPI)
	height := DotsToMM(l.HeightDots, opts.DPI)
	if width <= 0 || height <= 0 {
		return errors.New("layout has no size")
	}
	panels := l.Panels
	if panels <= 0 {
		panels = 1
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	var logo *fpdf.ImageInfoType
	logoType := ""
	if len(opts.Logo) > 0 {
		logoType = imageType(opts.Logo)
		if logoType != "" {
			logo = pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: logoType}, bytes.NewReader(opts.Logo))
		}
	}

	rects := SplitPanels(width, height, panels, DotsToMM(l.GapDots, opts.DPI))
	for n, entity := range entities {
		pdf.AddPage()
		for p, rect := range rects {
			var images, texts []Field
			for _, f := range l.Fields {
				if f.Panel != p {
					continue
				}
				if f.Type == FieldText {
					texts = append(texts, f)
				} else {
					images = append(images, f)
				}
			}
			inner := Rect{rect.X + panelPadMM, rect.Y + panelPadMM, rect.W - 2*panelPadMM, rect.H - 2*panelPadMM}
			textArea := inner
			if len(images) > 0 {
				var slot Rect
				slot, textArea = splitImageSlot(inner, len(texts) > 0)
				cell := slot.W / float64(len(images))
				for i, f := range images {
					box := Rect{slot.X + float64(i)*cell, slot.Y, cell, slot.H}
					switch f.Type {
					case FieldQR:
						data := Substitute(f.Data, entity)
						png, err := qrcode.Encode(data, recoveryLevel(f.ErrorCorrection), 256)
						if err != nil {
							return errors.Wrapf(err, "encode qr for tag %d", n)
						}
						name := fmt.Sprintf("qr-%d-%d-%d", n, p, i)
						pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
						side, _ := Fit(1, 1, box.W, box.H)
						r := Center(side, side, box)
						pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
					case FieldLogo:
						if logo == nil {
							continue
						}
						lw, lh := Fit(logo.Width(), logo.Height(), box.W, box.H)
						r := Center(lw, lh, box)
						pdf.ImageOptions("logo", r.X, r.Y, r.W, r.H, false, fpdf.ImageOptions{ImageType: logoType}, 0, "")
					}
				}
			}
			if len(texts) > 0 {
				drawTexts(pdf, tr, textArea, texts, entity, opts.DPI)
			}
		}
	}
	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return pdf.Output(w)
}

// splitImageSlot reserves a square-ish slot for images at the start of the panel
func splitImageSlot(inner Rect, withText bool) (Rect, Rect) {
	if !withText {
		return inner, Rect{}
	}
	if inner.W >= inner.H {
		side := inner.H
		if limit := inner.W * 0.45; side > limit {
			side = limit
		}
		return Rect{inner.X, inner.Y, side, inner.H},
			Rect{inner.X + side + panelPadMM, inner.Y, inner.W - side - panelPadMM, inner.H}
	}
	side := inner.W
	if limit := inner.H * 0.45; side > limit {
		side = limit
	}
	return Rect{inner.X, inner.Y, inner.W, side},
		Rect{inner.X, inner.Y + side + panelPadMM, inner.W, inner.H - side - panelPadMM}
}

func drawTexts(pdf *fpdf.Fpdf, tr func(string) string, area Rect, texts []Field, entity map[string]interface{}, dpi int) {
	lineH := area.H / float64(len(texts))
	for i, f := range texts {
		text := tr(Substitute(f.Data, entity))
		maxPt := lineH * ptPerMM * lineFillRate
		if f.FontHeight > 0 {
			if pt := DotsToMM(f.FontHeight, dpi) * ptPerMM; pt < maxPt {
				maxPt = pt
			}
		}
		size := FitFontSize(func(pt float64) float64 {
			pdf.SetFontSize(pt)
			return pdf.GetStringWidth(text)
		}, area.W, maxPt)
		pdf.SetFontSize(size)
		align := "L"
		if f.Align == "C" || f.Align == "R" {
			align = f.Align
		}
		pdf.SetXY(area.X, area.Y+float64(i)*lineH)
		pdf.CellFormat(area.W, lineH, text, "", 0, align+"M", false, 0, "")
	}
}

func recoveryLevel(ec string) qrcode.RecoveryLevel {
	switch ec {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	}
	return qrcode.Medium
}

func imageType(b []byte) string {
	switch http.DetectContentType(b) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
