// Package labels turns a declarative tag layout and an entity map into printer
// commands (ZPL) or a PDF sheet of stacked tag panels.
package labels

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FieldText = "text"
	FieldQR   = "qr"
	FieldLogo = "logo"
)

// Field is one positioned element of a tag. Coordinates and sizes are printer dots.
type Field struct {
	Type string `json:"type" validate:"required,oneof=text qr logo"`
	X    int    `json:"x" validate:"min=0"`
	Y    int    `json:"y" validate:"min=0"`
	// text
	FontHeight int    `json:"font_height,omitempty"`
	FontWidth  int    `json:"font_width,omitempty"`
	Rotation   string `json:"rotation,omitempty" validate:"omitempty,oneof=N R I B"`
	BlockWidth int    `json:"block_width,omitempty"`
	BlockLines int    `json:"block_lines,omitempty"`
	Align      string `json:"align,omitempty" validate:"omitempty,oneof=L C R J"`
	// qr
	Magnification   int    `json:"magnification,omitempty" validate:"omitempty,min=1,max=10"`
	ErrorCorrection string `json:"error_correction,omitempty" validate:"omitempty,oneof=H Q M L"`

	Data  string `json:"data"`
	Panel int    `json:"panel,omitempty"`
}

// Layout is a tag definition in printer dots
type Layout struct {
	Name       string  `json:"name"`
	WidthDots  int     `json:"width_dots"`
	HeightDots int     `json:"height_dots"`
	Panels     int     `json:"panels"`
	GapDots    int     `json:"gap_dots"`
	Fields     []Field `json:"fields"`
}

// FromDomain decodes a stored layout
func FromDomain(l domain.LabelLayout) (Layout, error) {
	out := Layout{
		Name:       l.Name,
		WidthDots:  l.WidthDots,
		HeightDots: l.HeightDots,
		Panels:     l.Panels,
		GapDots:    l.GapDots,
	}
	if strings.TrimSpace(l.Fields) == "" {
		return out, nil
	}
	if err := json.UnmarshalFromString(l.Fields, &out.Fields); err != nil {
		return out, errors.Wrapf(err, "decode fields of layout %q", l.Name)
	}
	return out, nil
}

// ToDomain encodes a layout for storage
func (l Layout) ToDomain() (domain.LabelLayout, error) {
	fields, err := json.MarshalToString(l.Fields)
	if err != nil {
		return domain.LabelLayout{}, errors.Wrap(err, "encode layout fields")
	}
	return domain.LabelLayout{
		Name:       l.Name,
		WidthDots:  l.WidthDots,
		HeightDots: l.HeightDots,
		Panels:     l.Panels,
		GapDots:    l.GapDots,
		Fields:     fields,
	}, nil
}

// DefaultLayout is the two panel jewellery tag: description on the first panel,
// QR code and SKU on the second, at 203 dpi.
func DefaultLayout() Layout {
	return Layout{
		Name:       "jewellery-tag",
		WidthDots:  456,
		HeightDots: 96,
		Panels:     2,
		GapDots:    16,
		Fields: []Field{
			{Type: FieldText, X: 8, Y: 8, FontHeight: 20, FontWidth: 18, BlockWidth: 200, BlockLines: 1, Align: "L", Data: "{name}", Panel: 0},
			{Type: FieldText, X: 8, Y: 36, FontHeight: 18, FontWidth: 16, Data: "{karat} {metalWeightG}g", Panel: 0},
			{Type: FieldText, X: 8, Y: 62, FontHeight: 18, FontWidth: 16, Data: "{price}", Panel: 0},
			{Type: FieldQR, X: 240, Y: 4, Magnification: 2, ErrorCorrection: "M", Data: "{sku}", Panel: 1},
			{Type: FieldText, X: 320, Y: 36, FontHeight: 20, FontWidth: 18, Data: "{sku}", Panel: 1},
		},
	}
}
