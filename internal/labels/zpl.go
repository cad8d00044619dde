package labels

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Emitter writes the printer command for one kind of field
type Emitter interface {
	Name() string
	CanHandle(f Field) bool
	Emit(b *strings.Builder, f Field, data string) error
}

var (
	emittersMu sync.RWMutex
	emitters   []Emitter
)

// RegisterEmitter adds an emitter. Later registrations are consulted first.
func RegisterEmitter(e Emitter) {
	emittersMu.Lock()
	defer emittersMu.Unlock()
	emitters = append([]Emitter{e}, emitters...)
}

func getEmitters() []Emitter {
	emittersMu.RLock()
	defer emittersMu.RUnlock()
	return emitters
}

func init() {
	RegisterEmitter(textEmitter{})
	RegisterEmitter(qrEmitter{})
}

// GenerateZPL renders one tag for entity
func GenerateZPL(l Layout, entity map[string]interface{}) (string, error) {
	var b strings.Builder
	b.WriteString("^XA\n")
	fmt.Fprintf(&b, "^PW%d\n", l.WidthDots)
	fmt.Fprintf(&b, "^LL%d\n", l.HeightDots)
	for i, f := range l.Fields {
		if f.Type == FieldLogo {
			// logos only exist on the PDF sheet
			continue
		}
		data := Substitute(f.Data, entity)
		handled := false
		for _, e := range getEmitters() {
			if !e.CanHandle(f) {
				continue
			}
			if err := e.Emit(&b, f, data); err != nil {
				return "", errors.Wrapf(err, "field %d (%s)", i, e.Name())
			}
			handled = true
			break
		}
		if !handled {
			return "", errors.Errorf("field %d: no emitter for type %q", i, f.Type)
		}
	}
	b.WriteString("^PQ1\n")
	b.WriteString("^XZ\n")
	return b.String(), nil
}

// GenerateZPLBatch renders one tag per entity into a single document stream
func GenerateZPLBatch(l Layout, entities []map[string]interface{}) (string, error) {
	var b strings.Builder
	for _, e := range entities {
		s, err := GenerateZPL(l, e)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

type textEmitter struct{}

func (textEmitter) Name() string { return "text" }

func (textEmitter) CanHandle(f Field) bool { return f.Type == FieldText }

func (textEmitter) Emit(b *strings.Builder, f Field, data string) error {
	h := f.FontHeight
	if h <= 0 {
		h = 20
	}
	w := f.FontWidth
	if w <= 0 {
		w = h
	}
	rot := f.Rotation
	if rot == "" {
		rot = "N"
	}
	fmt.Fprintf(b, "^FO%d,%d^A0%s,%d,%d", f.X, f.Y, rot, h, w)
	if f.BlockWidth > 0 {
		lines := f.BlockLines
		if lines <= 0 {
			lines = 1
		}
		align := f.Align
		if align == "" {
			align = "L"
		}
		fmt.Fprintf(b, "^FB%d,%d,0,%s,0", f.BlockWidth, lines, align)
	}
	writeFieldData(b, data)
	return nil
}

type qrEmitter struct{}

func (qrEmitter) Name() string { return "qr" }

func (qrEmitter) CanHandle(f Field) bool { return f.Type == FieldQR }

func (qrEmitter) Emit(b *strings.Builder, f Field, data string) error {
	if data == "" {
		return errors.New("empty qr data")
	}
	mag := f.Magnification
	if mag <= 0 {
		mag = 3
	}
	ec := f.ErrorCorrection
	if ec == "" {
		ec = "M"
	}
	fmt.Fprintf(b, "^FO%d,%d^BQN,2,%d", f.X, f.Y, mag)
	writeFieldData(b, ec+"A,"+data)
	return nil
}

// writeFieldData emits ^FD...^FS, switching to hex escapes when the data holds
// characters that ZPL treats as command prefixes.
func writeFieldData(b *strings.Builder, data string) {
	if strings.ContainsAny(data, "^~\\") {
		r := strings.NewReplacer(`\`, `\5C`, "^", `\5E`, "~", `\7E`)
		b.WriteString("^FH\\^FD")
		b.WriteString(r.Replace(data))
	} else {
		b.WriteString("^FD")
		b.WriteString(data)
	}
	b.WriteString("^FS\n")
}
