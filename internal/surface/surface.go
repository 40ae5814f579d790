// Package surface provides text measurement and drawing for layout and
// rendering. Layout only ever uses the measurement methods.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	appLog "wallcal/internal/log"
)

// Typeface measures and draws text at arbitrary pixel sizes.
type Typeface interface {
	MeasureText(text string, size int) int
	LineHeight(size int) int
	// DrawText draws text with its top-left corner at (x, y).
	DrawText(dst draw.Image, x, y int, text string, size int, c color.Color)
}

// OpenType is a scalable TrueType/OpenType face with a per-size cache.
// x/image faces are not safe for concurrent use, so every access goes
// through mu.
type OpenType struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[int]font.Face
}

// NewOpenType parses a TTF/OTF font.
func NewOpenType(data []byte) (*OpenType, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("surface: parse font: %w", err)
	}
	return &OpenType{font: f, faces: make(map[int]font.Face)}, nil
}

// LoadOpenType reads and parses a font file.
func LoadOpenType(path string) (*OpenType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("surface: read font: %w", err)
	}
	return NewOpenType(data)
}

// GoRegular returns the embedded Go Regular font.
func GoRegular() (*OpenType, error) { return NewOpenType(goregular.TTF) }

// GoBold returns the embedded Go Bold font.
func GoBold() (*OpenType, error) { return NewOpenType(gobold.TTF) }

// Default returns the typeface at path, or Go Regular when path is empty.
// If neither loads it falls back to the fixed 7x13 bitmap face.
func Default(path string) Typeface {
	if path != "" {
		ot, err := LoadOpenType(path)
		if err == nil {
			return ot
		}
		appLog.Error("font load failed; using Go Regular", err, "path", path)
	}
	ot, err := GoRegular()
	if err != nil {
		appLog.Error("embedded font parse failed; using bitmap face", err)
		return Basic{}
	}
	return ot
}

// face returns the cached face for size. Callers must hold o.mu.
func (o *OpenType) face(size int) font.Face {
	if f, ok := o.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Only fails for invalid options; size is always positive here.
		appLog.Error("opentype face creation failed", err, "size", size)
		f = basicfont.Face7x13
	}
	o.faces[size] = f
	return f
}

func (o *OpenType) MeasureText(text string, size int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return font.MeasureString(o.face(size), text).Ceil()
}

func (o *OpenType) LineHeight(size int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := o.face(size).Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func (o *OpenType) DrawText(dst draw.Image, x, y int, text string, size int, c color.Color) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f := o.face(size)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f,
		Dot:  fixed.P(x, y+f.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// Basic is the fixed 7x13 bitmap face. Widths scale with size so layout
// still varies, but drawing always uses the native 13px glyphs.
type Basic struct{}

func (Basic) MeasureText(text string, size int) int {
	return utf8.RuneCountInString(text) * basicfont.Face7x13.Advance * size / basicfont.Face7x13.Height
}

func (Basic) LineHeight(size int) int {
	return size
}

func (Basic) DrawText(dst draw.Image, x, y int, text string, size int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// Fixed is a deterministic measurer: every rune is AdvancePct percent of the
// font size wide and a line is LinePct percent of the size tall.
type Fixed struct {
	AdvancePct int
	LinePct    int
}

func (f Fixed) MeasureText(text string, size int) int {
	return utf8.RuneCountInString(text) * size * f.AdvancePct / 100
}

func (f Fixed) LineHeight(size int) int {
	return size * f.LinePct / 100
}
