package surface

import (
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

// Tiny measures text with a tinyfont bitmap font, scaling linearly from the
// font's nominal point size. It suits low-resolution panels whose firmware
// draws with the same font.
type Tiny struct {
	Font    tinyfont.Fonter
	Nominal int
}

// FreeMono returns a measurer for tinyfont's FreeMono 12pt.
func FreeMono() Tiny {
	return Tiny{Font: &freemono.Regular12pt7b, Nominal: 12}
}

func (t Tiny) MeasureText(text string, size int) int {
	_, outbox := tinyfont.LineWidth(t.Font, text)
	return int(outbox) * size / t.nominal()
}

func (t Tiny) LineHeight(size int) int {
	return int(t.Font.GetYAdvance()) * size / t.nominal()
}

func (t Tiny) nominal() int {
	if t.Nominal <= 0 {
		return 1
	}
	return t.Nominal
}
