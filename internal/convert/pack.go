// Package convert turns rendered previews into packed 1bpp black/red planes
// for tri-color e-paper panels.
package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
)

// Panel is the physical pixel size of a display. Width must be a multiple
// of 8.
type Panel struct {
	Width  int
	Height int
}

// Stride is the number of bytes in one packed row.
func (p Panel) Stride() int { return p.Width / 8 }

// PlaneSize is the number of bytes in one packed plane.
func (p Panel) PlaneSize() int { return p.Stride() * p.Height }

func (p Panel) validate() error {
	if p.Width <= 0 || p.Height <= 0 || p.Width%8 != 0 {
		return fmt.Errorf("convert: invalid panel %dx%d", p.Width, p.Height)
	}
	return nil
}

// Pack classifies every pixel as white, black or red and packs the black and
// red planes y-major, MSB first: byte y*Stride + x/8, mask 0x80 >> (x%8).
// A set bit is white; ink clears it. An image larger than the panel is
// center-cropped; a smaller one is an error.
func Pack(img image.Image, p Panel) (black, red []byte, err error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	if b.Dx() < p.Width || b.Dy() < p.Height {
		return nil, nil, fmt.Errorf("convert: image %dx%d smaller than panel %dx%d", b.Dx(), b.Dy(), p.Width, p.Height)
	}

	src, ok := img.(*image.NRGBA)
	if !ok {
		src = image.NewNRGBA(b)
		draw.Draw(src, b, img, b.Min, draw.Src)
	}
	origin := image.Pt(b.Min.X+(b.Dx()-p.Width)/2, b.Min.Y+(b.Dy()-p.Height)/2)

	black = whitePlane(p)
	red = whitePlane(p)
	stride := p.Stride()

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := src.NRGBAAt(origin.X+x, origin.Y+y)
			// Transparent pixels are not visible on paper.
			if c.A < 128 {
				continue
			}
			i := y*stride + x>>3
			mask := byte(0x80 >> (x & 7))
			switch classify(c) {
			case inkBlack:
				black[i] &^= mask
			case inkRed:
				red[i] &^= mask
			}
		}
	}
	return black, red, nil
}

// Fit centers img on a white canvas of at least the panel size, so an image
// a few pixels short of the panel can still be packed.
func Fit(img image.Image, p Panel) *image.NRGBA {
	b := img.Bounds()
	w, h := max(b.Dx(), p.Width), max(b.Dy(), p.Height)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	at := image.Pt((w-b.Dx())/2, (h-b.Dy())/2)
	draw.Draw(out, image.Rectangle{Min: at, Max: at.Add(b.Size())}, img, b.Min, draw.Over)
	return out
}

func whitePlane(p Panel) []byte {
	plane := make([]byte, p.PlaneSize())
	for i := range plane {
		plane[i] = 0xFF
	}
	return plane
}

// Unpack rebuilds what the panel will show from packed planes. Red wins
// where both planes carry ink.
func Unpack(black, red []byte, p Panel) (*image.NRGBA, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(black) != p.PlaneSize() || len(red) != p.PlaneSize() {
		return nil, fmt.Errorf("convert: expected planes of %d bytes, got %d and %d", p.PlaneSize(), len(black), len(red))
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	stride := p.Stride()
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			i := y*stride + x>>3
			mask := byte(0x80 >> (x & 7))
			c := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			switch {
			case red[i]&mask == 0:
				c = color.NRGBA{R: 0xff, A: 0xff}
			case black[i]&mask == 0:
				c = color.NRGBA{A: 0xff}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// WritePlanes dumps black.bin and red.bin into dir.
func WritePlanes(dir string, black, red []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("convert: mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "black.bin"), black, 0o644); err != nil {
		return fmt.Errorf("convert: write black plane: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "red.bin"), red, 0o644); err != nil {
		return fmt.Errorf("convert: write red plane: %w", err)
	}
	return nil
}

type ink int

const (
	inkWhite ink = iota
	inkBlack
	inkRed
)

// classify uses luma Y = 0.299R + 0.587G + 0.114B and redness R - max(G, B):
// dark pixels are black, clearly red pixels are red, everything else white.
func classify(c color.NRGBA) ink {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	y := 0.299*r + 0.587*g + 0.114*b
	redness := r - max(g, b)

	// Red is tested first: a saturated red has low luma too.
	switch {
	case r > 128 && redness > 32:
		return inkRed
	case y < 64:
		return inkBlack
	}
	return inkWhite
}
