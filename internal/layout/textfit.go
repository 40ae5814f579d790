package layout

import (
	"cmp"
	"slices"
	"strings"
)

// Measurer is the measurement half of a rendering surface. The engine never
// draws; it only asks how large text would be.
type Measurer interface {
	// MeasureText returns the advance width of text at size, in pixels.
	MeasureText(text string, size int) int
	// LineHeight returns the height of one line of text at size, in pixels.
	LineHeight(size int) int
}

// DefaultLineSpacingPct is the gap between wrapped lines as a percentage of
// the font size.
const DefaultLineSpacingPct = 20

// Fitter searches font sizes for the largest one whose word-wrapped text
// fits a box.
type Fitter struct {
	M Measurer
	// LineSpacingPct is the inter-line gap as a percentage of font size.
	LineSpacingPct int
}

// NewFitter returns a Fitter with the default line spacing.
func NewFitter(m Measurer) Fitter {
	return Fitter{M: m, LineSpacingPct: DefaultLineSpacingPct}
}

// FitRequest describes one text box. A zero MaxHeight or MaxLines means
// unbounded.
type FitRequest struct {
	Text      string
	MaxWidth  int
	MaxHeight int
	MaxLines  int
	// Sizes are candidate font sizes; they are tried largest first.
	Sizes []int
}

// Fit is the outcome of a size search.
type Fit struct {
	Size   int      `json:"font_size"`
	Lines  []string `json:"lines"`
	Height int      `json:"height"`
	// Fits is false when no candidate satisfied the bounds and the result
	// is the smallest size's wrapping, which may overflow.
	Fits bool `json:"fits"`
}

// Fit returns the largest candidate size at which the wrapped text satisfies
// both MaxLines and MaxHeight. When nothing fits it degrades to the smallest
// candidate rather than failing.
func (f Fitter) Fit(req FitRequest) Fit {
	sizes := slices.Clone(req.Sizes)
	slices.SortFunc(sizes, func(a, b int) int { return cmp.Compare(b, a) })
	sizes = slices.Compact(sizes)
	if len(sizes) == 0 {
		return Fit{Lines: f.Wrap(req.Text, req.MaxWidth, 0)}
	}

	for _, size := range sizes {
		lines := f.Wrap(req.Text, req.MaxWidth, size)
		height := f.TextHeight(len(lines), size)
		if req.MaxLines > 0 && len(lines) > req.MaxLines {
			continue
		}
		if req.MaxHeight > 0 && height > req.MaxHeight {
			continue
		}
		return Fit{Size: size, Lines: lines, Height: height, Fits: true}
	}

	smallest := sizes[len(sizes)-1]
	lines := f.Wrap(req.Text, req.MaxWidth, smallest)
	return Fit{Size: smallest, Lines: lines, Height: f.TextHeight(len(lines), smallest)}
}

// Wrap greedily packs words onto lines no wider than maxWidth. Words are
// never split; a word wider than maxWidth gets a line of its own.
func (f Fitter) Wrap(text string, maxWidth, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if f.M.MeasureText(candidate, size) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// TextHeight is the height of n wrapped lines at size, including the gaps
// between them.
func (f Fitter) TextHeight(n, size int) int {
	if n <= 0 {
		return 0
	}
	return n*f.M.LineHeight(size) + (n-1)*f.spacing(size)
}

// LineAdvance is the distance between the tops of consecutive lines.
func (f Fitter) LineAdvance(size int) int {
	return f.M.LineHeight(size) + f.spacing(size)
}

func (f Fitter) spacing(size int) int {
	return size * f.LineSpacingPct / 100
}
