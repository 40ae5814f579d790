package layout

// slot is one (column, level) cell within a grid row.
type slot struct {
	col, level int
}

// Tracker assigns multi-day bars to stacking levels within each grid row.
// A Tracker belongs to a single layout pass; create one per Compute call.
type Tracker struct {
	maxLevels int
	gap       int

	occupied map[int]map[slot]bool
	// heights holds, per row, the height of the first bar placed at each
	// level. Later bars on that level never change it.
	heights map[int]map[int]int
}

// NewTracker returns an empty tracker allowing maxLevels levels per row,
// separated vertically by gap pixels.
func NewTracker(maxLevels, gap int) (*Tracker, error) {
	if maxLevels <= 0 {
		return nil, configErr("max_levels", "must be positive")
	}
	if gap < 0 {
		return nil, configErr("gap", "must not be negative")
	}
	return &Tracker{
		maxLevels: maxLevels,
		gap:       gap,
		occupied:  make(map[int]map[slot]bool),
		heights:   make(map[int]map[int]int),
	}, nil
}

// Place claims the lowest level in row whose columns [startCol, endCol] are
// all free and returns it with the level's y-offset. The first bar on a
// level sets the level's height; every lower level already has one, so the
// offset is final. Callers fit later bars to LevelHeight.
//
// When every level is taken the bar is put on level 0 and overlap is true.
// The bar is still returned so no event is ever dropped.
func (t *Tracker) Place(row, startCol, endCol, height int) (level, yOffset int, overlap bool) {
	if t.occupied[row] == nil {
		t.occupied[row] = make(map[slot]bool)
		t.heights[row] = make(map[int]int)
	}

	for level := 0; level < t.maxLevels; level++ {
		if !t.free(row, startCol, endCol, level) {
			continue
		}
		for col := startCol; col <= endCol; col++ {
			t.occupied[row][slot{col, level}] = true
		}
		if _, ok := t.heights[row][level]; !ok {
			t.heights[row][level] = height
		}
		return level, t.Offset(row, level), false
	}

	return 0, 0, true
}

func (t *Tracker) free(row, startCol, endCol, level int) bool {
	for col := startCol; col <= endCol; col++ {
		if t.occupied[row][slot{col, level}] {
			return false
		}
	}
	return true
}

// Offset is the cumulative height of all levels below level in row, each
// followed by the gap. Empty levels contribute nothing.
func (t *Tracker) Offset(row, level int) int {
	y := 0
	for l := 0; l < level; l++ {
		if h, ok := t.heights[row][l]; ok {
			y += h + t.gap
		}
	}
	return y
}

// LevelHeight returns the height recorded at level in row, zero when the
// level is unused.
func (t *Tracker) LevelHeight(row, level int) int {
	return t.heights[row][level]
}

// isOccupied reports whether (col, level) in row has been claimed.
func (t *Tracker) isOccupied(row, col, level int) bool {
	return t.occupied[row][slot{col, level}]
}

// levelCount returns how many levels are in use in row.
func (t *Tracker) levelCount(row int) int {
	n := 0
	for l := range t.heights[row] {
		if l+1 > n {
			n = l + 1
		}
	}
	return n
}
