// Package layout arranges goal tiles on the dashboard. Compute is a pure
// function of the goal list and viewport, so the same inputs always yield the
// same tiling across re-renders.
package layout

import (
	"sort"

	"github.com/julianstephens/habitgrid/internal/models"
)

const (
	// GridCols is the logical grid width all packed layouts use.
	GridCols = 4
	// MinCellHeight keeps grid cells tappable when many rows are packed.
	MinCellHeight = 48
)

// Size is a tile's nominal grid footprint.
type Size int

const (
	SizeSmall      Size = iota // 1×1
	SizeMediumWide             // 2×1
	SizeMediumTall             // 1×2
	SizeWide                   // 2×2
	SizeLarge                  // 4×2 full-width banner
)

// Dims returns the footprint in grid cells.
func (s Size) Dims() (cols, rows int) {
	switch s {
	case SizeMediumWide:
		return 2, 1
	case SizeMediumTall:
		return 1, 2
	case SizeWide:
		return 2, 2
	case SizeLarge:
		return 4, 2
	default:
		return 1, 1
	}
}

func (s Size) area() int {
	c, r := s.Dims()
	return c * r
}

// GoalTile is the layout engine's view of a goal: the goal itself plus the
// stats that influence placement.
type GoalTile struct {
	Goal           models.Goal
	CompletionRate float64
	HasTodayLog    bool
}

// Tile is one placed rectangle, in the same pixel units as the viewport.
type Tile struct {
	GoalID string
	X      int
	Y      int
	Width  int
	Height int
	Goal   models.Goal
}

// Result holds the placed tiles plus the count of tiles that did not fit the
// viewport and were dropped.
type Result struct {
	Tiles    []Tile
	Overflow int
}

type placement struct {
	col, row   int
	cols, rows int
}

type fixedPlacement struct {
	size Size
	col  int
	row  int
}

// Hand-tuned patterns for small counts; each tiles its grid with zero gaps.
var (
	// 4×4 grid, four 2×2 quadrants.
	predefined4 = []fixedPlacement{
		{SizeWide, 0, 0},
		{SizeWide, 2, 0},
		{SizeWide, 0, 2},
		{SizeWide, 2, 2},
	}
	// 4×3 grid = 12 cells: 2×2 + 1×2 + 1×2 + 2×1 + 2×1.
	predefined5 = []fixedPlacement{
		{SizeWide, 0, 0},
		{SizeMediumTall, 2, 0},
		{SizeMediumTall, 3, 0},
		{SizeMediumWide, 0, 2},
		{SizeMediumWide, 2, 2},
	}
	// 4×4 grid = 16 cells: 2×2 + 2×2 + 2×1 + 2×1 + 2×1 + 2×1.
	predefined6 = []fixedPlacement{
		{SizeWide, 0, 0},
		{SizeWide, 2, 0},
		{SizeMediumWide, 0, 2},
		{SizeMediumWide, 2, 2},
		{SizeMediumWide, 0, 3},
		{SizeMediumWide, 2, 3},
	}
)

// assignSizes picks a nominal size per index. Index 0 is the hero tile; the
// rest cycle through a fixed modulo pattern to vary visual density.
func assignSizes(count int) []Size {
	sizes := make([]Size, count)
	for i := 0; i < count; i++ {
		switch {
		case i == 0:
			if count <= 8 {
				sizes[i] = SizeWide
			} else {
				sizes[i] = SizeLarge
			}
		case i%5 == 1:
			sizes[i] = SizeWide
		case i%5 == 3:
			sizes[i] = SizeMediumWide
		case i%3 == 0:
			sizes[i] = SizeMediumTall
		default:
			sizes[i] = SizeSmall
		}
	}
	return sizes
}

// downgrade steps a tile one size class smaller; ok=false at the bottom.
func downgrade(s Size) (Size, bool) {
	switch s {
	case SizeLarge:
		return SizeWide, true
	case SizeWide:
		return SizeMediumWide, true
	case SizeMediumTall, SizeMediumWide:
		return SizeSmall, true
	default:
		return s, false
	}
}

// upgrade is the reverse chain, used by gap-filling.
func upgrade(s Size) (Size, bool) {
	switch s {
	case SizeSmall:
		return SizeMediumWide, true
	case SizeMediumWide, SizeMediumTall:
		return SizeWide, true
	case SizeWide:
		return SizeLarge, true
	default:
		return s, false
	}
}

type cell struct{ row, col int }

// findBestPosition scans every valid column offset and picks the one whose
// resulting bottom edge is lowest, leftmost winning ties.
func findBestPosition(heights []int, occupied map[cell]bool, tileCols, tileRows int) (col, row int, ok bool) {
	bestBottom := -1
	for c := 0; c <= GridCols-tileCols; c++ {
		startRow := 0
		for i := c; i < c+tileCols; i++ {
			if heights[i] > startRow {
				startRow = heights[i]
			}
		}

		blocked := false
		for r := startRow; r < startRow+tileRows && !blocked; r++ {
			for i := c; i < c+tileCols; i++ {
				if occupied[cell{r, i}] {
					blocked = true
					break
				}
			}
		}
		if blocked {
			continue
		}

		bottom := startRow + tileRows
		if bestBottom == -1 || bottom < bestBottom {
			bestBottom = bottom
			col, row, ok = c, startRow, true
		}
	}
	return col, row, ok
}

// packTiles places each size in order onto the 4-column heightmap, downgrading
// through the size chain when a class cannot be placed.
func packTiles(sizes []Size) []placement {
	heights := make([]int, GridCols)
	occupied := make(map[cell]bool)
	placements := make([]placement, 0, len(sizes))

	place := func(col, row, tc, tr int) {
		for r := row; r < row+tr; r++ {
			for c := col; c < col+tc; c++ {
				occupied[cell{r, c}] = true
			}
		}
		for c := col; c < col+tc; c++ {
			if row+tr > heights[c] {
				heights[c] = row + tr
			}
		}
		placements = append(placements, placement{col: col, row: row, cols: tc, rows: tr})
	}

	for _, size := range sizes {
		tc, tr := size.Dims()
		col, row, ok := findBestPosition(heights, occupied, tc, tr)

		current := size
		for !ok {
			next, canShrink := downgrade(current)
			if !canShrink {
				break
			}
			current = next
			tc, tr = current.Dims()
			col, row, ok = findBestPosition(heights, occupied, tc, tr)
		}
		if !ok {
			// Last resort: a 1×1 always fits in an unbounded-height grid.
			tc, tr = 1, 1
			col, row, ok = findBestPosition(heights, occupied, 1, 1)
		}
		if ok {
			place(col, row, tc, tr)
		}
	}

	return placements
}

// fillGapsAndRepack upgrades tiles from the back of the list to absorb empty
// cells in the bounding box, repacking after each changed pass. Bounded to a
// few iterations; stops early when a full pass upgrades nothing.
func fillGapsAndRepack(initial []Size) ([]placement, int) {
	const maxIterations = 3

	sizes := make([]Size, len(initial))
	copy(sizes, initial)

	for iter := 0; iter < maxIterations; iter++ {
		placements := packTiles(sizes)

		totalRows := 0
		occupiedCount := 0
		for _, p := range placements {
			if p.row+p.rows > totalRows {
				totalRows = p.row + p.rows
			}
			occupiedCount += p.cols * p.rows
		}

		empty := GridCols*totalRows - occupiedCount
		if empty <= 0 {
			return placements, totalRows
		}

		changed := false
		for i := len(sizes) - 1; i >= 0 && empty > 0; i-- {
			up, ok := upgrade(sizes[i])
			if !ok {
				continue
			}
			gained := up.area() - sizes[i].area()
			if gained <= empty {
				sizes[i] = up
				empty -= gained
				changed = true
			}
		}
		if !changed {
			return placements, totalRows
		}
	}

	placements := packTiles(sizes)
	totalRows := 0
	for _, p := range placements {
		if p.row+p.rows > totalRows {
			totalRows = p.row + p.rows
		}
	}
	return placements, totalRows
}

// Compute lays out the goals that still need attention today (no log yet) as
// non-overlapping rectangles inside the viewport.
func Compute(goals []GoalTile, width, height int) Result {
	active := make([]GoalTile, 0, len(goals))
	for _, g := range goals {
		if !g.HasTodayLog {
			active = append(active, g)
		}
	}

	switch len(active) {
	case 0:
		return Result{}
	case 1:
		return Result{Tiles: []Tile{{
			GoalID: active[0].Goal.ID,
			X:      0, Y: 0, Width: width, Height: height,
			Goal: active[0].Goal,
		}}}
	case 2:
		half := height / 2
		tiles := make([]Tile, 2)
		for i, g := range active {
			tiles[i] = Tile{
				GoalID: g.Goal.ID,
				X:      0, Y: i * half, Width: width, Height: half,
				Goal: g.Goal,
			}
		}
		return Result{Tiles: tiles}
	case 3:
		// The goal doing worst gets the full-width top half.
		sorted := make([]GoalTile, 3)
		copy(sorted, active)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CompletionRate < sorted[j].CompletionRate
		})
		halfH := height / 2
		halfW := width / 2
		return Result{Tiles: []Tile{
			{GoalID: sorted[0].Goal.ID, X: 0, Y: 0, Width: width, Height: halfH, Goal: sorted[0].Goal},
			{GoalID: sorted[1].Goal.ID, X: 0, Y: halfH, Width: halfW, Height: halfH, Goal: sorted[1].Goal},
			{GoalID: sorted[2].Goal.ID, X: halfW, Y: halfH, Width: halfW, Height: halfH, Goal: sorted[2].Goal},
		}}
	case 4:
		return fromPredefined(predefined4, active, width, height)
	case 5:
		return fromPredefined(predefined5, active, width, height)
	case 6:
		return fromPredefined(predefined6, active, width, height)
	}

	return fromPacking(active, width, height)
}

func fromPredefined(pattern []fixedPlacement, goals []GoalTile, width, height int) Result {
	maxRow := 0
	for _, p := range pattern {
		_, rows := p.size.Dims()
		if p.row+rows > maxRow {
			maxRow = p.row + rows
		}
	}

	cellW := float64(width) / GridCols
	cellH := float64(height) / float64(maxRow)

	tiles := make([]Tile, len(pattern))
	for i, p := range pattern {
		cols, rows := p.size.Dims()
		x := int(float64(p.col) * cellW)
		y := int(float64(p.row) * cellH)
		tiles[i] = Tile{
			GoalID: goals[i].Goal.ID,
			X:      x,
			Y:      y,
			Width:  int(float64(p.col+cols)*cellW) - x,
			Height: int(float64(p.row+rows)*cellH) - y,
			Goal:   goals[i].Goal,
		}
	}
	return Result{Tiles: tiles}
}

func fromPacking(goals []GoalTile, width, height int) Result {
	placements, totalRows := fillGapsAndRepack(assignSizes(len(goals)))

	cellW := float64(width) / GridCols
	cellH := float64(height) / float64(totalRows)
	if cellH < MinCellHeight {
		cellH = MinCellHeight
	}

	result := Result{}
	for i := 0; i < len(placements) && i < len(goals); i++ {
		p := placements[i]
		x := int(float64(p.col) * cellW)
		y := int(float64(p.row) * cellH)
		w := int(float64(p.col+p.cols)*cellW) - x
		h := int(float64(p.row+p.rows)*cellH) - y

		// Tiles past the bottom edge are dropped, not squeezed.
		if y+h > height+1 {
			result.Overflow++
			continue
		}

		result.Tiles = append(result.Tiles, Tile{
			GoalID: goals[i].Goal.ID,
			X:      x, Y: y, Width: w, Height: h,
			Goal: goals[i].Goal,
		})
	}
	return result
}
