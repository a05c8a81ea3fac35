package layout

import (
	"reflect"
	"testing"

	"github.com/julianstephens/habitgrid/internal/models"
)

func makeTiles(n int) []GoalTile {
	tiles := make([]GoalTile, n)
	for i := range tiles {
		tiles[i] = GoalTile{
			Goal:           models.Goal{ID: string(rune('a' + i)), Title: "goal"},
			CompletionRate: float64(i) / 10,
		}
	}
	return tiles
}

func overlaps(a, b Tile) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

func assertNoOverlap(t *testing.T, tiles []Tile) {
	t.Helper()
	for i := 0; i < len(tiles); i++ {
		for j := i + 1; j < len(tiles); j++ {
			if overlaps(tiles[i], tiles[j]) {
				t.Errorf("tiles %s and %s overlap: %+v vs %+v",
					tiles[i].GoalID, tiles[j].GoalID, tiles[i], tiles[j])
			}
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	res := Compute(nil, 400, 800)
	if len(res.Tiles) != 0 || res.Overflow != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestComputeAllLoggedToday(t *testing.T) {
	tiles := makeTiles(3)
	for i := range tiles {
		tiles[i].HasTodayLog = true
	}
	res := Compute(tiles, 400, 800)
	if len(res.Tiles) != 0 {
		t.Errorf("logged goals should not produce tiles, got %d", len(res.Tiles))
	}
}

func TestComputeSingleGoalFullScreen(t *testing.T) {
	res := Compute(makeTiles(1), 400, 800)
	if len(res.Tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(res.Tiles))
	}
	tile := res.Tiles[0]
	if tile.X != 0 || tile.Y != 0 || tile.Width != 400 || tile.Height != 800 {
		t.Errorf("single tile should fill the viewport, got %+v", tile)
	}
}

func TestComputeTwoGoalsVerticalSplit(t *testing.T) {
	res := Compute(makeTiles(2), 400, 800)
	if len(res.Tiles) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(res.Tiles))
	}
	if res.Tiles[0].Y != 0 || res.Tiles[1].Y != 400 {
		t.Errorf("expected 0/400 vertical split, got %d/%d", res.Tiles[0].Y, res.Tiles[1].Y)
	}
	for _, tile := range res.Tiles {
		if tile.Width != 400 || tile.Height != 400 {
			t.Errorf("expected 400x400 tiles, got %+v", tile)
		}
	}
}

func TestComputeThreeGoalsWorstOnTop(t *testing.T) {
	tiles := makeTiles(3)
	tiles[0].CompletionRate = 0.9
	tiles[1].CompletionRate = 0.1 // worst
	tiles[2].CompletionRate = 0.5
	res := Compute(tiles, 400, 800)
	if len(res.Tiles) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(res.Tiles))
	}
	top := res.Tiles[0]
	if top.GoalID != tiles[1].Goal.ID {
		t.Errorf("worst-rate goal should get the top tile, got %s", top.GoalID)
	}
	if top.Width != 400 || top.Height != 400 || top.Y != 0 {
		t.Errorf("top tile should span full width, got %+v", top)
	}
	assertNoOverlap(t, res.Tiles)
}

func TestComputePredefinedPatternsFillExactly(t *testing.T) {
	// 4, 5, and 6 goals use hand-tuned patterns that tile the grid with no
	// gaps, so tile areas must sum to the full viewport area.
	const w, h = 400, 800
	for _, n := range []int{4, 5, 6} {
		res := Compute(makeTiles(n), w, h)
		if len(res.Tiles) != n {
			t.Fatalf("count=%d: expected %d tiles, got %d", n, n, len(res.Tiles))
		}
		area := 0
		for _, tile := range res.Tiles {
			area += tile.Width * tile.Height
		}
		if area != w*h {
			t.Errorf("count=%d: tile areas sum to %d, want %d", n, area, w*h)
		}
		assertNoOverlap(t, res.Tiles)
	}
}

func TestComputePackedLayoutNoOverlap(t *testing.T) {
	for _, n := range []int{7, 8, 9, 12, 20} {
		res := Compute(makeTiles(n), 400, 4000)
		if len(res.Tiles) == 0 {
			t.Fatalf("count=%d: got no tiles", n)
		}
		assertNoOverlap(t, res.Tiles)
		for _, tile := range res.Tiles {
			if tile.X < 0 || tile.X+tile.Width > 400 {
				t.Errorf("count=%d: tile %s exceeds horizontal bounds: %+v", n, tile.GoalID, tile)
			}
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute(makeTiles(9), 400, 800)
	b := Compute(makeTiles(9), 400, 800)
	if len(a.Tiles) != len(b.Tiles) || a.Overflow != b.Overflow {
		t.Fatalf("results differ in shape: %d/%d vs %d/%d",
			len(a.Tiles), a.Overflow, len(b.Tiles), b.Overflow)
	}
	for i := range a.Tiles {
		if !reflect.DeepEqual(a.Tiles[i], b.Tiles[i]) {
			t.Errorf("tile %d differs between runs: %+v vs %+v", i, a.Tiles[i], b.Tiles[i])
		}
	}
}

func TestComputeOverflowDropsTiles(t *testing.T) {
	// A short viewport with many goals forces the minimum cell height, so
	// some rows land past the bottom edge and must be counted, not squeezed.
	res := Compute(makeTiles(20), 400, 100)
	if res.Overflow == 0 {
		t.Error("expected overflow tiles to be dropped and counted")
	}
	for _, tile := range res.Tiles {
		if tile.Y+tile.Height > 101 {
			t.Errorf("tile %s extends past viewport: %+v", tile.GoalID, tile)
		}
	}
}

func TestAssignSizesHeroTile(t *testing.T) {
	small := assignSizes(8)
	if small[0] != SizeWide {
		t.Errorf("hero tile for count<=8 should be 2x2, got %v", small[0])
	}
	big := assignSizes(9)
	if big[0] != SizeLarge {
		t.Errorf("hero tile for count>8 should be 4x2, got %v", big[0])
	}
}

func TestDowngradeChainTerminates(t *testing.T) {
	for _, start := range []Size{SizeLarge, SizeWide, SizeMediumTall, SizeMediumWide, SizeSmall} {
		s := start
		for i := 0; ; i++ {
			next, ok := downgrade(s)
			if !ok {
				break
			}
			s = next
			if i > 5 {
				t.Fatalf("downgrade chain from %v does not terminate", start)
			}
		}
		if s != SizeSmall {
			t.Errorf("downgrade chain from %v ends at %v, want SizeSmall", start, s)
		}
	}
}
