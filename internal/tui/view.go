package tui

import (
	"fmt"
	"strings"

	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case statePickProfile:
		return m.viewPickProfile()
	case statePinEntry:
		return m.viewPinEntry()
	default:
		return m.viewDashboard()
	}
}

func (m Model) viewPickProfile() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Who's tracking?"))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString("  No profiles yet. Run 'habitgrid user add <name>' first.\n")
	}
	for i, u := range m.users {
		cursor := "  "
		line := u.Name
		if u.PinHash != "" {
			line += " 🔒"
		}
		if i == m.cursor {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return docStyle.Render(b.String())
}

func (m Model) viewPinEntry() string {
	var b strings.Builder
	if m.pinForm != nil {
		b.WriteString(m.pinForm.View())
	}
	if m.pinError != "" {
		b.WriteString("\n" + dangerStyle.Render(m.pinError))
	}
	return docStyle.Render(b.String())
}

func (m Model) viewDashboard() string {
	board := m.renderTiles()

	status := m.statusLine()
	helpLine := m.help.View(m.keys)

	return board + "\n" + status + "\n" + helpLine
}

// renderTiles draws the mosaic on a rune canvas, one box per tile with its
// index, title, and 30-day rate.
func (m Model) renderTiles() string {
	cols := m.boardCols()
	rows := m.boardRows()

	canvas := make([][]rune, rows)
	for r := range canvas {
		canvas[r] = make([]rune, cols)
		for c := range canvas[r] {
			canvas[r][c] = ' '
		}
	}

	if len(m.tiles) == 0 {
		msg := "All done for today 🎉"
		if m.active != nil && m.streak.Current > 0 {
			msg = fmt.Sprintf("All done for today 🎉  %d-day streak", m.streak.Current)
		}
		row := rows / 2
		col := max((cols-len(msg))/2, 0)
		drawText(canvas, row, col, msg)
		return canvasString(canvas)
	}

	for i, tile := range m.tiles {
		x := tile.X / cellPxW
		y := tile.Y / cellPxH
		w := tile.Width / cellPxW
		h := tile.Height / cellPxH
		if w < 2 || h < 2 {
			continue
		}
		drawBox(canvas, y, x, h, w)

		label := fmt.Sprintf("%d. %s", i+1, tile.Goal.Title)
		drawText(canvas, y+1, x+2, clip(label, w-4))
		if h > 3 {
			detail := fmt.Sprintf("30d %.0f%%", m.rates[tile.GoalID]*100)
			drawText(canvas, y+2, x+2, clip(detail, w-4))
		}
	}

	return canvasString(canvas)
}

func (m Model) statusLine() string {
	name := ""
	if m.active != nil {
		name = m.active.Name
	}

	left := fmt.Sprintf(" %s · streak %d", name, m.streak.Current)

	badge := syncBadge(m.syncStatus)
	if m.overflow > 0 {
		badge += fmt.Sprintf(" · %d goals off-screen", m.overflow)
	}
	if m.errMsg != "" {
		badge += " · " + dangerStyle.Render(m.errMsg)
	}
	if m.skipArmed {
		badge += " · " + warningStyle.Render("skip: press a tile number")
	}

	gap := m.width - len(left) - len(badge) - 1
	if gap < 1 {
		gap = 1
	}
	return statusStyle.Render(left + strings.Repeat(" ", gap) + badge)
}

func syncBadge(s habsync.Status) string {
	switch s {
	case habsync.StatusSyncing:
		return "⟳ syncing"
	case habsync.StatusSuccess:
		return "✓ synced"
	case habsync.StatusError:
		return dangerStyle.Render("✗ sync error")
	case habsync.StatusOffline:
		return warningStyle.Render("⚠ offline")
	case habsync.StatusNotConfigured:
		return "local only"
	default:
		return string(s)
	}
}

func drawBox(canvas [][]rune, row, col, h, w int) {
	maxR := len(canvas)
	maxC := len(canvas[0])

	for c := col; c < col+w && c < maxC; c++ {
		if row < maxR {
			canvas[row][c] = '─'
		}
		if row+h-1 < maxR {
			canvas[row+h-1][c] = '─'
		}
	}
	for r := row; r < row+h && r < maxR; r++ {
		if col < maxC {
			canvas[r][col] = '│'
		}
		if col+w-1 < maxC {
			canvas[r][col+w-1] = '│'
		}
	}

	set := func(r, c int, ch rune) {
		if r >= 0 && r < maxR && c >= 0 && c < maxC {
			canvas[r][c] = ch
		}
	}
	set(row, col, '┌')
	set(row, col+w-1, '┐')
	set(row+h-1, col, '└')
	set(row+h-1, col+w-1, '┘')
}

func drawText(canvas [][]rune, row, col int, text string) {
	if row < 0 || row >= len(canvas) {
		return
	}
	for i, ch := range []rune(text) {
		c := col + i
		if c < 0 || c >= len(canvas[row]) {
			return
		}
		canvas[row][c] = ch
	}
}

func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

func canvasString(canvas [][]rune) string {
	lines := make([]string, len(canvas))
	for i, row := range canvas {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}
