// Package chart plots session lengths.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/julianstephens/habitual/internal/timer"
)

const (
	minWidth  = 10
	minHeight = 4

	pointRune = '●'
	lineRune  = '·'

	FirstSessionNote = "This is your first session. Keep practicing to see your progress!"
	EmptyMessage     = "No sessions recorded yet."
)

// Frame is the drawing area. Padding is kept clear on every side.
type Frame struct {
	Width   float64
	Height  float64
	Padding float64
}

// Point is one session placed in a Frame. Y grows downwards.
type Point struct {
	X       float64
	Y       float64
	Seconds int
}

// Points spreads sessions evenly across the frame and scales their length
// against the longest one, keeping every point inside the frame. A single session is returned twice so the scale
// is still defined. No sessions gives nil.
func Points(sessions []int, f Frame) []Point {
	if len(sessions) == 0 {
		return nil
	}
	normalized := sessions
	if len(sessions) == 1 {
		normalized = []int{sessions[0], sessions[0]}
	}

	graphWidth := f.Width - 2*f.Padding
	graphHeight := f.Height - 2*f.Padding

	maxMinutes := 0.0
	for _, s := range normalized {
		maxMinutes = math.Max(maxMinutes, float64(s)/60)
	}

	step := graphWidth / float64(max(len(normalized)-1, 1))
	points := make([]Point, len(normalized))
	for i, s := range normalized {
		ratio := 0.0
		if maxMinutes > 0 {
			// negative lengths only come from hand-edited data; plot them at 0
			ratio = math.Max(0, (float64(s)/60)/maxMinutes)
		}
		points[i] = Point{
			X:       f.Padding + float64(i)*step,
			Y:       f.Height - (f.Padding + ratio*graphHeight),
			Seconds: s,
		}
	}
	return points
}

// Render draws sessions as a text plot of the given plot-area size. Lines
// between points are drawn only when there are at least two sessions.
func Render(sessions []int, width, height int) string {
	if len(sessions) == 0 {
		return EmptyMessage
	}
	width = max(width, minWidth)
	height = max(height, minHeight)

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	points := Points(sessions, Frame{Width: float64(width - 1), Height: float64(height - 1)})
	cells := make([][2]int, len(points))
	longest := 0
	for i, p := range points {
		cells[i] = [2]int{int(math.Round(p.X)), int(math.Round(p.Y))}
		longest = max(longest, p.Seconds)
	}

	if len(sessions) > 1 {
		for i := 1; i < len(cells); i++ {
			drawLine(grid, cells[i-1], cells[i])
		}
	}
	for i := range sessions {
		grid[cells[i][1]][cells[i][0]] = pointRune
	}

	top := timer.FormatTime(longest)
	bottom := timer.FormatTime(0)
	margin := max(len(top), len(bottom))

	var b strings.Builder
	fmt.Fprintf(&b, "%*s\n", margin+8, "minutes")
	for r, row := range grid {
		label := ""
		switch r {
		case 0:
			label = top
		case height - 1:
			label = bottom
		}
		fmt.Fprintf(&b, "%*s │%s\n", margin, label, strings.TrimRight(string(row), " "))
	}
	fmt.Fprintf(&b, "%*s └%s\n", margin, "", strings.Repeat("─", width))

	labels := []rune(strings.Repeat(" ", width+1))
	for i := range sessions {
		writeLabel(labels, cells[i][0], strconv.Itoa(i+1))
	}
	fmt.Fprintf(&b, "%*s  %s\n", margin, "", strings.TrimRight(string(labels), " "))
	fmt.Fprintf(&b, "%*s  sessions", margin, "")

	if len(sessions) == 1 {
		b.WriteString("\n\n" + FirstSessionNote)
	}
	return b.String()
}

// writeLabel places text at col when the cells and one cell of spacing on
// the left are free.
func writeLabel(row []rune, col int, text string) {
	end := col + len(text)
	if end > len(row) {
		return
	}
	for c := max(col-1, 0); c < end; c++ {
		if row[c] != ' ' {
			return
		}
	}
	copy(row[col:], []rune(text))
}

func drawLine(grid [][]rune, from, to [2]int) {
	x0, y0 := from[0], from[1]
	x1, y1 := to[0], to[1]
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		grid[y0][x0] = lineRune
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
