package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 24
	axisLabelTop        = "max"
	axisLabelBottom     = "0"
	axisSeparator       = " │ "
	plotColor           = "\x1b[36m"
	markerColor         = "\x1b[33m"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// PlotDensity draws a day-long density curve (values spread evenly over
// 00:00-24:00) as a braille line plot. When marker is within [0, 24) the
// column for that hour is highlighted.
func PlotDensity(w io.Writer, title string, values []float64, marker float64, width, height int, forceColor bool) error {
	if len(values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	// Two braille dots per cell horizontally.
	dotsX := width * 2
	dotsY := height * 4
	samples := resampleCircular(values, dotsX)
	maxVal := 0.0
	for _, v := range samples {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	prevX, prevY := -1, -1
	for x, v := range samples {
		y := int(math.Round((1 - v/maxVal) * float64(dotsY-1)))
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, x, y)
		}
		prevX, prevY = x, y
	}

	markerCol := -1
	if marker >= 0 && marker < hoursPerDay {
		markerCol = int(marker / hoursPerDay * float64(width))
	}
	useColor := shouldUseColor(w, forceColor)
	axisWidth := utf8.RuneCountInString(axisLabelTop)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = axisLabelTop
		case height - 1:
			label = axisLabelBottom
		}
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisWidth, label, axisSeparator))
		for x := 0; x < width; x++ {
			ch := brailleFromMask(cells[y][x])
			switch {
			case !useColor:
				row.WriteRune(ch)
			case x == markerCol:
				row.WriteString(markerColor + string(ch) + colorReset)
			default:
				row.WriteString(plotColor + string(ch) + colorReset)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	pad := strings.Repeat(" ", axisWidth+utf8.RuneCountInString(axisSeparator))
	if _, err := fmt.Fprintln(w, pad+hourAxis(width)); err != nil {
		return err
	}
	return nil
}

// hourAxis labels 00, 06, 12 and 18 at their column positions.
func hourAxis(width int) string {
	axis := []rune(strings.Repeat(" ", width))
	for _, h := range []int{0, 6, 12, 18} {
		col := h * width / 24
		label := fmt.Sprintf("%02d", h)
		for i, r := range label {
			if col+i < len(axis) {
				axis[col+i] = r
			}
		}
	}
	return string(axis)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth - 1
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// resampleCircular linearly interpolates values onto n points, treating the
// series as periodic.
func resampleCircular(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 0 || n <= 0 {
		return out
	}
	for i := 0; i < n; i++ {
		pos := float64(i) * float64(len(values)) / float64(n)
		idx := int(math.Floor(pos))
		frac := pos - float64(idx)
		a := values[idx%len(values)]
		b := values[(idx+1)%len(values)]
		out[i] = a*(1-frac) + b*frac
	}
	return out
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// Braille dot bits, column-major, rows 0-3.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func brailleDotMask(x, y int) uint8 {
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return brailleBits[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
