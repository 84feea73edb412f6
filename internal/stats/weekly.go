package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

// WeekdayLabels are the matrix row labels, Monday first.
var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayIndex converts Go's Sunday=0 weekday to Monday=0.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeeklyActivity counts timestamps by weekday and hour of day. All 168 cells
// are present; unobserved cells are zero.
func WeeklyActivity(times []time.Time) model.WeeklyMatrix {
	var grid model.WeeklyMatrix
	for _, t := range times {
		grid[WeekdayIndex(t)][t.Hour()]++
	}
	return grid
}

// MatrixTotal sums every cell.
func MatrixTotal(m model.WeeklyMatrix) int {
	total := 0
	for d := range m {
		for h := range m[d] {
			total += m[d][h]
		}
	}
	return total
}

// HeatLevels holds quartile thresholds over the non-zero cells.
type HeatLevels struct {
	L2 int
	L3 int
	L4 int
}

// ComputeHeatLevels derives quartile thresholds from the non-zero cells.
func ComputeHeatLevels(m model.WeeklyMatrix) HeatLevels {
	var values []int
	for d := range m {
		for h := range m[d] {
			if m[d][h] > 0 {
				values = append(values, m[d][h])
			}
		}
	}
	if len(values) == 0 {
		return HeatLevels{L2: 2, L3: 3, L4: 4}
	}
	sort.Ints(values)
	n := len(values)
	return HeatLevels{
		L2: values[n/4],
		L3: values[n/2],
		L4: values[n*3/4],
	}
}

// Level returns the shading level (0-4) for a cell value.
func (l HeatLevels) Level(value int) int {
	switch {
	case value <= 0:
		return 0
	case value <= l.L2:
		return 1
	case value <= l.L3:
		return 2
	case value <= l.L4:
		return 3
	default:
		return 4
	}
}
