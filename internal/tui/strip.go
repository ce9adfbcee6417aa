package tui

import "github.com/mattn/go-runewidth"

const (
	maxLabelWidth = 14
	cellGap       = 1
	cellPadding   = 2
)

// cell is the horizontal extent of one token label in the strip row.
type cell struct {
	index int
	start int
	width int
	label string
}

// layoutStrip picks the run of token labels that fits in width, keeping the
// last revealed token in view. Positions are in terminal cells.
func layoutStrip(labels []string, cursor, width int) []cell {
	n := len(labels)
	if n == 0 || width <= 0 {
		return nil
	}

	texts := make([]string, n)
	widths := make([]int, n)

	for i, l := range labels {
		texts[i] = stripLabel(l)
		widths[i] = runewidth.StringWidth(texts[i]) + cellPadding
	}

	focus := min(max(cursor-1, 0), n-1)
	first, last := focus, focus
	used := widths[focus]

	// Half the row for context behind the focus, the rest ahead of it.
	for first > 0 && used+cellGap+widths[first-1] <= width/2 {
		first--
		used += cellGap + widths[first]
	}

	for last < n-1 && used+cellGap+widths[last+1] <= width {
		last++
		used += cellGap + widths[last]
	}

	for first > 0 && used+cellGap+widths[first-1] <= width {
		first--
		used += cellGap + widths[first]
	}

	cells := make([]cell, 0, last-first+1)
	x := 0

	for i := first; i <= last; i++ {
		cells = append(cells, cell{index: i, start: x, width: widths[i], label: texts[i]})
		x += widths[i] + cellGap
	}

	return cells
}

// hitCell returns the token index under column x.
func hitCell(cells []cell, x int) (int, bool) {
	for _, c := range cells {
		if x >= c.start && x < c.start+c.width {
			return c.index, true
		}
	}

	return 0, false
}

func stripLabel(label string) string {
	if label == "" {
		return "∅"
	}

	return truncate(label, maxLabelWidth)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
