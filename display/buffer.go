// Package display draws an opened document to a terminal screen. It is
// deliberately minimal: a competent engineer
// reproduces a real TUI's rendering (soft wrap, syntax highlighting,
// selection, grapheme clusters) quickly, and none of that touches the
// storage engine's invariants. This package is trimmed to a minimal
// adapter over text.Rope so cmd/niv has something to draw while a
// document is open; it does not attempt line wrapping, syntax tokens,
// or multi-byte grapheme-cluster width accounting the way a real editor
// front-end would.
package display

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/SkuldNorniern/niv/internal/pkg/text"
)

// DrawBuffer renders rope's content starting at topLine, filling the
// screen's current size, and positions the terminal cursor at
// (cursorLine, cursorCol). Line numbers are shown in a left margin when
// showLineNumbers is set.
func DrawBuffer(screen tcell.Screen, rope *text.Rope, topLine, cursorLine, cursorCol uint64, showLineNumbers bool) {
	width, height := screen.Size()
	screen.Clear()

	margin := 0
	if showLineNumbers {
		margin = lineNumMarginWidth(rope.TotalLines())
	}

	off, err := rope.LineStartOffset(topLine)
	if err != nil {
		return
	}

	style := tcell.StyleDefault
	lineNumStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)

	line := topLine
	row := 0
	col := margin
	chunks, err := rope.Slice(off, rope.Len())
	if err != nil {
		return
	}

	if showLineNumbers {
		drawLineNum(screen, row, margin, line, lineNumStyle)
	}

	for _, chunk := range chunks {
		for _, b := range chunk.Bytes {
			if row >= height {
				goto done
			}
			if b == '\n' {
				row++
				col = margin
				line++
				if row < height && showLineNumbers {
					drawLineNum(screen, row, margin, line, lineNumStyle)
				}
				continue
			}
			if col < width {
				screen.SetContent(col, row, rune(b), nil, style)
			}
			col++
		}
	}
done:

	if cursorLine >= topLine {
		screen.ShowCursor(margin+int(cursorCol), int(cursorLine-topLine))
	}
	screen.Show()
}

func drawLineNum(screen tcell.Screen, row, margin int, line uint64, style tcell.Style) {
	s := strconv.FormatUint(line+1, 10)
	col := margin - 1 - len(s)
	for _, r := range s {
		if col >= 0 {
			screen.SetContent(col, row, r, nil, style)
		}
		col++
	}
}

func lineNumMarginWidth(totalLines uint64) int {
	digits := len(strconv.FormatUint(totalLines+1, 10))
	if digits < 3 {
		digits = 3
	}
	return digits + 1
}
