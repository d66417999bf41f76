package resync

import (
	"strings"
	"unicode/utf8"
)

// span is a located text range. Lines are 1-based and inclusive, columns are
// 1-based character offsets with an exclusive end.
type span struct {
	startLine int
	endLine   int
	startCol  int
	endCol    int
}

// cursor walks text forward while tracking the line and character column of
// its offset.
type cursor struct {
	text string
	off  int
	line int
	col  int
}

func newCursor(text string, firstLine int) *cursor {
	return &cursor{text: text, line: firstLine, col: 1}
}

func (c *cursor) advance(to int) {
	seg := c.text[c.off:to]
	if n := strings.Count(seg, "\n"); n > 0 {
		c.line += n
		c.col = 1 + utf8.RuneCountInString(seg[strings.LastIndexByte(seg, '\n')+1:])
	} else {
		c.col += utf8.RuneCountInString(seg)
	}
	c.off = to
}

// findAll returns every non-overlapping occurrence of needle in text, in scan
// order. firstLine is the line number of the first line of text.
func findAll(text, needle string, firstLine int) []span {
	if needle == "" {
		return nil
	}
	var out []span
	c := newCursor(text, firstLine)
	for from := 0; from <= len(text)-len(needle); {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(needle)

		c.advance(start)
		s := span{startLine: c.line, startCol: c.col}
		c.advance(end)
		s.endLine, s.endCol = c.line, c.col

		out = append(out, s)
		from = end
	}
	return out
}

// closest picks the span whose start line is nearest to line; ties go to the
// first one in scan order.
func closest(spans []span, line int) (span, bool) {
	if len(spans) == 0 {
		return span{}, false
	}
	best := spans[0]
	for _, s := range spans[1:] {
		if absInt(s.startLine-line) < absInt(best.startLine-line) {
			best = s
		}
	}
	return best, true
}

// sliceByCols reconstructs the text an annotation denotes inside lines, which
// must hold exactly the annotated line range. A nil startCol means column 1, a
// nil endCol means end of line; out-of-range columns clamp to the line.
func sliceByCols(lines []string, startCol, endCol *int) string {
	if len(lines) == 0 {
		return ""
	}
	first := []rune(lines[0])
	last := []rune(lines[len(lines)-1])

	s := 0
	if startCol != nil {
		s = clamp(*startCol-1, 0, len(first))
	}
	e := len(last)
	if endCol != nil {
		e = clamp(*endCol-1, 0, len(last))
	}

	if len(lines) == 1 {
		if e < s {
			e = s
		}
		return string(first[s:e])
	}

	var b strings.Builder
	b.WriteString(string(first[s:]))
	for _, l := range lines[1 : len(lines)-1] {
		b.WriteByte('\n')
		b.WriteString(l)
	}
	b.WriteByte('\n')
	b.WriteString(string(last[:e]))
	return b.String()
}

// anchor locates a multi-line selection by its trimmed first and last lines.
// lines is a window whose first element is line firstLine.
func anchor(lines []string, firstLine int, selected string, startLine, endLine int) (span, bool) {
	parts := strings.Split(selected, "\n")
	head := strings.TrimSpace(strings.TrimSuffix(parts[0], "\r"))
	tail := strings.TrimSpace(strings.TrimSuffix(parts[len(parts)-1], "\r"))
	if head == "" || tail == "" {
		return span{}, false
	}

	headIdx, headLine, headCol := -1, 0, 0
	for i, l := range lines {
		j := strings.Index(l, head)
		if j < 0 {
			continue
		}
		n := firstLine + i
		if headIdx < 0 || absInt(n-startLine) < absInt(headLine-startLine) {
			headIdx, headLine = i, n
			headCol = utf8.RuneCountInString(l[:j]) + 1
		}
	}
	if headIdx < 0 {
		return span{}, false
	}

	tailLine, tailCol := 0, 0
	for i := headIdx; i < len(lines); i++ {
		l := lines[i]
		j := strings.Index(l, tail)
		if j < 0 {
			continue
		}
		n := firstLine + i
		if tailLine == 0 || absInt(n-endLine) < absInt(tailLine-endLine) {
			tailLine = n
			tailCol = utf8.RuneCountInString(l[:j+len(tail)]) + 1
		}
	}
	if tailLine == 0 || tailLine < headLine {
		return span{}, false
	}

	return span{startLine: headLine, endLine: tailLine, startCol: headCol, endCol: tailCol}, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
