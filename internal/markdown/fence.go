package markdown

import "strings"

// fence describes an open fenced code block: the marker character (` or ~)
// and how many of them opened it.
type fence struct {
	marker byte
	length int
}

// lineKind is the role a line plays with respect to fenced code blocks.
type lineKind int

const (
	lineText lineKind = iota
	lineFenceOpen
	lineFenceBody
	lineFenceClose
)

// fenceTracker follows fenced code blocks line by line. The zero value
// starts outside any fence.
type fenceTracker struct {
	open   fence
	inside bool
}

// step classifies line and advances the tracker.
func (t *fenceTracker) step(line string) lineKind {
	if t.inside {
		if closesFence(line, t.open) {
			t.inside = false
			return lineFenceClose
		}
		return lineFenceBody
	}
	if f, _, _, ok := parseFenceOpen(line); ok {
		t.open = f
		t.inside = true
		return lineFenceOpen
	}
	return lineText
}

// parseFenceOpen recognises a fence opener with at most three spaces of
// indentation. It returns the indentation, the marker run and the trimmed
// info string. Backtick fences cannot carry backticks in their info string.
func parseFenceOpen(line string) (f fence, indent string, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return fence{}, "", "", false
	}
	marker := trimmed[0]
	if marker != '`' && marker != '~' {
		return fence{}, "", "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == marker {
		n++
	}
	if n < 3 {
		return fence{}, "", "", false
	}
	info = strings.TrimSpace(trimmed[n:])
	if marker == '`' && strings.ContainsRune(info, '`') {
		return fence{}, "", "", false
	}
	return fence{marker: marker, length: n}, line[:len(line)-len(trimmed)], info, true
}

// closesFence reports whether line closes a fence opened with f.
func closesFence(line string, f fence) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == f.marker {
		n++
	}
	return n >= f.length && strings.TrimSpace(trimmed[n:]) == ""
}

// isSingleFence reports whether lines hold exactly one fenced code block and
// nothing else apart from surrounding blank lines.
func isSingleFence(lines []string) bool {
	first, last := 0, len(lines)-1
	for first <= last && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	for last >= first && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last-first < 1 {
		return false
	}

	var tracker fenceTracker
	for i := first; i <= last; i++ {
		kind := tracker.step(lines[i])
		switch {
		case i == first && kind != lineFenceOpen:
			return false
		case i == last:
			return kind == lineFenceClose
		case kind == lineFenceClose:
			return false
		}
	}
	return false
}

func splitLines(src string) []string {
	return strings.Split(src, "\n")
}

func normalizeNewlines(src string) string {
	if !strings.Contains(src, "\r") {
		return src
	}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.ReplaceAll(src, "\r", "\n")
}

// trimBlankLines drops leading and trailing blank lines.
func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
