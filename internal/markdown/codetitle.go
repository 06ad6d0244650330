package markdown

import (
	"html"
	"regexp"
	"strings"
)

const (
	blockTitlePrefix = "<!-- BLOCK_TITLE:"
	blockTitleSuffix = "-->"
)

var fenceTitle = regexp.MustCompile(`^([^\s\[]*)\s*\[([^\]]*)\]\s*$`)

// splitFenceTitle separates a `lang [title]` info string. ok is false when
// the info string carries no bracket title.
func splitFenceTitle(info string) (lang, title string, ok bool) {
	match := fenceTitle.FindStringSubmatch(strings.TrimSpace(info))
	if match == nil {
		return "", "", false
	}
	title = strings.TrimSpace(match[2])
	if title == "" {
		return "", "", false
	}
	return match[1], title, true
}

// emptyFenceTitle reports whether info ends in a blank `[]` title and returns
// the language without it.
func emptyFenceTitle(info string) (string, bool) {
	match := fenceTitle.FindStringSubmatch(strings.TrimSpace(info))
	if match == nil || strings.TrimSpace(match[2]) != "" {
		return "", false
	}
	return match[1], true
}

// blockTitleComment renders the marker line carrying a code block title.
func blockTitleComment(title string) string {
	return blockTitlePrefix + " " + html.EscapeString(title) + " " + blockTitleSuffix
}

// parseBlockTitleComment extracts the (still escaped) title from a marker
// line.
func parseBlockTitleComment(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, blockTitlePrefix) || !strings.HasSuffix(trimmed, blockTitleSuffix) {
		return "", false
	}
	title := strings.TrimSpace(trimmed[len(blockTitlePrefix) : len(trimmed)-len(blockTitleSuffix)])
	return title, title != ""
}

// extractCodeTitles rewrites ```lang [title] openers into a plain opener
// followed by a BLOCK_TITLE comment. When the block already starts with a
// BLOCK_TITLE comment the bracket title replaces it.
func extractCodeTitles(lines []string) []string {
	out := make([]string, 0, len(lines))
	var tracker fenceTracker

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if tracker.step(line) != lineFenceOpen {
			out = append(out, line)
			continue
		}

		f, indent, info, _ := parseFenceOpen(line)
		opener := indent + strings.Repeat(string(f.marker), f.length)
		lang, title, ok := splitFenceTitle(info)
		if !ok {
			if bare, empty := emptyFenceTitle(info); empty {
				line = opener + bare
			}
			out = append(out, line)
			continue
		}

		out = append(out, opener+lang, blockTitleComment(title))
		if i+1 < len(lines) && !closesFence(lines[i+1], f) {
			if _, existing := parseBlockTitleComment(lines[i+1]); existing {
				i++
				tracker.step(lines[i])
			}
		}
	}
	return out
}

// normalizeSpacing inserts a blank line between a closing fence and a fence
// opened on the very next line so they parse as separate blocks.
func normalizeSpacing(lines []string) []string {
	out := make([]string, 0, len(lines)+4)
	var tracker fenceTracker
	prevClosed := false

	for _, line := range lines {
		kind := tracker.step(line)
		if kind == lineFenceOpen && prevClosed {
			out = append(out, "")
		}
		out = append(out, line)
		prevClosed = kind == lineFenceClose
	}
	return out
}
