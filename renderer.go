package log2html

import "strings"

// spanOverhead approximates the bytes added by one highlight span.
const spanOverhead = len(`<span style="color:#RRGGBB"></span>`)

// LineColor returns the color of the first line-scope rule, in priority
// order, that matches anywhere in raw. The second result is false when no
// line rule matches. raw must be the unescaped line.
func (rs *RuleSet) LineColor(raw string) (string, bool) {
	if rs == nil || rs.line == nil {
		return "", false
	}
	m := rs.line

	// The combined scan finds the leftmost match. Only rules ranked above
	// the winner can still match elsewhere in the line.
	_, _, winner, ok := m.next(raw, 0)
	if !ok {
		return "", false
	}
	for i := 0; i < winner; i++ {
		if m.matchesAnywhere(raw, i) {
			return m.colors[i], true
		}
	}
	return m.colors[winner], true
}

// HighlightWords wraps every word-scope match in escaped with a colored span.
// Matches are non-overlapping and found left to right; at a given position
// the first rule in priority order wins. escaped must already be
// HTML-escaped with EscapeHTML.
func (rs *RuleSet) HighlightWords(escaped string) string {
	if rs == nil || rs.word == nil || escaped == "" {
		return escaped
	}
	m := rs.word

	var b strings.Builder
	last := 0
	for pos := 0; pos <= len(escaped); {
		start, end, idx, ok := m.next(escaped, pos)
		if !ok {
			break
		}
		pos = end
		if idx == len(m.colors) {
			continue // entity guard
		}
		if last == 0 && b.Len() == 0 {
			b.Grow(len(escaped) + spanOverhead)
		}
		b.WriteString(escaped[last:start])
		writeSpan(&b, m.colors[idx], escaped[start:end])
		last = end
	}
	if b.Len() == 0 {
		return escaped
	}
	b.WriteString(escaped[last:])
	return b.String()
}

// RenderLine converts one raw input line (without line terminator) into an
// HTML line container.
//
// Line-scope detection runs on the raw text, then the text is escaped, then
// word-scope spans are inserted into the escaped text. A line color styles
// the container; word spans keep their own color inside it.
func (rs *RuleSet) RenderLine(raw string) string {
	lineColor, hasLineColor := rs.LineColor(raw)
	body := rs.HighlightWords(EscapeHTML(raw))

	var b strings.Builder
	b.Grow(len(body) + 48)
	if hasLineColor {
		b.WriteString(`<div class="l" style="color:`)
		b.WriteString(EscapeHTML(lineColor))
		b.WriteString(`">`)
	} else {
		b.WriteString(`<div class="l">`)
	}
	b.WriteString(body)
	b.WriteString("</div>")
	return b.String()
}

func writeSpan(b *strings.Builder, color, text string) {
	b.WriteString(`<span style="color:`)
	b.WriteString(EscapeHTML(color))
	b.WriteString(`">`)
	b.WriteString(text)
	b.WriteString("</span>")
}
