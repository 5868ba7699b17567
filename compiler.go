package log2html

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// entityGuard matches the entities produced by EscapeHTML. It is appended
// as the last alternative of the word matcher so that a keyword can never
// match inside an entity.
const entityGuard = `&(?:amp|lt|gt|quot|#39);`

// RuleSet is the compiled form of an ordered rule list.
// It is immutable after Compile and safe for concurrent use.
type RuleSet struct {
	line *matcher
	word *matcher
}

// matcher is one combined alternation for a single scope.
// Capture group i+1 belongs to the rule with priority i.
type matcher struct {
	re     *regexp.Regexp
	colors []string
	edges  []edges

	// rules holds one pattern per rule, used to find a higher-priority line
	// rule further right and to retry a position whose winner failed its
	// word boundary.
	rules []*regexp.Regexp

	// anchored holds the rule patterns and the guard anchored at the start,
	// indexed like ruleIndex. Nil unless some rule has a word boundary.
	anchored []*regexp.Regexp
}

// edges tells which sides of a match need a word boundary.
type edges struct {
	lead, trail bool
}

// compiledRule is an intermediate pattern and color pair.
type compiledRule struct {
	keyword string
	pattern string
	color   string
	edges   edges
}

// Compile builds a RuleSet from rules, preserving their order as priority.
//
// Blank keywords are skipped. Keywords are always literals. With
// opts.WholeWordOnly a token boundary is required next to every edge of the
// keyword that is a word character: a letter, digit or underscore in any
// script. Colors are normalized with NormalizeColor and stripped of CSS
// declaration separators. A rule's CaseSensitive field, when set, overrides
// opts.IgnoreCase.
//
// An empty rule list yields a valid RuleSet that highlights nothing.
func Compile(rules []KeywordRule, opts Options) (*RuleSet, error) {
	var lineRules, wordRules []compiledRule

	for _, r := range rules {
		if strings.TrimSpace(r.Keyword) == "" {
			continue
		}
		ignoreCase := r.ignoreCase(opts.IgnoreCase)
		color := cssValue(NormalizeColor(r.Color))
		bounds := keywordEdges(r.Keyword, opts.WholeWordOnly)

		if r.Scope == ScopeLine {
			lineRules = append(lineRules, compiledRule{
				keyword: r.Keyword,
				pattern: literalPattern(r.Keyword, ignoreCase),
				color:   color,
				edges:   bounds,
			})
			continue
		}

		// Word rules run against escaped text, so they match the escaped keyword.
		// Escaping only rewrites punctuation, so the edges are unchanged.
		wordRules = append(wordRules, compiledRule{
			keyword: r.Keyword,
			pattern: literalPattern(EscapeHTML(r.Keyword), ignoreCase),
			color:   color,
			edges:   bounds,
		})
	}

	line, err := buildMatcher(lineRules, "")
	if err != nil {
		return nil, err
	}
	word, err := buildMatcher(wordRules, entityGuard)
	if err != nil {
		return nil, err
	}

	return &RuleSet{line: line, word: word}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(rules []KeywordRule, opts Options) *RuleSet {
	rs, err := Compile(rules, opts)
	if err != nil {
		panic(err)
	}
	return rs
}

// LineRuleCount returns the number of active line-scope rules.
func (rs *RuleSet) LineRuleCount() int {
	if rs == nil || rs.line == nil {
		return 0
	}
	return len(rs.line.colors)
}

// WordRuleCount returns the number of active word-scope rules.
func (rs *RuleSet) WordRuleCount() int {
	if rs == nil || rs.word == nil {
		return 0
	}
	return len(rs.word.colors)
}

// literalPattern quotes keyword and adds case folding.
func literalPattern(keyword string, ignoreCase bool) string {
	pattern := regexp.QuoteMeta(keyword)
	if ignoreCase {
		return "(?i:" + pattern + ")"
	}
	return pattern
}

// keywordEdges returns the sides of keyword that need a word boundary: with
// wholeWord, every edge that is itself a word character. An edge that is
// punctuation already forms a transition.
func keywordEdges(keyword string, wholeWord bool) edges {
	if !wholeWord {
		return edges{}
	}
	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)
	return edges{lead: isWordRune(first), trail: isWordRune(last)}
}

// isWordRune reports whether r is a letter, digit, combining mark or
// connector punctuation such as '_', in any script.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsNumber(r) ||
		unicode.Is(unicode.Mn, r) ||
		unicode.Is(unicode.Pc, r)
}

// buildMatcher joins items into one alternation. guard, when non-empty, is
// appended as a trailing alternative owned by no rule.
// Returns nil when items is empty.
func buildMatcher(items []compiledRule, guard string) (*matcher, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	m := &matcher{
		colors: make([]string, len(items)),
		edges:  make([]edges, len(items)),
		rules:  make([]*regexp.Regexp, len(items)),
	}
	bounded := false

	for i, item := range items {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteByte('(')
		sb.WriteString(item.pattern)
		sb.WriteByte(')')
		m.colors[i] = item.color
		m.edges[i] = item.edges
		bounded = bounded || item.edges.lead || item.edges.trail

		re, err := regexp.Compile(item.pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: keyword %q: %v", ErrRuleCompile, item.keyword, err)
		}
		m.rules[i] = re
	}
	if guard != "" {
		sb.WriteString("|(")
		sb.WriteString(guard)
		sb.WriteByte(')')
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleCompile, err)
	}
	m.re = re

	if bounded {
		patterns := make([]string, 0, len(items)+1)
		for _, item := range items {
			patterns = append(patterns, item.pattern)
		}
		if guard != "" {
			patterns = append(patterns, guard)
		}
		m.anchored = make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			if m.anchored[i], err = regexp.Compile(`^(?:` + p + `)`); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRuleCompile, err)
			}
		}
	}
	return m, nil
}

// ruleIndex returns the priority of the rule whose group matched in loc,
// or len(m.colors) when only the guard matched.
func (m *matcher) ruleIndex(loc []int) int {
	for i := range m.colors {
		if loc[2*(i+1)] >= 0 {
			return i
		}
	}
	return len(m.colors)
}

// next finds the first match in s at or after from whose rule's word
// boundaries hold. idx is len(m.colors) for a guard match.
//
// At a given position the combined scan yields the first rule that matches
// there. When that rule fails its boundary, the lower-priority rules and the
// guard are tried at the same position before moving one rune right.
func (m *matcher) next(s string, from int) (start, end, idx int, ok bool) {
	for from <= len(s) {
		loc := m.re.FindStringSubmatchIndex(s[from:])
		if loc == nil {
			return 0, 0, 0, false
		}
		start, end = from+loc[0], from+loc[1]
		idx = m.ruleIndex(loc)
		if idx == len(m.colors) || m.bounded(s, start, end, idx) {
			return start, end, idx, true
		}
		if end, idx, ok = m.matchAt(s, start, idx+1); ok {
			return start, end, idx, true
		}
		if start == len(s) {
			break
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return 0, 0, 0, false
}

// matchAt tries the rules from priority first on, then the guard, anchored
// at start.
func (m *matcher) matchAt(s string, start, first int) (end, idx int, ok bool) {
	for j := first; j < len(m.anchored); j++ {
		loc := m.anchored[j].FindStringIndex(s[start:])
		if loc == nil {
			continue
		}
		end = start + loc[1]
		if j == len(m.colors) || m.bounded(s, start, end, j) {
			return end, j, true
		}
	}
	return 0, 0, false
}

// matchesAnywhere reports whether rule i matches somewhere in s with its
// word boundaries.
func (m *matcher) matchesAnywhere(s string, i int) bool {
	re := m.rules[i]
	for from := 0; from <= len(s); {
		loc := re.FindStringIndex(s[from:])
		if loc == nil {
			return false
		}
		start, end := from+loc[0], from+loc[1]
		if m.bounded(s, start, end, i) {
			return true
		}
		if start == len(s) {
			return false
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

// bounded reports whether s[start:end] has word boundaries where rule i
// requires them.
func (m *matcher) bounded(s string, start, end, i int) bool {
	e := m.edges[i]
	if e.lead && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if e.trail && end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}
