// Package log2html converts plain-text log files to self-contained HTML
// documents where operator-defined keywords are shown in color.
//
// # Quick Start
//
// Compile the rules once, then convert files:
//
//	rules, err := log2html.Compile([]log2html.KeywordRule{
//	    {Keyword: "ERROR", Color: "#FF0000"},
//	    {Keyword: "panic", Color: "#FF00FF", Scope: log2html.ScopeLine},
//	}, log2html.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conv := log2html.NewConverter()
//	rec, err := conv.Convert(ctx, log2html.Job{
//	    InputPath: "app.log",
//	    OutputDir: "out",
//	    Rules:     rules,
//	    Theme:     log2html.DefaultTheme(),
//	})
//
// # Rules
//
// A rule is a literal keyword, a color and a scope. Word scope colors the
// matched text only; line scope colors the whole line. Keywords are never
// interpreted as regular expressions. When several rules match, the rule
// listed first wins.
//
// All rules of one scope are compiled into a single alternation, so the
// cost of rendering a line does not grow with the number of rules.
//
// # Rendering Order
//
// For every line:
//
//  1. Line rules are matched against the raw text to pick a line color.
//  2. The text is HTML-escaped.
//  3. Word rules are matched against the escaped text and wrapped in spans.
//  4. The result is wrapped in a <div class="l"> container.
//
// # Output
//
// Each input file produces <name>.html (UTF-8 with byte-order mark) in the
// output directory, overwriting any previous result. Input is streamed line
// by line; a UTF-8 or UTF-16 byte-order mark is detected automatically and
// other encodings can be named in Job.Encoding.
package log2html
