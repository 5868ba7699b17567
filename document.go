package log2html

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// html.EscapeString emits &#34; for double quotes; the output format
// requires &quot;.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes &, <, >, " and ' for use in HTML text and attributes.
func EscapeHTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlEscaper.Replace(s)
}

// writeHeader writes the document prologue up to and including the page
// heading. Theme colors are expected to be normalized.
func writeHeader(w io.Writer, inputPath string, theme Theme) error {
	name := EscapeHTML(filepath.Base(inputPath))
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n"+
		"<html lang=\"en\">\n"+
		"<head>\n"+
		"<meta charset=\"utf-8\" />\n"+
		"<title>%s</title>\n"+
		"<style>body{font-family:Consolas,monospace;background:%s;color:%s;margin:0} .l{white-space:pre; padding:0 8px;}</style>\n"+
		"</head>\n"+
		"<body>\n"+
		"<h3 style=\"margin:8px\">%s</h3>\n",
		name, cssValue(theme.Background), cssValue(theme.Foreground), name)
	return err
}

// writeFooter closes the document.
func writeFooter(w io.Writer) error {
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}

// cssValue keeps a color from breaking out of its declaration or the
// surrounding <style> block.
func cssValue(v string) string {
	v = strings.ReplaceAll(v, "</", `<\/`)
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}':
			return -1
		}
		return r
	}, v)
}
