package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// printer writes status lines, colorized when enabled.
type printer struct {
	out   io.Writer
	err   io.Writer
	quiet bool

	ok   *color.Color
	fail *color.Color
	dim  *color.Color
}

func newPrinter(env *Environment, quiet bool) *printer {
	p := &printer{
		out:   env.Stdout,
		err:   env.Stderr,
		quiet: quiet,
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed, color.Bold),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.dim} {
		if env.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// success prints "<verb> <path>" unless quiet.
func (p *printer) success(verb, path string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.ok.Sprint(verb), path)
}

// failure prints "FAILED <path>: <err>" to stderr.
func (p *printer) failure(path string, err error) {
	fmt.Fprintf(p.err, "%s %s: %v\n", p.fail.Sprint("FAILED"), path, err)
}

// info prints a plain line unless quiet.
func (p *printer) info(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// swatch renders text in the given hex color when color output is enabled.
// Non-hex colors (CSS names) are printed unstyled.
func (p *printer) swatch(hex, text string) string {
	if !colorEnabled(p.ok) {
		return text
	}
	r, g, b, ok := parseHex(hex)
	if !ok {
		return text
	}
	c := color.RGB(r, g, b)
	c.EnableColor()
	return c.Sprint(text)
}

// colorEnabled reports whether c emits escape sequences.
func colorEnabled(c *color.Color) bool {
	return c.Sprint("x") != "x"
}

// parseHex decodes #RGB or #RRGGBB.
func parseHex(s string) (r, g, b int, ok bool) {
	if !strings.HasPrefix(s, "#") {
		return 0, 0, 0, false
	}
	digits := s[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
}
