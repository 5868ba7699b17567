package log2html

import "strings"

// fallbackColor replaces empty or malformed hex colors.
const fallbackColor = "#000000"

// NormalizeColor converts a user-supplied color into a CSS color value.
//
//   - "" or whitespace -> "#000000"
//   - "red" (no '#')   -> "red", named colors pass through
//   - "#RGB", "#RRGGBB" -> unchanged
//   - "#AARRGGBB"       -> "#RRGGBB", alpha is dropped
//   - anything else starting with '#' -> "#000000"
//
// Surrounding whitespace is trimmed. Never fails.
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return fallbackColor
	}
	if !strings.HasPrefix(color, "#") {
		return color
	}

	digits := color[1:]
	if !isHex(digits) {
		return fallbackColor
	}

	switch len(digits) {
	case 3, 6:
		return color
	case 8:
		return "#" + digits[2:]
	}
	return fallbackColor
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'f'
		isUpper := c >= 'A' && c <= 'F'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}
