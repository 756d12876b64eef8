package export

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// cssColor returns c when it is a hex color or a CSS color name and
// fallback otherwise. Colors end up inside style attributes, so anything
// else is rejected.
func cssColor(c, fallback string) string {
	c = strings.TrimSpace(c)
	if hexColor.MatchString(c) {
		return c
	}
	if _, ok := colornames.Map[strings.ToLower(c)]; ok {
		return strings.ToLower(c)
	}
	return fallback
}

// parseColor converts a CSS hex color or color name into a color.Color.
func parseColor(c string) (color.Color, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	if named, ok := colornames.Map[c]; ok {
		return named, true
	}
	if !hexColor.MatchString(c) {
		return nil, false
	}
	hex := c[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

func mustColor(c string, fallback color.Color) color.Color {
	if col, ok := parseColor(c); ok {
		return col
	}
	return fallback
}
