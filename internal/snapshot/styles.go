package snapshot

import (
	"regexp"
	"strconv"
	"strings"
)

// CSS value parsing for the handful of properties the detectors read.
// Unresolvable values return ok=false and the element is skipped, never
// penalized.

type RGB struct {
	R, G, B uint8
}

var (
	rgbRe  = regexp.MustCompile(`rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)`)
	sizeRe = regexp.MustCompile(`^([0-9.]+)(px|pt|em|rem|%)?$`)
)

var namedColors = map[string]RGB{
	"white":   {255, 255, 255},
	"black":   {0, 0, 0},
	"red":     {255, 0, 0},
	"green":   {0, 128, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
}

// ParseColor accepts rgb()/rgba(), #rrggbb, #rgb and common named colors.
func ParseColor(s string) (RGB, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "unknown" || s == "transparent" {
		return RGB{}, false
	}

	if m := rgbRe.FindStringSubmatch(s); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if r > 255 || g > 255 || b > 255 {
			return RGB{}, false
		}
		return RGB{uint8(r), uint8(g), uint8(b)}, true
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 6:
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return RGB{}, false
			}
			return RGB{uint8(v >> 16), uint8(v >> 8 & 0xff), uint8(v & 0xff)}, true
		case 3:
			v, err := strconv.ParseUint(hex, 16, 16)
			if err != nil {
				return RGB{}, false
			}
			r := uint8(v >> 8)
			g := uint8(v >> 4 & 0xf)
			b := uint8(v & 0xf)
			return RGB{r*16 + r, g*16 + g, b*16 + b}, true
		}
		return RGB{}, false
	}

	if c, ok := namedColors[s]; ok {
		return c, true
	}
	return RGB{}, false
}

// ParseFontSize converts a CSS font-size to pixels. Relative units
// assume the 16px browser default base.
func ParseFontSize(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	switch m[2] {
	case "", "px":
		return v, true
	case "pt":
		return v * 4.0 / 3.0, true
	case "em", "rem":
		return v * 16, true
	case "%":
		return v / 100 * 16, true
	}
	return 0, false
}

// ParseLineHeight resolves a CSS line-height to a ratio of the element's
// font size. "normal" maps to the typical browser default of 1.2.
func ParseLineHeight(s string, fontPx float64) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "unknown" {
		return 0, false
	}
	if s == "normal" {
		return 1.2, true
	}
	if strings.HasSuffix(s, "px") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil || fontPx <= 0 {
			return 0, false
		}
		return v / fontPx, true
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return v / 100, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bold reports whether a CSS font-weight value is bold for the purposes
// of the WCAG large-text rule.
func Bold(weight string) bool {
	w := strings.TrimSpace(strings.ToLower(weight))
	if strings.Contains(w, "bold") {
		return true
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n >= 600
	}
	return false
}
