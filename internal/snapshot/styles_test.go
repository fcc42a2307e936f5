package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"rgb(255, 255, 255)", RGB{255, 255, 255}, true},
		{"rgba(0, 0, 0, 0.5)", RGB{0, 0, 0}, true},
		{"rgb(12,34,56)", RGB{12, 34, 56}, true},
		{"#ffffff", RGB{255, 255, 255}, true},
		{"#1a2b3c", RGB{26, 43, 60}, true},
		{"#fff", RGB{255, 255, 255}, true},
		{"#abc", RGB{170, 187, 204}, true},
		{"white", RGB{255, 255, 255}, true},
		{"Black", RGB{0, 0, 0}, true},
		{"transparent", RGB{}, false},
		{"unknown", RGB{}, false},
		{"", RGB{}, false},
		{"rgb(300, 0, 0)", RGB{}, false},
		{"#zzzzzz", RGB{}, false},
		{"salmon-ish", RGB{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseColor(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseFontSize(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"16px", 16, true},
		{"14", 14, true},
		{"12pt", 16, true},
		{"1.5em", 24, true},
		{"1rem", 16, true},
		{"150%", 24, true},
		{"0px", 0, false},
		{"bogus", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseFontSize(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestParseLineHeight(t *testing.T) {
	cases := []struct {
		in     string
		fontPx float64
		want   float64
		ok     bool
	}{
		{"normal", 16, 1.2, true},
		{"24px", 16, 1.5, true},
		{"1.6", 16, 1.6, true},
		{"140%", 16, 1.4, true},
		{"unknown", 16, 0, false},
		{"", 16, 0, false},
		{"24px", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseLineHeight(tc.in, tc.fontPx)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestBold(t *testing.T) {
	assert.True(t, Bold("bold"))
	assert.True(t, Bold("Bolder"))
	assert.True(t, Bold("600"))
	assert.True(t, Bold("700"))
	assert.False(t, Bold("400"))
	assert.False(t, Bold("normal"))
	assert.False(t, Bold(""))
}
