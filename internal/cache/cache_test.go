package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("https://example.com", 1440, 900, "t2")
	b := Key("https://example.com", 1440, 900, "t2")
	assert.Equal(t, a, b)
	assert.True(t, len(a) > len("cc:"))
	assert.Equal(t, "cc:", a[:3])
}

func TestKeySensitivity(t *testing.T) {
	base := Key("https://example.com", 1440, 900, "t2")

	assert.NotEqual(t, base, Key("https://example.com/pricing", 1440, 900, "t2"))
	assert.NotEqual(t, base, Key("https://example.com", 390, 844, "t2"))
	assert.NotEqual(t, base, Key("https://example.com", 1440, 900, "t1"))
}

func TestKeyNormalizesEquivalentURLs(t *testing.T) {
	base := Key("https://example.com/pricing", 1440, 900, "t2")

	assert.Equal(t, base, Key("HTTPS://EXAMPLE.COM/pricing", 1440, 900, "t2"))
	assert.Equal(t, base, Key("https://example.com:443/pricing", 1440, 900, "t2"))
	assert.Equal(t, base, Key("https://example.com/pricing#reviews", 1440, 900, "t2"))
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://Example.COM/Path", "https://example.com/Path"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"https://example.com:8443/a", "https://example.com:8443/a"},
		{"https://example.com/", "https://example.com"},
		{"https://example.com/?q=1", "https://example.com/?q=1"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{"  https://example.com  ", "https://example.com"},
		{"not a url", "not a url"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeURL(tc.in))
		})
	}
}
