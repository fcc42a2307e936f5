package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL is how long analysis results stay warm (6 hours).
const DefaultTTL = 21600 * time.Second

// Entry is a cached payload with its creation time and TTL. An entry
// read after CreatedAt+TTL is a miss.
type Entry struct {
	Key        string    `json:"key"`
	Payload    []byte    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= time.Duration(e.TTLSeconds)*time.Second
}

// Cache is the storage capability behind the analysis cache. Memory
// serves tests and single-node deployments, Redis serves production.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Key derives the deterministic cache key for one analysis unit.
func Key(rawURL string, viewportWidth, viewportHeight int, timingProfile string) string {
	material := fmt.Sprintf("%s|%d|%d|%s",
		NormalizeURL(rawURL), viewportWidth, viewportHeight, timingProfile)
	sum := sha256.Sum256([]byte(material))
	return "cc:" + hex.EncodeToString(sum[:])
}

// NormalizeURL canonicalizes a URL for keying: lowercase scheme and
// host, default ports stripped, fragment dropped, trailing slash on a
// bare path removed. Unparseable input is keyed as-is.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}

	return u.String()
}
