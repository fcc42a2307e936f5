package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Keyed wraps a Cache with single-flight miss de-duplication: N
// concurrent misses on one key run the compute function exactly once
// and share its result. The computation runs on a detached context so
// an originating caller's cancellation still warms the cache for
// everyone else.
type Keyed struct {
	store Cache
	group singleflight.Group
	ttl   time.Duration
}

func NewKeyed(store Cache, ttl time.Duration) *Keyed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Keyed{store: store, ttl: ttl}
}

// Do returns the cached payload for key, computing and write-through
// caching it on a miss. A nil payload from compute means "do not
// cache"; callers use it to survive serialization failures. The hit
// flag reports whether the payload came from the cache.
func (k *Keyed) Do(ctx context.Context, key string, compute func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if e, err := k.store.Get(ctx, key); err == nil {
		return e.Payload, true, nil
	}

	ch := k.group.DoChan(key, func() (interface{}, error) {
		detached := context.WithoutCancel(ctx)
		payload, err := compute(detached)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			if serr := k.store.Set(detached, key, payload, k.ttl); serr != nil {
				log.Warn().Err(serr).Str("key", key).Msg("Cache write failed, result served uncached")
			}
		}
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		payload, _ := res.Val.([]byte)
		return payload, false, nil
	case <-ctx.Done():
		// the in-flight computation keeps running and populates the
		// cache for subsequent callers
		return nil, false, ctx.Err()
	}
}

// Invalidate drops the key from the backing store.
func (k *Keyed) Invalidate(ctx context.Context, key string) error {
	return k.store.Invalidate(ctx, key)
}
