package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vestibox/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	productoCachePrefix   = "producto:"
	productoVersionPrefix = "producto:ver:"

	// Version counters outlive any snapshot so a reset to zero cannot
	// resurrect a stale read.
	productoVersionTTL = 24 * time.Hour
)

var errVersionCambiada = errors.New("cache: producto version changed")

// ProductoCache keeps ProductoResponse snapshots in Redis. Every method is
// best effort: a Redis failure degrades to a cache miss, never to an error.
//
// Each producto has a version counter bumped by Invalidate. A reader that
// missed records the version it saw and Set only writes if the counter has
// not moved since, so a row read before a stock change commits is never
// cached after that change's invalidation.
type ProductoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductoCache(rdb *redis.Client, ttl time.Duration) *ProductoCache {
	return &ProductoCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached snapshot. On a miss it returns the version that
// must be passed to Set.
func (c *ProductoCache) Get(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, int64, bool) {
	var snap *redis.StringCmd
	var ver *redis.StringCmd
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		snap = pipe.Get(ctx, productoCachePrefix+id.String())
		ver = pipe.Get(ctx, productoVersionPrefix+id.String())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		// -1 never matches a stored counter, so Set becomes a no-op.
		return nil, -1, false
	}

	version, err := ver.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, -1, false
	}
	raw, err := snap.Bytes()
	if err != nil {
		return nil, version, false
	}
	var resp dto.ProductoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, version, false
	}
	return &resp, version, true
}

// Set stores p unless the producto was invalidated after version was read.
func (c *ProductoCache) Set(ctx context.Context, p *dto.ProductoResponse, version int64) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	verKey := productoVersionPrefix + p.ID

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		actual, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if actual != version {
			return errVersionCambiada
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, productoCachePrefix+p.ID, b, c.ttl)
			return nil
		})
		return err
	}, verKey)

	switch {
	case err == nil, errors.Is(err, errVersionCambiada), errors.Is(err, redis.TxFailedErr):
	default:
		log.Debug().Err(err).Str("producto_id", p.ID).Msg("cache: set failed")
	}
}

// Invalidate drops the snapshots and bumps their versions in one MULTI.
func (c *ProductoCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			verKey := productoVersionPrefix + id.String()
			pipe.Del(ctx, productoCachePrefix+id.String())
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, productoVersionTTL)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int("productos", len(ids)).Msg("cache: invalidate failed")
	}
}
