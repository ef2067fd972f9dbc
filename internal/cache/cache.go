package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=cache_test

type activitiesSource interface {
	Activities(ctx context.Context, start, limit int) ([]activities.Activity, error)
}

// ActivitiesCache keeps fetched activity windows in freecache, so repeated stats requests
// do not hit the garmin api every time.
type ActivitiesCache struct {
	source activitiesSource
	cache  *freecache.Cache
	ttl    time.Duration
}

func NewActivitiesCache(source activitiesSource, ttl time.Duration) *ActivitiesCache {
	megabyte := 1024 * 1024
	cacheSize := 20 * megabyte

	return &ActivitiesCache{
		source: source,
		cache:  freecache.NewCache(cacheSize),
		ttl:    ttl,
	}
}

func cacheKey(start, limit int) []byte {
	return []byte(fmt.Sprintf("activities::%d::%d", start, limit))
}

func (c *ActivitiesCache) Activities(ctx context.Context, start, limit int) (_ []activities.Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.activities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := cacheKey(start, limit)
	if cachedBytes, err := c.cache.Get(key); err == nil {
		acts, err := activities.ParseList(cachedBytes)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			log.Tracef("activities [%d, %d] found in cache", start, limit)
			return acts, nil
		}
		log.Errorf("failed to unmarshal cached activities [%d, %d]: %s", start, limit, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	acts, err := c.source.Activities(ctx, start, limit)
	if err != nil {
		return nil, err
	}

	actsBytes, err := json.Marshal(acts)
	if err != nil {
		log.Errorf("failed to marshal activities for cache: %s", err)
		return acts, nil
	}

	expireSeconds := int(c.ttl.Seconds())
	if expireSeconds < 1 {
		expireSeconds = 1
	}
	if err := c.cache.Set(key, actsBytes, expireSeconds); err != nil {
		log.Errorf("failed to cache activities [%d, %d]: %s", start, limit, err)
	}

	return acts, nil
}

// Clear drops all cached windows.
func (c *ActivitiesCache) Clear() {
	c.cache.Clear()
}
