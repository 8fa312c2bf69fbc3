package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte           = 1024 * 1024
	typesCacheSize     = 1 * megabyte
	allTypesCacheKey   = "workout-types::all"
	defaultTypesTTLSec = 3600
)

type typesSource interface {
	ListTypes(ctx context.Context) ([]WorkoutType, error)
}

// TypesCache keeps the workout type catalog in memory for a limited time.
type TypesCache struct {
	source    typesSource
	cache     *freecache.Cache
	expireSec int
}

func NewTypesCache(source typesSource, ttl time.Duration) *TypesCache {
	expireSec := int(ttl.Seconds())
	if expireSec <= 0 {
		expireSec = defaultTypesTTLSec
	}
	return &TypesCache{
		source:    source,
		cache:     freecache.NewCache(typesCacheSize),
		expireSec: expireSec,
	}
}

// All returns every workout type ordered by name.
func (c *TypesCache) All(ctx context.Context) (_ []WorkoutType, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.workoutTypes.all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if typesBytes, err := c.cache.Get([]byte(allTypesCacheKey)); err == nil {
		var types []WorkoutType
		if err := json.Unmarshal(typesBytes, &types); err != nil {
			log.Errorf("failed to unmarshal workout types from cache: %s", err)
		} else {
			log.Traceln("workout types found in cache")
			return types, nil
		}
	}

	types, err := c.source.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workout types: %w", err)
	}

	typesBytes, err := json.Marshal(types)
	if err != nil {
		log.Errorf("failed to marshal workout types for cache: %s", err)
		return types, nil
	}
	if err := c.cache.Set([]byte(allTypesCacheKey), typesBytes, c.expireSec); err != nil {
		log.Errorf("failed to write workout types cache: %s", err)
	}

	return types, nil
}

// Get finds a workout type by id. On a miss the catalog is reloaded once, since
// a type might have been added after the cache was filled.
func (c *TypesCache) Get(ctx context.Context, id int) (*WorkoutType, error) {
	types, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	if wt := findType(types, id); wt != nil {
		return wt, nil
	}

	c.Invalidate()
	types, err = c.All(ctx)
	if err != nil {
		return nil, err
	}
	if wt := findType(types, id); wt != nil {
		return wt, nil
	}
	return nil, ErrWorkoutTypeNotFound
}

func (c *TypesCache) Invalidate() {
	c.cache.Del([]byte(allTypesCacheKey))
}

func findType(types []WorkoutType, id int) *WorkoutType {
	for i := range types {
		if types[i].ID == id {
			return &types[i]
		}
	}
	return nil
}
