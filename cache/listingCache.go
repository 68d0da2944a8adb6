package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/karlseguin/ccache/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
)

const (
	cacheListing = "listing:%s"
	cacheAll     = "listings:all"

	localTTL  = 5 * time.Minute
	remoteTTL = 15 * time.Minute
)

// ListingCache keeps read-mostly listing payloads in process memory and,
// when an address is configured, in Redis behind it.
type ListingCache struct {
	local  *ccache.Cache[[]byte]
	cli    *redis.Client
	logger *logrus.Logger
	Tracer trace.Tracer
}

// New builds the cache. An empty redisAddr leaves the cache process-local.
func New(redisAddr string, logger *logrus.Logger, tracer trace.Tracer) *ListingCache {
	lc := &ListingCache{
		local:  ccache.New(ccache.Configure[[]byte]().MaxSize(1000)),
		logger: logger,
		Tracer: tracer,
	}
	if redisAddr != "" {
		lc.cli = redis.NewClient(&redis.Options{Addr: redisAddr})
	}
	return lc
}

func (lc *ListingCache) Ping(ctx context.Context) error {
	if lc.cli == nil {
		return nil
	}
	return lc.cli.Ping(ctx).Err()
}

func (lc *ListingCache) Close() error {
	lc.local.Stop()
	if lc.cli != nil {
		return lc.cli.Close()
	}
	return nil
}

func (lc *ListingCache) GetListing(ctx context.Context, id string) (*domain.ListingResponse, bool) {
	ctx, span := lc.Tracer.Start(ctx, "ListingCache.GetListing")
	defer span.End()

	var listing domain.ListingResponse
	if !lc.get(ctx, constructListingKey(id), &listing) {
		return nil, false
	}
	return &listing, true
}

func (lc *ListingCache) SetListing(ctx context.Context, id string, listing *domain.ListingResponse) {
	ctx, span := lc.Tracer.Start(ctx, "ListingCache.SetListing")
	defer span.End()

	if err := lc.set(ctx, constructListingKey(id), listing); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
}

func (lc *ListingCache) GetAll(ctx context.Context) ([]*domain.ListingResponse, bool) {
	ctx, span := lc.Tracer.Start(ctx, "ListingCache.GetAll")
	defer span.End()

	var listings []*domain.ListingResponse
	if !lc.get(ctx, cacheAll, &listings) {
		return nil, false
	}
	return listings, true
}

func (lc *ListingCache) SetAll(ctx context.Context, listings []*domain.ListingResponse) {
	ctx, span := lc.Tracer.Start(ctx, "ListingCache.SetAll")
	defer span.End()

	if err := lc.set(ctx, cacheAll, listings); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
}

// Invalidate drops the given listings and the full listing page.
func (lc *ListingCache) Invalidate(ctx context.Context, ids ...string) {
	ctx, span := lc.Tracer.Start(ctx, "ListingCache.Invalidate")
	defer span.End()

	keys := []string{cacheAll}
	for _, id := range ids {
		keys = append(keys, constructListingKey(id))
	}
	for _, key := range keys {
		lc.local.Delete(key)
	}
	if lc.cli == nil {
		return
	}
	if err := lc.cli.Del(ctx, keys...).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		lc.logger.WithFields(logrus.Fields{"path": "cache/invalidate"}).Warn("redis delete failed: ", err)
	}
}

func (lc *ListingCache) get(ctx context.Context, key string, out interface{}) bool {
	if item := lc.local.Get(key); item != nil && !item.Expired() {
		if err := json.Unmarshal(item.Value(), out); err == nil {
			return true
		}
		lc.local.Delete(key)
	}
	if lc.cli == nil {
		return false
	}

	data, err := lc.cli.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			lc.logger.WithFields(logrus.Fields{"path": "cache/get"}).Warn("redis get failed: ", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	lc.local.Set(key, data, localTTL)
	lc.logger.WithFields(logrus.Fields{"path": "cache/get"}).Debug("Listing cache hit (redis): ", key)
	return true
}

func (lc *ListingCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	lc.local.Set(key, data, localTTL)
	if lc.cli == nil {
		return nil
	}
	if err := lc.cli.Set(ctx, key, data, remoteTTL).Err(); err != nil {
		lc.logger.WithFields(logrus.Fields{"path": "cache/set"}).Warn("redis set failed: ", err)
		return err
	}
	return nil
}

func constructListingKey(id string) string {
	return fmt.Sprintf(cacheListing, id)
}
