package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/nmacchitella/topoi/internal/pkg/metrics"
)

// keyPrefix namespaces all gateway keys so a shared Valkey can host other
// services without collisions.
const keyPrefix = "topoi:"

// clientCacheTTL bounds how long a read may be served from valkey-go's
// server-assisted client-side cache before revalidating.
const clientCacheTTL = 10 * time.Second

// Cache implements ports.CacheService on Valkey. The gateway uses it only
// for catalog responses; per-source place caches stay in process memory.
type Cache struct {
	client valkey.Client
}

// New connects to the Valkey instance at addr.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key. A missing key is an error, counted as a
// miss. Reads go through the client-side cache since catalog values
// tolerate short staleness.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	resp := c.client.DoCache(ctx, c.client.B().Get().Key(keyPrefix+key).Cache(), clientCacheTTL)
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			metrics.CacheMisses.WithLabelValues("get").Inc()
		}
		return nil, err
	}
	b, err := resp.AsBytes()
	if err != nil {
		return nil, err
	}
	metrics.CacheHits.WithLabelValues("get").Inc()
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := time.Duration(ttlSeconds) * time.Second
	return c.client.Do(ctx,
		c.client.B().Set().Key(keyPrefix+key).Value(string(value)).Ex(ttl).Build(),
	).Error()
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(keyPrefix+key).Build()).Error()
}

// Close releases the client and its connections.
func (c *Cache) Close() {
	c.client.Close()
}
