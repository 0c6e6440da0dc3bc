package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/gma-backend/internal/platform/idcache"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type DoctorIDCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ idcache.Cache = (*DoctorIDCache)(nil)

// NewDoctorIDCache shares the external_id -> doctor id mapping across
// replicas. Redis errors degrade to cache misses.
func NewDoctorIDCache(log *logger.Logger, addr string, ttl time.Duration) (*DoctorIDCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &DoctorIDCache{
		log:    log.With("client", "RedisDoctorIDCache"),
		rdb:    rdb,
		prefix: "gma:doctor:ext:",
		ttl:    ttl,
	}, nil
}

func (c *DoctorIDCache) Get(ctx context.Context, externalID string) (uuid.UUID, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+externalID).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("doctor id cache read failed", "error", err)
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *DoctorIDCache) Set(ctx context.Context, externalID string, doctorID uuid.UUID) {
	if err := c.rdb.Set(ctx, c.prefix+externalID, doctorID.String(), c.ttl).Err(); err != nil {
		c.log.Warn("doctor id cache write failed", "error", err)
	}
}

func (c *DoctorIDCache) Close() error {
	return c.rdb.Close()
}
