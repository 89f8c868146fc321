package cache

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"

	"library-portal/pkg/common/config"
)

// Redis 缓存客户端；连接不可用时所有操作退化为空操作，调用方回源数据库
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	warnedUnavailable atomic.Bool
}

func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		hlog.Warnf("[Cache] Redis unavailable at %s, bypassing cache: %v", cfg.Address, err)
		_ = client.Close()
		return &Redis{ttl: cfg.TTL}
	}

	return NewRedisWithClient(client, cfg.TTL)
}

// NewRedisWithClient 使用已有客户端（测试中传入 miniredis）
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		hlog.Warnf("[Cache] Redis unavailable, bypassing cache: %v", err)
	}
}

func (r *Redis) Available() bool {
	return !r.isUnavailable()
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

// GetInt 读取整数值，未命中返回 ok=false
func (r *Redis) GetInt(ctx context.Context, key string) (int, bool, error) {
	if r.isUnavailable() {
		return 0, false, nil
	}
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		r.warnUnavailableOnce(err)
		return 0, false, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// 脏数据直接丢弃
		_ = r.client.Del(ctx, key).Err()
		return 0, false, nil
	}
	return v, true, nil
}

func (r *Redis) SetInt(ctx context.Context, key string, value int) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Set(ctx, key, strconv.Itoa(value), r.ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// SetIntIfAbsent 仅在键不存在时写入
func (r *Redis) SetIntIfAbsent(ctx context.Context, key string, value int) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	ok, err := r.client.SetNX(ctx, key, strconv.Itoa(value), r.ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}
