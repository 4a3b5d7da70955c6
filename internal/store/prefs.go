package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	keyDarkTheme   = "useDarkTheme"
	keyRecentCity  = "recentWeatherItem"
	keySplashShown = "splashShown"
)

// MemoryPrefs keeps preferences for the life of the process.
type MemoryPrefs struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ weather.PreferenceStore = (*MemoryPrefs)(nil)

// NewMemoryPrefs creates an empty MemoryPrefs.
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{values: make(map[string]string)}
}

func (p *MemoryPrefs) get(_ context.Context, key string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *MemoryPrefs) set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

func (p *MemoryPrefs) DarkTheme(ctx context.Context) (bool, error) { return boolPref(ctx, p.get, keyDarkTheme) }
func (p *MemoryPrefs) SetDarkTheme(ctx context.Context, dark bool) error {
	return p.set(ctx, keyDarkTheme, strconv.FormatBool(dark))
}
func (p *MemoryPrefs) RecentCityID(ctx context.Context) (int64, bool, error) {
	return intPref(ctx, p.get, keyRecentCity)
}
func (p *MemoryPrefs) SetRecentCityID(ctx context.Context, id int64) error {
	return p.set(ctx, keyRecentCity, strconv.FormatInt(id, 10))
}
func (p *MemoryPrefs) SplashShown(ctx context.Context) (bool, error) {
	return boolPref(ctx, p.get, keySplashShown)
}
func (p *MemoryPrefs) SetSplashShown(ctx context.Context, shown bool) error {
	return p.set(ctx, keySplashShown, strconv.FormatBool(shown))
}

// RedisPrefs keeps preferences in Redis under a common key prefix.
type RedisPrefs struct {
	client *redis.Client
	prefix string
}

var _ weather.PreferenceStore = (*RedisPrefs)(nil)

// NewRedisPrefs creates a RedisPrefs. An empty prefix defaults to "weather:prefs:".
func NewRedisPrefs(client *redis.Client, prefix string) *RedisPrefs {
	if prefix == "" {
		prefix = "weather:prefs:"
	}
	return &RedisPrefs{client: client, prefix: prefix}
}

// ConnectRedis parses redisURL, connects and pings.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (p *RedisPrefs) get(ctx context.Context, key string) (string, bool, error) {
	v, err := p.client.Get(ctx, p.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (p *RedisPrefs) set(ctx context.Context, key, value string) error {
	if err := p.client.Set(ctx, p.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (p *RedisPrefs) DarkTheme(ctx context.Context) (bool, error) { return boolPref(ctx, p.get, keyDarkTheme) }
func (p *RedisPrefs) SetDarkTheme(ctx context.Context, dark bool) error {
	return p.set(ctx, keyDarkTheme, strconv.FormatBool(dark))
}
func (p *RedisPrefs) RecentCityID(ctx context.Context) (int64, bool, error) {
	return intPref(ctx, p.get, keyRecentCity)
}
func (p *RedisPrefs) SetRecentCityID(ctx context.Context, id int64) error {
	return p.set(ctx, keyRecentCity, strconv.FormatInt(id, 10))
}
func (p *RedisPrefs) SplashShown(ctx context.Context) (bool, error) {
	return boolPref(ctx, p.get, keySplashShown)
}
func (p *RedisPrefs) SetSplashShown(ctx context.Context, shown bool) error {
	return p.set(ctx, keySplashShown, strconv.FormatBool(shown))
}

type getter func(ctx context.Context, key string) (string, bool, error)

// boolPref reads a flag; an unset flag is false.
func boolPref(ctx context.Context, get getter, key string) (bool, error) {
	v, ok, err := get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("preference %s: %w", key, err)
	}
	return b, nil
}

func intPref(ctx context.Context, get getter, key string) (int64, bool, error) {
	v, ok, err := get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("preference %s: %w", key, err)
	}
	return n, true, nil
}
