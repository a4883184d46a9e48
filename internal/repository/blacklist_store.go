package repository

import (
	"context"
	"regexp"

	"github.com/OmarElhagagy/tailored-sub002/pkg/redis"
)

const (
	blacklistIPKey     = "blacklist:ips"
	blacklistDeviceKey = "blacklist:devices"
	blacklistEmailKey  = "blacklist:email_patterns"
)

// RedisBlacklist is the durable BlacklistStore: entries survive restarts
// and are shared across horizontally scaled instances.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	return b.client.SetContains(ctx, blacklistIPKey, ip)
}

func (b *RedisBlacklist) IsDeviceBlocked(ctx context.Context, deviceID string) (bool, error) {
	return b.client.SetContains(ctx, blacklistDeviceKey, deviceID)
}

func (b *RedisBlacklist) IsEmailBlocked(ctx context.Context, email string) (bool, error) {
	patterns, err := b.client.SetMembers(ctx, blacklistEmailKey)
	if err != nil {
		return false, err
	}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// A malformed pattern cannot block anyone; skip it.
			continue
		}
		if re.MatchString(email) {
			return true, nil
		}
	}
	return false, nil
}

func (b *RedisBlacklist) AddIP(ctx context.Context, ip string) error {
	return b.client.SetAdd(ctx, blacklistIPKey, ip)
}

func (b *RedisBlacklist) AddDevice(ctx context.Context, deviceID string) error {
	return b.client.SetAdd(ctx, blacklistDeviceKey, deviceID)
}

func (b *RedisBlacklist) AddEmailPattern(ctx context.Context, pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return err
	}
	return b.client.SetAdd(ctx, blacklistEmailKey, pattern)
}
