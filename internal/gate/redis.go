package gate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"flightsurety/pkg/domain"
)

const (
	operationalKey = "gate:operational"
	clientsKey     = "gate:clients"
)

// RedisGate shares the flag and allow-list between ledger replicas. A missing
// flag reads as operational.
type RedisGate struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *RedisGate {
	return &RedisGate{client: client, prefix: prefix}
}

func (g *RedisGate) IsOperational(ctx context.Context) (bool, error) {
	v, err := g.client.Get(ctx, g.prefix+operationalKey).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read operational flag: %w", err)
	}
	return v == "1", nil
}

func (g *RedisGate) IsAuthorized(ctx context.Context, client domain.Address) (bool, error) {
	if client.IsZero() {
		return false, nil
	}
	ok, err := g.client.SIsMember(ctx, g.prefix+clientsKey, client.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check client allow-list: %w", err)
	}
	return ok, nil
}

func (g *RedisGate) SetOperational(ctx context.Context, operational bool) error {
	v := "0"
	if operational {
		v = "1"
	}
	if err := g.client.Set(ctx, g.prefix+operationalKey, v, 0).Err(); err != nil {
		return fmt.Errorf("set operational flag: %w", err)
	}
	return nil
}

func (g *RedisGate) Authorize(ctx context.Context, client domain.Address) error {
	if err := g.client.SAdd(ctx, g.prefix+clientsKey, client.String()).Err(); err != nil {
		return fmt.Errorf("authorize client: %w", err)
	}
	return nil
}

func (g *RedisGate) Revoke(ctx context.Context, client domain.Address) error {
	if err := g.client.SRem(ctx, g.prefix+clientsKey, client.String()).Err(); err != nil {
		return fmt.Errorf("revoke client: %w", err)
	}
	return nil
}

func (g *RedisGate) Clients(ctx context.Context) ([]domain.Address, error) {
	members, err := g.client.SMembers(ctx, g.prefix+clientsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]domain.Address, 0, len(members))
	for _, m := range members {
		out = append(out, domain.Address(m))
	}
	slices.Sort(out)
	return out, nil
}
