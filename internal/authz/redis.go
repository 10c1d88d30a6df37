package authz

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/udisondev/combatcore/internal/model"
)

// Redis keeps the triggerMove allowlist in a Redis set so every server
// instance shares it. Admins come from configuration and stay in process.
type Redis struct {
	client *redis.Client
	key    string
	admins *Memory
}

// NewRedis creates a registry storing the allowlist under "<prefix>:authorized_callers".
func NewRedis(client *redis.Client, prefix string, admins ...model.Caller) *Redis {
	key := "authorized_callers"
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &Redis{client: client, key: key, admins: NewMemory(admins...)}
}

func (r *Redis) IsAuthorized(ctx context.Context, caller model.Caller) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, string(caller)).Result()
	if err != nil {
		return false, fmt.Errorf("checking caller %q: %w", caller, err)
	}
	return ok, nil
}

func (r *Redis) SetAuthorized(ctx context.Context, caller model.Caller, allowed bool) error {
	var err error
	if allowed {
		err = r.client.SAdd(ctx, r.key, string(caller)).Err()
	} else {
		err = r.client.SRem(ctx, r.key, string(caller)).Err()
	}
	if err != nil {
		return fmt.Errorf("updating caller %q: %w", caller, err)
	}
	return nil
}

func (r *Redis) IsAdmin(ctx context.Context, caller model.Caller) (bool, error) {
	return r.admins.IsAdmin(ctx, caller)
}
