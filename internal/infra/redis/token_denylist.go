package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// TokenDenylist stores revoked token ids as keys that expire together with
// the token, so the set never grows beyond live tokens.
// Keys are: token:revoked:{jti}
type TokenDenylist struct {
	client *redis.Client
	now    func() time.Time
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client, now: time.Now}
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return errors.Wrap(d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(), "revoking token")
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking token")
	}
	return n > 0, nil
}

func (d *TokenDenylist) key(tokenID string) string {
	return "token:revoked:" + tokenID
}
