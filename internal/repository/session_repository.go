package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// SessionRepo stores the Identity established by the HTTP login flow in
// Redis, keyed by an opaque session token.  The websocket handshake has no
// Authorization header to replay, so the connection gate resolves the
// cookie-borne token through this store instead.  Redis expiry handles
// session TTL; there is no separate reaper.
type SessionRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

const sessionKeyPrefix = "session:"

func NewSessionRepo(rdb *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, ttl: ttl}
}

// Create mints a fresh session token bound to the identity and returns it.
func (r *SessionRepo) Create(ctx context.Context, ident model.Identity) (string, error) {
	token := uuid.NewString()
	if err := r.rdb.Set(ctx, sessionKeyPrefix+token, ident.String(), r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks the token up and returns the bound identity.  A missing or
// expired key, or a value that no longer parses, yields ErrSessionNotFound.
func (r *SessionRepo) Resolve(ctx context.Context, token string) (model.Identity, error) {
	val, err := r.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return model.Identity{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Identity{}, err
	}
	ident, err := model.ParseIdentity(val)
	if err != nil {
		return model.Identity{}, ErrSessionNotFound
	}
	return ident, nil
}

// Delete removes the session, e.g. on logout.  Deleting an absent token is
// not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+token).Err()
}
