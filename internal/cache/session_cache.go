package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadfunnel/internal/model"
)

// ErrLocked means another request currently owns the session
var ErrLocked = errors.New("session is locked")

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// SessionCache handles Redis operations for in-progress survey sessions
type SessionCache interface {
	Set(ctx context.Context, session *model.FlowSession) error
	Get(ctx context.Context, id string) (*model.FlowSession, error)
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (func(), error)
}

// LockTTL bounds how long one request may hold a session. It must outlive one submission attempt.
const LockTTL = 45 * time.Second

type sessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewSessionCache creates a new session cache. Sessions expire after ttl of inactivity.
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &sessionCache{
		client:  client,
		ttl:     ttl,
		lockTTL: LockTTL,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("flow:session:%s", id)
}

func (c *sessionCache) lockKey(id string) string {
	return fmt.Sprintf("flow:session:%s:lock", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.FlowSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.FlowSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.FlowSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id), c.lockKey(id)).Err()
}

// Lock takes the per-session mutation lock. The returned func releases it.
func (c *sessionCache) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.New().String()
	ok, err := c.client.SetNX(ctx, c.lockKey(id), token, c.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		releaseScript.Run(context.Background(), c.client, []string{c.lockKey(id)}, token)
	}, nil
}
