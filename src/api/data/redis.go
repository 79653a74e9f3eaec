package data

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fundguard/fundguard/src/api/types"
)

const (
	sessionPrefix = "session:"
	noncePrefix   = "nonce:"

	sessionTTL = 24 * time.Hour
	nonceTTL   = 5 * time.Minute
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// RedisSessions persists login sessions with a TTL; the key is absent
// when logged out.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (r *RedisSessions) Set(ctx context.Context, sess types.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionPrefix+sess.Email, raw, sessionTTL).Err()
}

func (r *RedisSessions) Get(ctx context.Context, email string) (*types.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess types.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *RedisSessions) Del(ctx context.Context, email string) error {
	return r.rdb.Del(ctx, sessionPrefix+email).Err()
}

// RedisNonces holds wallet-connect challenge nonces. A nonce is
// single-use: reading it deletes it.
type RedisNonces struct {
	rdb *redis.Client
}

func NewRedisNonces(rdb *redis.Client) *RedisNonces {
	return &RedisNonces{rdb: rdb}
}

func (r *RedisNonces) Set(ctx context.Context, email, nonce string) error {
	return r.rdb.Set(ctx, noncePrefix+email, nonce, nonceTTL).Err()
}

func (r *RedisNonces) GetDel(ctx context.Context, email string) (string, error) {
	nonce, err := r.rdb.GetDel(ctx, noncePrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.New("challenge expired")
	}
	return nonce, err
}
