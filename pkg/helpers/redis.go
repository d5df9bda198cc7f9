package helpers

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client used for login sessions.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the redis hash key holding the session of one user.
func SessionKey(userID string) string {
	return "user:session:" + userID
}
