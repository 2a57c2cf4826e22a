package storage

import (
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when an access token is unknown or expired.
var ErrTokenNotFound = errors.New("access token not found")

func tokenKey(token string) string { return "token:" + token }

// StoreAccessToken records an issued token with its TTL. Tokens absent from
// Redis are treated as revoked at handshake time, so issuing and revoking
// are both just set operations here.
func (s *Service) StoreAccessToken(token string, userID int64, ttl time.Duration) error {
	return s.Redis.Set(s.Ctx, tokenKey(token), userID, ttl).Err()
}

// ResolveAccessToken returns the user behind a live token.
func (s *Service) ResolveAccessToken(token string) (int64, error) {
	val, err := s.Redis.Get(s.Ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// RevokeAccessToken drops a token before its TTL runs out.
func (s *Service) RevokeAccessToken(token string) error {
	return s.Redis.Del(s.Ctx, tokenKey(token)).Err()
}
