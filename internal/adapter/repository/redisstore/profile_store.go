package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "booking_flow:talent_profile:"

// ProfileStore keeps the talent profile id per visitor until the booking
// completes or the entry expires.
type ProfileStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProfileStore(rdb *redis.Client, ttl time.Duration) *ProfileStore {
	return &ProfileStore{rdb: rdb, ttl: ttl}
}

func profileKey(visitorID string) string {
	return profileKeyPrefix + visitorID
}

func (s *ProfileStore) SaveProfile(ctx context.Context, visitorID, profileID string) error {
	if err := s.rdb.Set(ctx, profileKey(visitorID), profileID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save profile for visitor %s: %w", visitorID, err)
	}
	return nil
}

// GetProfile returns an empty id when the visitor has none.
func (s *ProfileStore) GetProfile(ctx context.Context, visitorID string) (string, error) {
	profileID, err := s.rdb.Get(ctx, profileKey(visitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read profile for visitor %s: %w", visitorID, err)
	}
	return profileID, nil
}

func (s *ProfileStore) ClearProfile(ctx context.Context, visitorID string) error {
	if err := s.rdb.Del(ctx, profileKey(visitorID)).Err(); err != nil {
		return fmt.Errorf("failed to clear profile for visitor %s: %w", visitorID, err)
	}
	return nil
}
