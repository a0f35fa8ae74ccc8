package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swiftcart/checkout-api/internal/usecase"
)

// RedisReceiptStore keeps issued exit passes for the scan window so the
// gate consumer can confirm a pass was really issued here.
type RedisReceiptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReceiptStore(rdb *redis.Client, ttl time.Duration) *RedisReceiptStore {
	return &RedisReceiptStore{rdb: rdb, ttl: ttl}
}

func (s *RedisReceiptStore) Save(ctx context.Context, transactionID string, rec usecase.ExitPassRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, "exitpass:"+transactionID, b, s.ttl).Err()
}

func (s *RedisReceiptStore) Find(ctx context.Context, transactionID string) (usecase.ExitPassRecord, bool, error) {
	val, err := s.rdb.Get(ctx, "exitpass:"+transactionID).Result()
	if err == redis.Nil {
		return usecase.ExitPassRecord{}, false, nil
	}
	if err != nil {
		return usecase.ExitPassRecord{}, false, err
	}
	var rec usecase.ExitPassRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return usecase.ExitPassRecord{}, false, err
	}
	return rec, true, nil
}

var _ usecase.ReceiptStore = (*RedisReceiptStore)(nil)
