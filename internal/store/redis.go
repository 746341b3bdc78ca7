package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"torch-indexer/internal/config"
	"torch-indexer/internal/models"
)

// RedisStore persists entities as JSON blobs under typed keys, with sets and
// sorted sets as secondary indexes for the query API.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetUser(ctx context.Context, id string) (*models.User, bool, error) {
	var user models.User
	found, err := s.getJSON(ctx, fmt.Sprintf(KeyUser, id), &user)
	if err != nil || !found {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *RedisStore) PutUser(ctx context.Context, user *models.User) error {
	return s.setJSON(ctx, fmt.Sprintf(KeyUser, user.ID), user)
}

func (s *RedisStore) GetUserStats(ctx context.Context, id string) (*models.UserStats, bool, error) {
	var stats models.UserStats
	found, err := s.getJSON(ctx, fmt.Sprintf(KeyUserStats, id), &stats)
	if err != nil || !found {
		return nil, false, err
	}
	return &stats, true, nil
}

func (s *RedisStore) PutUserStats(ctx context.Context, stats *models.UserStats) error {
	return s.setJSON(ctx, fmt.Sprintf(KeyUserStats, stats.ID), stats)
}

func (s *RedisStore) GetBet(ctx context.Context, id string) (*models.Bet, bool, error) {
	var bet models.Bet
	found, err := s.getJSON(ctx, fmt.Sprintf(KeyBet, id), &bet)
	if err != nil || !found {
		return nil, false, err
	}
	return &bet, true, nil
}

func (s *RedisStore) PutBet(ctx context.Context, bet *models.Bet) error {
	if err := s.setJSON(ctx, fmt.Sprintf(KeyBet, bet.ID), bet); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, fmt.Sprintf(KeyUserBets, bet.User), bet.ID)
	pipe.SAdd(ctx, fmt.Sprintf(KeyBucketBets, bet.Bucket), bet.ID)
	pipe.ZAdd(ctx, KeyBets, redis.Z{Score: float64(bet.BlockNumber), Member: bet.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index bet %s: %v", bet.ID, err)
	}
	return nil
}

func (s *RedisStore) ListBetsByUser(ctx context.Context, userID string) ([]*models.Bet, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(KeyUserBets, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for user %s: %v", userID, err)
	}
	return s.bulkGetBets(ctx, ids)
}

func (s *RedisStore) ListBetsByBucket(ctx context.Context, bucket int64) ([]*models.Bet, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(KeyBucketBets, bucket)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for bucket %d: %v", bucket, err)
	}
	return s.bulkGetBets(ctx, ids)
}

func (s *RedisStore) ListBets(ctx context.Context, limit int64) ([]*models.Bet, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	ids, err := s.client.ZRevRange(ctx, KeyBets, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %v", err)
	}
	return s.bulkGetBets(ctx, ids)
}

func (s *RedisStore) GetFee(ctx context.Context, id string) (*models.Fee, bool, error) {
	var fee models.Fee
	found, err := s.getJSON(ctx, fmt.Sprintf(KeyFee, id), &fee)
	if err != nil || !found {
		return nil, false, err
	}
	return &fee, true, nil
}

func (s *RedisStore) PutFee(ctx context.Context, fee *models.Fee) error {
	if err := s.setJSON(ctx, fmt.Sprintf(KeyFee, fee.ID), fee); err != nil {
		return err
	}
	err := s.client.ZAdd(ctx, KeyFees, redis.Z{
		Score:  float64(fee.BlockNumber),
		Member: fee.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index fee %s: %v", fee.ID, err)
	}
	return nil
}

func (s *RedisStore) ListFees(ctx context.Context, limit int64) ([]*models.Fee, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}

	ids, err := s.client.ZRevRange(ctx, KeyFees, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list fees: %v", err)
	}

	var fees []*models.Fee
	for _, id := range ids {
		var fee models.Fee
		found, err := s.getJSON(ctx, fmt.Sprintf(KeyFee, id), &fee)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		fees = append(fees, &fee)
	}
	return fees, nil
}

func (s *RedisStore) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, fmt.Sprintf(KeyProcessed, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed ledger: %v", err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, eventID string) error {
	err := s.client.SetNX(ctx, fmt.Sprintf(KeyProcessed, eventID), "1", 0).Err()
	if err != nil {
		return fmt.Errorf("failed to mark event %s processed: %v", eventID, err)
	}
	return nil
}

func (s *RedisStore) Checkpoint(ctx context.Context) (uint64, error) {
	v, err := s.client.Get(ctx, KeyCheckpoint).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read checkpoint: %v", err)
	}
	block, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt checkpoint %q: %v", v, err)
	}
	return block, nil
}

func (s *RedisStore) SetCheckpoint(ctx context.Context, block uint64) error {
	err := s.client.Set(ctx, KeyCheckpoint, strconv.FormatUint(block, 10), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %v", err)
	}
	return nil
}

func (s *RedisStore) CheckRateLimit(ctx context.Context, client, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, client, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, target any) (bool, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %v", key, err)
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %v", key, err)
	}
	return true, nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %v", key, err)
	}
	return nil
}

func (s *RedisStore) bulkGetBets(ctx context.Context, ids []string) ([]*models.Bet, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyBet, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to fetch bets: %v", err)
	}

	var bets []*models.Bet
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch bet: %v", err)
		}
		var bet models.Bet
		if err := json.Unmarshal([]byte(data), &bet); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bet: %v", err)
		}
		bets = append(bets, &bet)
	}

	sortBets(bets)
	return bets, nil
}

// sortBets orders by bet id, numerically. Ids are decimal strings without
// leading zeros, so shorter-then-lexicographic is numeric order.
func sortBets(bets []*models.Bet) {
	sort.Slice(bets, func(i, j int) bool {
		a, b := bets[i].ID, bets[j].ID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}
