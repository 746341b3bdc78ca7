package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"torch-indexer/internal/models"
)

// MemoryStore keeps entities as marshaled JSON so reads and writes have the
// same copy semantics as the Redis store. Used in tests and as a fallback
// when no Redis is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string][]byte
	stats      map[string][]byte
	bets       map[string][]byte
	betOrder   []string
	userBets   map[string][]string
	bucketBets map[int64][]string
	fees       map[string][]byte
	feeOrder   []string
	processed  map[string]bool
	checkpoint uint64
	limits     map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      map[string][]byte{},
		stats:      map[string][]byte{},
		bets:       map[string][]byte{},
		userBets:   map[string][]string{},
		bucketBets: map[int64][]string{},
		fees:       map[string][]byte{},
		processed:  map[string]bool{},
		limits:     map[string]*rateWindow{},
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, bool, error) {
	var user models.User
	found, err := s.get(s.users, id, &user)
	if err != nil || !found {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *MemoryStore) PutUser(ctx context.Context, user *models.User) error {
	return s.put(s.users, user.ID, user)
}

func (s *MemoryStore) GetUserStats(ctx context.Context, id string) (*models.UserStats, bool, error) {
	var stats models.UserStats
	found, err := s.get(s.stats, id, &stats)
	if err != nil || !found {
		return nil, false, err
	}
	return &stats, true, nil
}

func (s *MemoryStore) PutUserStats(ctx context.Context, stats *models.UserStats) error {
	return s.put(s.stats, stats.ID, stats)
}

func (s *MemoryStore) GetBet(ctx context.Context, id string) (*models.Bet, bool, error) {
	var bet models.Bet
	found, err := s.get(s.bets, id, &bet)
	if err != nil || !found {
		return nil, false, err
	}
	return &bet, true, nil
}

func (s *MemoryStore) PutBet(ctx context.Context, bet *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.bets[bet.ID]
	data, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet %s: %v", bet.ID, err)
	}
	s.bets[bet.ID] = data

	if !existed {
		s.betOrder = append(s.betOrder, bet.ID)
		s.userBets[bet.User] = append(s.userBets[bet.User], bet.ID)
		s.bucketBets[bet.Bucket] = append(s.bucketBets[bet.Bucket], bet.ID)
	}
	return nil
}

func (s *MemoryStore) ListBetsByUser(ctx context.Context, userID string) ([]*models.Bet, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.userBets[userID]...)
	s.mu.RUnlock()
	return s.collectBets(ids)
}

func (s *MemoryStore) ListBetsByBucket(ctx context.Context, bucket int64) ([]*models.Bet, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.bucketBets[bucket]...)
	s.mu.RUnlock()
	return s.collectBets(ids)
}

func (s *MemoryStore) ListBets(ctx context.Context, limit int64) ([]*models.Bet, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	ids := append([]string(nil), s.betOrder...)
	s.mu.RUnlock()

	// newest first
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return s.collectBets(ids)
}

func (s *MemoryStore) GetFee(ctx context.Context, id string) (*models.Fee, bool, error) {
	var fee models.Fee
	found, err := s.get(s.fees, id, &fee)
	if err != nil || !found {
		return nil, false, err
	}
	return &fee, true, nil
}

func (s *MemoryStore) PutFee(ctx context.Context, fee *models.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.fees[fee.ID]
	data, err := json.Marshal(fee)
	if err != nil {
		return fmt.Errorf("failed to marshal fee %s: %v", fee.ID, err)
	}
	s.fees[fee.ID] = data
	if !existed {
		s.feeOrder = append(s.feeOrder, fee.ID)
	}
	return nil
}

func (s *MemoryStore) ListFees(ctx context.Context, limit int64) ([]*models.Fee, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	ids := append([]string(nil), s.feeOrder...)
	s.mu.RUnlock()

	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}

	var fees []*models.Fee
	for _, id := range ids {
		var fee models.Fee
		found, err := s.get(s.fees, id, &fee)
		if err != nil {
			return nil, err
		}
		if found {
			fees = append(fees, &fee)
		}
	}
	return fees, nil
}

func (s *MemoryStore) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed[eventID], nil
}

func (s *MemoryStore) MarkProcessed(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventID] = true
	return nil
}

func (s *MemoryStore) Checkpoint(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkpoint, nil
}

func (s *MemoryStore) SetCheckpoint(ctx context.Context, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = block
	return nil
}

func (s *MemoryStore) CheckRateLimit(ctx context.Context, client, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, client, action)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.limits[key]
	if !ok || time.Now().After(w.resetAt) {
		w = &rateWindow{resetAt: time.Now().Add(window)}
		s.limits[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

func (s *MemoryStore) get(m map[string][]byte, id string, target any) (bool, error) {
	s.mu.RLock()
	data, ok := m[id]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %v", id, err)
	}
	return true, nil
}

func (s *MemoryStore) put(m map[string][]byte, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", id, err)
	}
	s.mu.Lock()
	m[id] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) collectBets(ids []string) ([]*models.Bet, error) {
	var bets []*models.Bet
	for _, id := range ids {
		var bet models.Bet
		found, err := s.get(s.bets, id, &bet)
		if err != nil {
			return nil, err
		}
		if found {
			bets = append(bets, &bet)
		}
	}
	return bets, nil
}
