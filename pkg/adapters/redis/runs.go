package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/flowrun/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// RunStore implements ports.RunStore using Redis.
// Results are written with SETNX so a run id can only be recorded once.
type RunStore struct {
	*Store
}

// Save persists the result. A run id that already exists fails with domain.ErrRunExists.
func (s *RunStore) Save(ctx context.Context, result *domain.RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// Use 0 for no expiration if ttl is not set.
	created, err := s.client.SetNX(ctx, s.runKey(result.RunID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save run to redis: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrRunExists, result.RunID)
	}

	// Score = Now + TTL. If TTL = 0, Score = far future.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	if err := s.client.ZAdd(ctx, s.runIndexKey(), backend.Z{Score: score, Member: result.RunID}).Err(); err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}
	return nil
}

// Get retrieves a result from Redis.
func (s *RunStore) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	val, err := s.client.Get(ctx, s.runKey(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run from redis: %w", err)
	}

	var result domain.RunResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &result, nil
}

// List returns the ids of runs that have not expired.
func (s *RunStore) List(ctx context.Context) ([]string, error) {
	// Lazy cleanup: remove expired entries from the index
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.runIndexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired runs: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.runIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}
