package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/flowrun/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// GraphStore implements ports.GraphStore using Redis.
type GraphStore struct {
	*Store
}

// Save persists the graph, overwriting any previous definition.
func (s *GraphStore) Save(ctx context.Context, graph *domain.Graph) error {
	if graph == nil || graph.ID == "" {
		return fmt.Errorf("%w: graph missing ID", domain.ErrInvalidGraph)
	}
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.graphKey(graph.ID), data, 0)
	pipe.ZAdd(ctx, s.graphIndexKey(), backend.Z{
		Score:  farFuture,
		Member: graph.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save graph to redis: %w", err)
	}
	return nil
}

// Get retrieves a graph from Redis.
func (s *GraphStore) Get(ctx context.Context, id string) (*domain.Graph, error) {
	val, err := s.client.Get(ctx, s.graphKey(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, id)
		}
		return nil, fmt.Errorf("failed to get graph from redis: %w", err)
	}

	var graph domain.Graph
	if err := json.Unmarshal([]byte(val), &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// List returns the ids of stored graphs.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.graphIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	return ids, nil
}
