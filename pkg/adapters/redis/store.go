package redis

import (
	"time"

	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score used for entries without expiration (2100-01-01).
const farFuture = 4102444800

// Store holds the Redis client shared by the graph and run stores.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration for run results. Graphs never expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "flowrun:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Graphs returns the graph store view.
func (s *Store) Graphs() *GraphStore {
	return &GraphStore{s}
}

// Runs returns the run store view.
func (s *Store) Runs() *RunStore {
	return &RunStore{s}
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) graphKey(id string) string { return s.prefix + "graph:" + id }
func (s *Store) runKey(id string) string   { return s.prefix + "run:" + id }
func (s *Store) graphIndexKey() string     { return s.prefix + "graphs" }
func (s *Store) runIndexKey() string       { return s.prefix + "runs" }
