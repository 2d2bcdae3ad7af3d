// Package redis provides the Redis store adapter, for sharing templates and
// run history across hosts.
//
// Records are stored as plain string values under
// "<prefix><collection>:<id>", with a sorted-set index per collection at
// "<prefix><collection>::index". The index carries each record's expiry
// time as its score so List can lazily prune entries whose values have
// already expired.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/weavehq/loom/pkg/store"
)

// farFuture is the index score for records without a TTL: 2100-01-01 UTC.
const farFuture = 4102444800

// Store implements store.Store on Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiration on stored records. Zero, the default, keeps
// records forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix. The default is "loom:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store connected to the given Redis address.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store around an existing client. The store takes
// ownership: Close closes the client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "loom:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(collection, id string) string {
	return s.prefix + collection + ":" + id
}

// indexKey uses a double colon so it can never collide with a record key:
// ids are validated to never start with a separator.
func (s *Store) indexKey(collection string) string {
	return s.prefix + collection + "::index"
}

// Put stores value under (collection, id), replacing any existing record.
func (s *Store) Put(ctx context.Context, collection, id string, value []byte) error {
	if err := store.ValidateKey("collection", collection); err != nil {
		return err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return err
	}

	score := float64(farFuture)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(collection, id), value, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(collection), backend.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing record to redis: %w", err)
	}
	return nil
}

// Get returns the record stored under (collection, id).
func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := store.ValidateKey("collection", collection); err != nil {
		return nil, err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, s.key(collection, id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("reading record from redis: %w", err)
	}
	return []byte(val), nil
}

// Delete removes (collection, id). Absent records are ignored.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := store.ValidateKey("collection", collection); err != nil {
		return err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(collection, id))
	pipe.ZRem(ctx, s.indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting record from redis: %w", err)
	}
	return nil
}

// List returns the ids in a collection, ascending. Entries whose TTL has
// passed are pruned from the index first; an id whose value expired between
// prunes may still be listed until the next call.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := store.ValidateKey("collection", collection); err != nil {
		return nil, err
	}

	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(collection), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("pruning expired records: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing collection from redis: %w", err)
	}

	// The index orders by expiry score; the port promises ascending ids.
	sort.Strings(ids)
	return ids, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
