package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string // default "localhost:6379"
	Password string
	DB       int
	Prefix   string // key prefix, default "mindgraph:graph:"
}

// Redis stores each document as a JSON string under <prefix><name>.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisClient(client, opts.Prefix), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "mindgraph:graph:"
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (s *Redis) key(name string) string { return s.prefix + name }

// Get returns the document named name, or ErrNotFound.
func (s *Redis) Get(ctx context.Context, name string) (*graph.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	doc, err := s.get(ctx, s.client, name)
	observability.Store().OnStoreGet(ctx, BackendRedis, name, err == nil)
	return doc, err
}

// getter is the part of redis.Client and redis.Tx used for reads.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Redis) get(ctx context.Context, c getter, name string) (*graph.Document, error) {
	data, err := c.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	doc, err := graph.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", name, err)
	}
	doc.Name = name
	return doc, nil
}

// Put replaces the document inside a WATCH transaction so concurrent writers
// never reuse a revision number.
func (s *Redis) Put(ctx context.Context, doc *graph.Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}
	key := s.key(doc.Name)

	txf := func(tx *redis.Tx) error {
		prev, err := s.get(ctx, tx, doc.Name)
		if err != nil && !IsNotFound(err) {
			return err
		}
		stamp(doc, prev, s.now())
		data, err := graph.MarshalDocument(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	var err error
	for range 5 {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		err = fmt.Errorf("redis put %s: %w", doc.Name, err)
	}
	observability.Store().OnStorePut(ctx, BackendRedis, doc.Name, len(doc.Nodes), err)
	return err
}

// List scans the key prefix and returns the names, sorted.
func (s *Redis) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the underlying client.
func (s *Redis) Close() error { return s.client.Close() }

var _ Store = (*Redis)(nil)
