package store

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mindgraph/pkg/graph"
)

func TestStamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	fresh := sampleDoc("simple")
	stamp(fresh, nil, now)
	if fresh.Revision != 1 || fresh.ID == "" || !fresh.UpdatedAt.Equal(now) {
		t.Errorf("first stamp = rev %d id %q at %v", fresh.Revision, fresh.ID, fresh.UpdatedAt)
	}

	prev := &graph.Document{ID: "graph-1", Name: "simple", Revision: 4}
	next := sampleDoc("simple")
	next.ID, next.Revision = "client-id", 99
	stamp(next, prev, now.Add(time.Minute))
	if next.Revision != 5 || next.ID != "graph-1" {
		t.Errorf("stamp over rev 4 = rev %d id %q, want 5 graph-1", next.Revision, next.ID)
	}
}

// fakeGetter answers GET from a map.
type fakeGetter map[string]string

func (f fakeGetter) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRedisGet(t *testing.T) {
	doc := sampleDoc("simple")
	doc.Revision = 3
	data, err := graph.MarshalDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	s := NewRedisClient(nil, "")
	c := fakeGetter{
		"mindgraph:graph:simple": string(data),
		"mindgraph:graph:broken": "{",
	}
	ctx := context.Background()

	got, err := s.get(ctx, c, "simple")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Revision != 3 || got.Name != "simple" || !got.Snapshot().Equal(doc.Snapshot()) {
		t.Errorf("got %+v", got)
	}
	if _, err := s.get(ctx, c, "missing"); !IsNotFound(err) {
		t.Errorf("missing: err = %v, want not found", err)
	}
	if _, err := s.get(ctx, c, "broken"); err == nil || IsNotFound(err) {
		t.Errorf("broken: err = %v, want parse error", err)
	}
}

// testConcurrentPuts checks that racing writers each get their own revision.
func testConcurrentPuts(t *testing.T, s Store) {
	t.Helper()
	const writers = 4
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		revs []int64
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := sampleDoc("raced")
			if err := s.Put(ctx, doc); err != nil {
				t.Errorf("Put: %v", err)
				return
			}
			mu.Lock()
			revs = append(revs, doc.Revision)
			mu.Unlock()
		}()
	}
	wg.Wait()

	slices.Sort(revs)
	if want := []int64{1, 2, 3, 4}; !slices.Equal(revs, want) {
		t.Errorf("revisions = %v, want %v", revs, want)
	}
	got, err := s.Get(ctx, "raced")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Revision != writers {
		t.Errorf("stored revision = %d, want %d", got.Revision, writers)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("MINDGRAPH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MINDGRAPH_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("mindgraph-test-%d:", time.Now().UnixNano())
	s, err := NewRedis(ctx, RedisOptions{Addr: addr, Prefix: prefix})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := s.client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			s.client.Del(ctx, keys...)
		}
		s.Close()
	})

	testStore(t, s)
	testConcurrentPuts(t, s)
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("MINDGRAPH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MINDGRAPH_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongo(ctx, MongoOptions{
		URI:      uri,
		Database: fmt.Sprintf("mindgraph_test_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("NewMongo: %v", err)
	}
	t.Cleanup(func() {
		_ = s.coll.Database().Drop(ctx)
		s.Close()
	})

	testStore(t, s)
	testConcurrentPuts(t, s)
}
