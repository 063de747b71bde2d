package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// memQueue is an in-memory Queue with Redis list semantics
// (LPUSH at the head, RPOP from the tail).
type memQueue struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newMemQueue() *memQueue { return &memQueue{lists: map[string][]string{}} }

func (q *memQueue) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		var s string
		switch t := v.(type) {
		case []byte:
			s = string(t)
		case string:
			s = t
		default:
			s = fmt.Sprint(t)
		}
		q.lists[key] = append([]string{s}, q.lists[key]...)
	}
	return redis.NewIntResult(int64(len(q.lists[key])), nil)
}

func (q *memQueue) RPop(_ context.Context, key string) *redis.StringCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	l := q.lists[key]
	if len(l) == 0 {
		return redis.NewStringResult("", redis.Nil)
	}
	v := l[len(l)-1]
	q.lists[key] = l[:len(l)-1]
	return redis.NewStringResult(v, nil)
}

func (q *memQueue) BRPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	for _, k := range keys {
		if v, err := q.RPop(ctx, k).Result(); err == nil {
			return redis.NewStringSliceResult([]string{k, v}, nil)
		}
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (q *memQueue) LLen(_ context.Context, key string) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	return redis.NewIntResult(int64(len(q.lists[key])), nil)
}

func (q *memQueue) jobs(t *testing.T, key string) []Job {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.lists[key]))
	for _, raw := range q.lists[key] {
		var j Job
		require.NoError(t, json.Unmarshal([]byte(raw), &j))
		out = append(out, j)
	}
	return out
}

func (q *memQueue) dlq(t *testing.T, queue string) []DLQEntry {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DLQEntry, 0)
	for _, raw := range q.lists[DLQPrefix+queue] {
		var e DLQEntry
		require.NoError(t, json.Unmarshal([]byte(raw), &e))
		out = append(out, e)
	}
	return out
}
