package memo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentuity/go-memo/logger"
	"github.com/agentuity/go-memo/memo"
	"github.com/agentuity/go-memo/slowfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sleep = 250 * time.Millisecond

func openSlow(t *testing.T, path string) (memo.Func[uint64], *memo.Cache) {
	t.Helper()
	log := logger.NewTestLogger()
	c, err := memo.New(context.Background(), path, memo.WithLogger(log), memo.WithFinalizer(false))
	require.NoError(t, err)
	return memo.Wrap(c, "slowfunction", slowfn.New(slowfn.Settings{Sleep: sleep}, log)), c
}

func timed(t *testing.T, f memo.Func[uint64], args memo.Args) (uint64, time.Duration) {
	t.Helper()
	start := time.Now()
	v, err := f(context.Background(), args)
	require.NoError(t, err)
	return v, time.Since(start)
}

func TestAtMostOneInvocation(t *testing.T) {
	f, c := openSlow(t, filepath.Join(t.TempDir(), "cache.memo"))
	defer c.Close()

	start := time.Now()
	for _, args := range []memo.Args{
		memo.Call(1, 2), memo.Call(1, 2), memo.Call(1, 2), memo.Call(1, 2), memo.Call(3, 4),
	} {
		timed(t, f, args)
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 2*sleep)
	assert.Less(t, elapsed, 2*sleep+100*time.Millisecond)
	assert.Equal(t, int64(2), c.Stats().Misses)
	assert.Equal(t, int64(3), c.Stats().Hits)
}

func TestRoundTripPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.memo")

	f, c := openSlow(t, path)
	want, _ := timed(t, f, memo.Call(1, 2))
	require.NoError(t, c.Close())

	f2, c2 := openSlow(t, path)
	defer c2.Close()
	start := time.Now()
	for range 10 {
		got, _ := timed(t, f2, memo.Call(1, 2))
		assert.Equal(t, want, got)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int64(0), c2.Stats().Misses)
}

func TestEmptyStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "cache.memo")

	_, c := openSlow(t, path)
	assert.Equal(t, 0, c.Len())
	require.NoError(t, c.Save(context.Background()))
	require.NoError(t, c.Close())

	_, c2 := openSlow(t, path)
	defer c2.Close()
	assert.Equal(t, 0, c2.Len())
}

func TestNamedOrderHits(t *testing.T) {
	f, c := openSlow(t, filepath.Join(t.TempDir(), "cache.memo"))
	defer c.Close()

	first, d1 := timed(t, f, memo.Call().With("name", "David").With("age", 21))
	second, d2 := timed(t, f, memo.Call().With("age", 21).With("name", "David"))
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, d1, sleep)
	assert.Less(t, d2, sleep)
}

func TestDistinctEntries(t *testing.T) {
	f, c := openSlow(t, filepath.Join(t.TempDir(), "cache.memo"))
	defer c.Close()

	positional, _ := timed(t, f, memo.Call(1, 2))
	named, _ := timed(t, f, memo.Call().With("a", 1).With("b", 2))
	reversed, _ := timed(t, f, memo.Call(2, 1))

	assert.NotEqual(t, positional, named)
	assert.NotEqual(t, positional, reversed)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, int64(3), c.Stats().Misses)
}
