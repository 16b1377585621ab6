package slowfn

import (
	"context"
	"testing"
	"time"

	"github.com/agentuity/go-memo/logger"
	"github.com/agentuity/go-memo/memo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepTiming(t *testing.T) {
	const sleep = 10 * time.Millisecond
	const loops = 10
	fn := New(Settings{Sleep: sleep}, logger.NewTestLogger())

	start := time.Now()
	for range loops {
		_, err := fn(context.Background(), memo.Call(1, 2))
		require.NoError(t, err)
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, loops*sleep)
	assert.Less(t, elapsed, 3*loops*sleep)
}

func TestResultIsArgumentHash(t *testing.T) {
	fn := New(Settings{}, logger.NewTestLogger())
	ctx := context.Background()

	for _, args := range []memo.Args{memo.Call(1, 2), memo.Call(1, 2), memo.Call(3, 4), memo.Call(1, 2)} {
		key, err := memo.Canonicalize(args)
		require.NoError(t, err)
		got, err := fn(ctx, args)
		require.NoError(t, err)
		assert.Equal(t, key.Fingerprint(), got)
	}

	a, err := fn(ctx, memo.Call().With("name", "David").With("age", 21))
	require.NoError(t, err)
	b, err := fn(ctx, memo.Call().With("age", 21).With("name", "David"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := fn(ctx, memo.Call(1, 2))
	require.NoError(t, err)
	d, err := fn(ctx, memo.Call(2, 1))
	require.NoError(t, err)
	assert.NotEqual(t, c, d)
}

func TestVerboseLogsCalls(t *testing.T) {
	log := logger.NewTestLogger()
	fn := New(Settings{Verbose: true}, log)
	_, err := fn(context.Background(), memo.Call(1, 2, 3).With("cat", "tabby").With("frog", "prince"))
	require.NoError(t, err)

	entries := log.Find("DEBUG", "args")
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].String(), `cat="tabby"`)

	quiet := logger.NewTestLogger()
	_, err = New(Settings{}, quiet)(context.Background(), memo.Call(1))
	require.NoError(t, err)
	assert.Empty(t, quiet.Logs())
}

func TestCanceledContext(t *testing.T) {
	fn := New(Settings{Sleep: time.Hour}, logger.NewTestLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fn(ctx, memo.Call(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnkeyableArguments(t *testing.T) {
	fn := New(Settings{}, logger.NewTestLogger())
	_, err := fn(context.Background(), memo.Call([]int{1}))
	assert.ErrorIs(t, err, memo.ErrKeyConstruction)
}

func TestDefaultSettings(t *testing.T) {
	assert.Equal(t, Settings{Sleep: time.Second}, DefaultSettings())
}
