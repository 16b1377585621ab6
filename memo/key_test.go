package memo

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T, args Args) Key {
	t.Helper()
	k, err := Canonicalize(args)
	require.NoError(t, err)
	return k
}

func TestCanonicalizeNamedOrder(t *testing.T) {
	a := mustKey(t, Call().With("name", "David").With("age", 21))
	b := mustKey(t, Call().With("age", 21).With("name", "David"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, []NamedArg{{"age", 21}, {"name", "David"}}, a.Named)
}

func TestCanonicalizePositionalOrder(t *testing.T) {
	assert.False(t, mustKey(t, Call(1, 2)).Equal(mustKey(t, Call(2, 1))))
	assert.True(t, mustKey(t, Call(1, 2)).Equal(mustKey(t, Call(1, 2))))
}

func TestCanonicalizePositionalVsNamed(t *testing.T) {
	pos := mustKey(t, Call(1, 2))
	named := mustKey(t, Call().With("a", 1).With("b", 2))
	assert.False(t, pos.Equal(named))
	assert.False(t, mustKey(t, Call()).Equal(mustKey(t, Call(nil))))
}

func TestCanonicalizeTypeSensitive(t *testing.T) {
	type celsius float64
	assert.False(t, mustKey(t, Call(1)).Equal(mustKey(t, Call(int64(1)))))
	assert.False(t, mustKey(t, Call(1)).Equal(mustKey(t, Call("1"))))
	assert.False(t, mustKey(t, Call(1.5)).Equal(mustKey(t, Call(celsius(1.5)))))
	assert.False(t, mustKey(t, Call(1)).Equal(mustKey(t, Call(1.0))))
}

type box struct{ V any }

func TestCanonicalizeNestedTypeSensitive(t *testing.T) {
	pairs := map[string][2]any{
		"struct field":  {box{V: 1}, box{V: int64(1)}},
		"array element": {[2]any{uint8(7), 1}, [2]any{7, uint(1)}},
		"nil field":     {box{}, box{V: 0}},
		"nested box":    {box{V: box{V: 1}}, box{V: box{V: "1"}}},
		"float field":   {box{V: float32(1.5)}, box{V: 1.5}},
	}
	for name, pair := range pairs {
		t.Run(name, func(t *testing.T) {
			require.NotEqual(t, pair[0], pair[1])
			a := mustKey(t, Call(pair[0]))
			b := mustKey(t, Call(pair[1]))
			assert.False(t, a.Equal(b))
			assert.True(t, a.Equal(mustKey(t, Call(pair[0]))))
		})
	}
}

func TestCanonicalizeDoesNotAliasArgs(t *testing.T) {
	pos := []any{1, 2}
	k := mustKey(t, Args{Positional: pos})
	pos[0] = 99
	assert.Equal(t, []any{1, 2}, k.Positional)
}

func TestArgsWithCopies(t *testing.T) {
	base := Call(1).With("a", 1)
	derived := base.With("b", 2)
	assert.Len(t, base.Named, 1)
	assert.Len(t, derived.Named, 2)
	assert.Equal(t, []any{1}, derived.Positional)
}

func TestKeyString(t *testing.T) {
	k := mustKey(t, Call(1, "a").With("z", true).With("n", nil))
	assert.Equal(t, `(1, "a", n=<nil>, z=true)`, k.String())
}

type point struct {
	X, Y int
}

type label string

func TestCanonicalizeAccepts(t *testing.T) {
	cases := map[string]any{
		"nil":       nil,
		"bool":      true,
		"int":       -7,
		"uint8":     uint8(200),
		"float":     3.25,
		"string":    "hello",
		"named":     label("x"),
		"array":     [3]int{1, 2, 3},
		"any array": [2]any{1, "two"},
		"struct":    point{1, 2},
		"anonymous": struct{ Name string }{"n"},
		"time":      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Canonicalize(Call(v).With("v", v))
			assert.NoError(t, err)
		})
	}
}

func TestCanonicalizeRejects(t *testing.T) {
	n := 1
	cases := map[string]any{
		"slice":        []int{1},
		"map":          map[string]int{"a": 1},
		"pointer":      &n,
		"func":         func() {},
		"chan":         make(chan int),
		"complex":      complex(1, 2),
		"unexported":   struct{ x int }{1},
		"slice field":  struct{ A []int }{},
		"nested slice": [1]any{[]int{1}},
		"skipped": struct {
			A int `msgpack:"-"`
		}{},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Canonicalize(Call("ok", v))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrKeyConstruction)

			var kerr *KeyError
			require.True(t, errors.As(err, &kerr))
			assert.Equal(t, "#1", kerr.Arg)
			assert.NotEmpty(t, kerr.Reason)
		})
	}
}

func TestCanonicalizeNamedError(t *testing.T) {
	_, err := Canonicalize(Call(1).With("tags", []string{"a"}))
	var kerr *KeyError
	require.True(t, errors.As(err, &kerr))
	assert.Equal(t, "tags", kerr.Arg)
	assert.Equal(t, "[]string", kerr.Type)
	assert.Contains(t, err.Error(), "tags")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "nil", typeName(nil))
	assert.Equal(t, "int", typeName(1))
	assert.Equal(t, "github.com/agentuity/go-memo/memo.point", typeName(point{}))
	assert.Equal(t, "[2]int", typeName([2]int{}))
}
