package main

import (
	"testing"

	"github.com/agentuity/go-memo/memo"
	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, -3, parseValue("-3"))
	assert.Equal(t, 2.5, parseValue("2.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, "tabby", parseValue("tabby"))
	assert.Equal(t, "", parseValue(""))
}

func TestParseArgs(t *testing.T) {
	args := parseArgs([]string{"1", "2", "cat=tabby", "frog=prince", "=odd", "x=1=2"})
	assert.Equal(t, []any{1, 2, "=odd"}, args.Positional)
	assert.Equal(t, map[string]any{"cat": "tabby", "frog": "prince", "x": "1=2"}, args.Named)

	a, err := memo.Canonicalize(parseArgs([]string{"name=David", "age=21"}))
	assert.NoError(t, err)
	b, err := memo.Canonicalize(parseArgs([]string{"age=21", "name=David"}))
	assert.NoError(t, err)
	assert.True(t, a.Equal(b))

	assert.Empty(t, parseArgs(nil).Positional)
}
