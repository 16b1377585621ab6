package main

import (
	"strconv"
	"strings"

	"github.com/agentuity/go-memo/memo"
)

// parseArgs turns command line words into call arguments. "name=value" is a
// named argument, anything else is positional.
func parseArgs(words []string) memo.Args {
	args := memo.Call()
	for _, w := range words {
		if name, value, ok := strings.Cut(w, "="); ok && name != "" {
			args = args.With(name, parseValue(value))
			continue
		}
		args.Positional = append(args.Positional, parseValue(w))
	}
	return args
}

// parseValue reads s as an int, then a float, then a bool, else a string.
func parseValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
