package memo

import (
	"bytes"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Args are the arguments of one call: positional values in order plus named
// values.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Call returns Args holding the given positional values.
func Call(positional ...any) Args {
	return Args{Positional: positional}
}

// With returns a copy of a with the named argument set. a is not modified.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	maps.Copy(named, a.Named)
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// NamedArg is one named argument of a Key.
type NamedArg struct {
	Name  string
	Value any
}

// Key is the canonical, order-normalized form of a call's arguments.
// Named arguments are sorted by name; positional order is preserved. Keys
// are compared by their encoding, never by identity.
type Key struct {
	Positional []any
	Named      []NamedArg

	id string
}

// Equal reports whether k and o identify the same call.
func (k Key) Equal(o Key) bool {
	return k.id == o.id
}

// Bytes returns the deterministic encoding of k.
func (k Key) Bytes() []byte {
	return []byte(k.id)
}

// Fingerprint is a 64-bit hash of the key encoding.
func (k Key) Fingerprint() uint64 {
	return xxhash.Sum64String(k.id)
}

func (k Key) String() string {
	parts := make([]string, 0, len(k.Positional)+len(k.Named))
	for _, v := range k.Positional {
		parts = append(parts, fmt.Sprintf("%#v", v))
	}
	for _, n := range k.Named {
		parts = append(parts, fmt.Sprintf("%s=%#v", n.Name, n.Value))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Canonicalize builds the Key for args. Every value must be keyable:
// nil, booleans, numbers, strings, time.Time, and arrays or structs made
// only of those. Anything else fails with a *KeyError. The type of every
// value, nested ones included, is part of the key.
func Canonicalize(args Args) (Key, error) {
	key := Key{
		Positional: slices.Clone(args.Positional),
		Named:      make([]NamedArg, 0, len(args.Named)),
	}
	pos := make([]any, 0, len(args.Positional))
	for i, v := range args.Positional {
		kv, err := checkArg("#"+strconv.Itoa(i), v)
		if err != nil {
			return Key{}, err
		}
		pos = append(pos, []any{typeName(v), kv})
	}
	named := make([]any, 0, len(args.Named))
	for _, name := range slices.Sorted(maps.Keys(args.Named)) {
		v := args.Named[name]
		kv, err := checkArg(name, v)
		if err != nil {
			return Key{}, err
		}
		key.Named = append(key.Named, NamedArg{Name: name, Value: v})
		named = append(named, []any{name, typeName(v), kv})
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.SetSortMapKeys(true)
	if err := enc.Encode([]any{pos, named}); err != nil {
		return Key{}, &KeyError{Arg: "*", Type: "args", Reason: err.Error()}
	}
	key.id = buf.String()
	return key, nil
}

func checkArg(arg string, v any) (any, error) {
	kv, reason := keyValue(reflect.ValueOf(v))
	if reason != "" {
		return nil, &KeyError{Arg: arg, Type: typeName(v), Reason: reason}
	}
	return kv, nil
}

func typeName(v any) string {
	return typeNameOf(reflect.TypeOf(v))
}

func typeNameOf(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

var timeType = reflect.TypeFor[time.Time]()

// keyValue returns the form of v that is encoded into a key, or why v cannot
// be part of one. Arrays and structs become lists of their elements. A value
// held in an interface becomes a [type name, value] pair, so values of
// different dynamic types never encode alike.
func keyValue(v reflect.Value) (any, string) {
	if !v.IsValid() {
		return nil, ""
	}
	t := v.Type()
	if t == timeType {
		return v.Interface(), ""
	}
	switch t.Kind() {
	case reflect.Bool:
		return v.Bool(), ""
	case reflect.String:
		return v.String(), ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), ""
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), ""
	case reflect.Float32, reflect.Float64:
		return v.Float(), ""
	case reflect.Interface:
		if v.IsNil() {
			return nil, ""
		}
		elem := v.Elem()
		kv, reason := keyValue(elem)
		if reason != "" {
			return nil, reason
		}
		return []any{typeNameOf(elem.Type()), kv}, ""
	case reflect.Array:
		if !t.Comparable() {
			return nil, t.String() + " is not comparable"
		}
		elems := make([]any, v.Len())
		for i := range v.Len() {
			kv, reason := keyValue(v.Index(i))
			if reason != "" {
				return nil, fmt.Sprintf("element %d: %s", i, reason)
			}
			elems[i] = kv
		}
		return elems, ""
	case reflect.Struct:
		fields := make([]any, t.NumField())
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				return nil, "field " + f.Name + " is unexported"
			}
			if name, _, _ := strings.Cut(f.Tag.Get("msgpack"), ","); name == "-" {
				return nil, "field " + f.Name + " is not encoded"
			}
			kv, reason := keyValue(v.Field(i))
			if reason != "" {
				return nil, "field " + f.Name + ": " + reason
			}
			fields[i] = kv
		}
		return fields, ""
	case reflect.Pointer, reflect.UnsafePointer, reflect.Uintptr:
		return nil, "addresses are not stable across runs"
	case reflect.Complex64, reflect.Complex128:
		return nil, "complex numbers are not supported"
	case reflect.Chan:
		return nil, "channels compare by identity"
	}
	return nil, t.Kind().String() + " values are not comparable"
}
