package memo

import (
	"context"
	"strings"
	"time"
)

// Func is a function whose result can be memoized. It must be deterministic
// in its arguments.
type Func[R any] func(ctx context.Context, args Args) (R, error)

// Wrap returns fn memoized in c under name. Names separate the entries of
// different functions sharing one cache, so each wrapped function needs a
// stable name of its own. Wrap panics if name is empty or contains a NUL
// byte.
//
// On a miss fn is called with the caller's ctx and args, and its result is
// stored only when it returns a nil error. Errors from fn are returned
// unchanged. Concurrent misses on the same key share one call to fn.
// Arguments that cannot form a key return a *KeyError and fn is not called.
//
// R should be a concrete type. Results loaded from a snapshot are decoded
// into R by the cache's Codec, and when R is an interface such as any the
// codec picks the dynamic type: an int stored by Func[any] comes back as
// int8 from msgpack.
func Wrap[R any](c *Cache, name string, fn Func[R]) Func[R] {
	if name == "" || strings.ContainsRune(name, 0) {
		panic("memo: function name must be non-empty and contain no NUL bytes")
	}
	if fn == nil {
		panic("memo: nil function")
	}
	s := c.state
	log := s.log.With(map[string]interface{}{"function": name})

	return func(ctx context.Context, args Args) (R, error) {
		var zero R
		key, err := Canonicalize(args)
		if err != nil {
			s.keyErrors.Add(1)
			s.inst.recordCall(ctx, name, resultKeyError)
			log.Warn("%v", err)
			return zero, err
		}
		id := name + "\x00" + key.id

		if r, ok, err := get[R](s, id); err != nil {
			s.inst.recordCall(ctx, name, resultError)
			return zero, err
		} else if ok {
			s.hits.Add(1)
			s.inst.recordCall(ctx, name, resultHit)
			return r, nil
		}

		computed := false
		v, err, _ := c.group.Do(id, func() (any, error) {
			if r, ok, err := get[R](s, id); ok || err != nil {
				return r, err
			}
			computed = true
			start := time.Now()
			r, err := fn(ctx, args)
			elapsed := time.Since(start)
			s.inst.recordCompute(ctx, name, elapsed)
			if err != nil {
				return r, err
			}
			s.store.insert(id, r)
			log.Trace("miss %016x computed in %s", key.Fingerprint(), elapsed)
			return r, nil
		})
		if computed {
			s.misses.Add(1)
		}
		if err != nil {
			if computed {
				log.Debug("call failed, result not stored: %v", err)
			}
			s.inst.recordCall(ctx, name, resultError)
			return zero, err
		}
		if computed {
			s.inst.recordCall(ctx, name, resultMiss)
		} else {
			s.hits.Add(1)
			s.inst.recordCall(ctx, name, resultHit)
		}
		r, _ := v.(R)
		return r, nil
	}
}

func get[R any](s *state, id string) (R, bool, error) {
	r, ok, err := lookup[R](s.store, s.codec, id)
	if err != nil {
		return r, true, &StoreError{Op: "decode", Location: s.loc.String(), Err: err, kind: ErrStoreLoad}
	}
	return r, ok, nil
}

// Wrap1 memoizes a one-argument function. The comparable constraint rules
// out slices, maps and funcs at compile time.
func Wrap1[A comparable, R any](c *Cache, name string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	inner := Wrap(c, name, func(ctx context.Context, args Args) (R, error) {
		a, _ := args.Positional[0].(A)
		return fn(ctx, a)
	})
	return func(ctx context.Context, a A) (R, error) {
		return inner(ctx, Call(a))
	}
}

// Wrap2 memoizes a two-argument function.
func Wrap2[A, B comparable, R any](c *Cache, name string, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	inner := Wrap(c, name, func(ctx context.Context, args Args) (R, error) {
		a, _ := args.Positional[0].(A)
		b, _ := args.Positional[1].(B)
		return fn(ctx, a, b)
	})
	return func(ctx context.Context, a A, b B) (R, error) {
		return inner(ctx, Call(a, b))
	}
}

// Wrap3 memoizes a three-argument function.
func Wrap3[A, B, C comparable, R any](c *Cache, name string, fn func(context.Context, A, B, C) (R, error)) func(context.Context, A, B, C) (R, error) {
	inner := Wrap(c, name, func(ctx context.Context, args Args) (R, error) {
		a, _ := args.Positional[0].(A)
		b, _ := args.Positional[1].(B)
		cc, _ := args.Positional[2].(C)
		return fn(ctx, a, b, cc)
	})
	return func(ctx context.Context, a A, b B, cc C) (R, error) {
		return inner(ctx, Call(a, b, cc))
	}
}

// Memoize opens a cache on the file at path and wraps fn in it. The caller
// must Close the returned cache to persist results.
func Memoize[R any](ctx context.Context, path, name string, fn Func[R], opts ...Option) (Func[R], *Cache, error) {
	c, err := New(ctx, path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return Wrap(c, name, fn), c, nil
}
