// Package memo caches the results of deterministic, expensive function calls
// and persists them so they survive process restarts.
//
// A [Cache] is bound to one [location.Location]. [Open] loads the snapshot
// stored there, and [Cache.Close] writes the store back:
//
//	c, err := memo.New(ctx, "results.memo")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	square := memo.Wrap(c, "square", func(ctx context.Context, args memo.Args) (int, error) {
//		n := args.Positional[0].(int)
//		return n * n, nil
//	})
//	v, err := square(ctx, memo.Call(12))
//
// Keys are built from the arguments by [Canonicalize]: positional values keep
// their order, named values are sorted by name, and the dynamic type of every
// value is part of the key. Only values with stable, by-value equality can
// take part in a key. Pointers, slices, maps, funcs and channels are rejected
// with a [*KeyError].
//
// Stored values are serialized with the cache's [Codec] when saved and
// decoded into the wrapped function's result type on first use after a
// load, so result types must round-trip through the codec. Use concrete
// result types: an interface result comes back as whatever dynamic type the
// codec chooses.
//
// If a Cache becomes unreachable without Close, a runtime cleanup performs
// the same save. This is best effort; always Close.
package memo
