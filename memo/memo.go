package memo

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/agentuity/go-memo/location"
	"github.com/agentuity/go-memo/logger"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes functions and persists their results to a location.
//
// The snapshot is loaded once by Open and written back by Close (or Save).
// A Cache is safe for concurrent use. Calls made after Close still work
// against the in-memory store but are not saved unless Save is called.
type Cache struct {
	state *state
	group singleflight.Group

	cleanup    runtime.Cleanup
	hasCleanup bool
}

// state is everything the cleanup needs. It must not reference the Cache.
type state struct {
	loc   location.Location
	codec Codec
	log   logger.Logger
	store *store
	inst  *instruments

	saveOnClose atomic.Bool
	closeOnce   sync.Once
	closeErr    error
	saveMu      sync.Mutex

	hits      atomic.Int64
	misses    atomic.Int64
	keyErrors atomic.Int64
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	KeyErrors int64
}

// New opens a cache persisted to the file at path.
func New(ctx context.Context, path string, opts ...Option) (*Cache, error) {
	return Open(ctx, location.NewFile(path), opts...)
}

// Open opens a cache persisted to loc, loading the snapshot stored there if
// any. A missing snapshot yields an empty cache and nothing is created
// until the first save.
func Open(ctx context.Context, loc location.Location, opts ...Option) (*Cache, error) {
	if loc == nil {
		return nil, errors.Wrap(ErrInvalidLocation, "memo: nil location")
	}
	cfg := applyOptions(opts)
	inst, err := newInstruments(cfg.meter, cfg.tracer)
	if err != nil {
		return nil, errors.Wrap(err, "memo: create instruments")
	}
	s := &state{
		loc:   loc,
		codec: cfg.codec,
		log:   cfg.logger.WithPrefix("[memo]"),
		store: newStore(),
		inst:  inst,
	}
	s.saveOnClose.Store(cfg.saveOnClose)
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	c := &Cache{state: s}
	if cfg.finalizer {
		c.cleanup = runtime.AddCleanup(c, func(s *state) {
			s.teardown(context.Background(), "cleanup")
		}, s)
		c.hasCleanup = true
	}
	return c, nil
}

func (s *state) load(ctx context.Context) error {
	ctx, span := s.inst.startSpan(ctx, "memo.load", s.loc.String())
	defer span.End()

	data, err := s.loc.Load(ctx)
	switch {
	case errors.Is(err, location.ErrNotFound):
		s.log.Debug("no snapshot at %s, starting empty", s.loc)
		return nil
	case errors.Is(err, location.ErrInvalid):
		err = &StoreError{Op: "open", Location: s.loc.String(), Err: err, kind: ErrInvalidLocation}
	case err != nil:
		err = &StoreError{Op: "load", Location: s.loc.String(), Err: err, kind: ErrStoreLoad}
	default:
		entries, derr := decodeSnapshot(s.codec, data)
		if derr == nil {
			s.store.load(entries)
			span.SetAttributes(attribute.Int("memo.entries", len(entries)))
			s.log.Debug("loaded %d entries from %s", len(entries), s.loc)
			return nil
		}
		err = &StoreError{Op: "load", Location: s.loc.String(), Err: derr, kind: ErrStoreLoad}
	}
	failSpan(span, err)
	return err
}

func (s *state) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	ctx, span := s.inst.startSpan(ctx, "memo.save", s.loc.String())
	defer span.End()

	entries, err := s.store.snapshot(s.codec)
	var data []byte
	if err == nil {
		data, err = encodeSnapshot(s.codec, entries)
	}
	if err == nil {
		err = s.loc.Save(ctx, data)
	}
	if err != nil {
		serr := &StoreError{Op: "save", Location: s.loc.String(), Err: err, kind: ErrStoreSave}
		failSpan(span, serr)
		return serr
	}
	span.SetAttributes(attribute.Int("memo.entries", len(entries)))
	s.inst.recordSnapshot(ctx, len(data))
	s.log.Debug("saved %d entries (%d bytes) to %s", len(entries), len(data), s.loc)
	return nil
}

// teardown saves at most once, whichever of Close or the cleanup comes first.
func (s *state) teardown(ctx context.Context, trigger string) error {
	s.closeOnce.Do(func() {
		if !s.saveOnClose.Load() {
			s.log.Debug("%s: not saving %s", trigger, s.loc)
			return
		}
		if err := s.save(ctx); err != nil {
			s.log.Error("%s: %v", trigger, err)
			s.closeErr = err
		}
	})
	return s.closeErr
}

// Save writes the full store to the location, replacing the previous
// snapshot. Failures match ErrStoreSave.
func (c *Cache) Save(ctx context.Context) error {
	return c.state.save(ctx)
}

// Close is CloseContext with a background context.
func (c *Cache) Close() error {
	return c.CloseContext(context.Background())
}

// CloseContext saves the store if save-on-close is set. Only the first call
// saves; later calls return the same result.
func (c *Cache) CloseContext(ctx context.Context) error {
	if c.hasCleanup {
		c.cleanup.Stop()
	}
	return c.state.teardown(ctx, "close")
}

// SetSaveOnClose changes whether Close saves the store.
func (c *Cache) SetSaveOnClose(save bool) {
	c.state.saveOnClose.Store(save)
}

// SaveOnClose reports whether Close will save the store.
func (c *Cache) SaveOnClose() bool {
	return c.state.saveOnClose.Load()
}

// Location returns the location the cache persists to.
func (c *Cache) Location() location.Location {
	return c.state.loc
}

// Len returns the number of stored results across all wrapped functions.
func (c *Cache) Len() int {
	return c.state.store.len()
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.state.store.len(),
		Hits:      c.state.hits.Load(),
		Misses:    c.state.misses.Load(),
		KeyErrors: c.state.keyErrors.Load(),
	}
}
