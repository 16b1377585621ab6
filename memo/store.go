package memo

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
)

type entry struct {
	value   any
	decoded bool
	// raw is the encoded value, set for entries loaded from a snapshot.
	raw []byte
}

// store maps namespaced key ids to results. It only grows.
type store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newStore() *store {
	return &store{entries: make(map[string]*entry)}
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *store) load(entries []snapshotEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, ok := s.entries[string(e.Key)]; !ok {
			s.entries[string(e.Key)] = &entry{raw: e.Value}
		}
	}
}

// insert stores value under id unless id is already present.
func (s *store) insert(id string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return false
	}
	s.entries[id] = &entry{value: value, decoded: true}
	return true
}

// lookup returns the value under id as an R. Loaded entries are decoded on
// first access and kept decoded.
func lookup[R any](s *store, codec Codec, id string) (R, bool, error) {
	var zero R
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return zero, false, nil
	}
	if !e.decoded {
		var r R
		if err := codec.Unmarshal(e.raw, &r); err != nil {
			return zero, true, errors.Wrapf(err, "decode stored %s", reflect.TypeFor[R]())
		}
		e.value, e.decoded = r, true
		return r, true, nil
	}
	if e.value == nil {
		return zero, true, nil
	}
	r, ok := e.value.(R)
	if !ok {
		return zero, true, errors.Newf("stored value is %T, not %s", e.value, reflect.TypeFor[R]())
	}
	return r, true, nil
}

// snapshot encodes every entry. The map is copied under the lock and values
// are encoded outside it.
func (s *store) snapshot(codec Codec) ([]snapshotEntry, error) {
	type item struct {
		id string
		e  entry
	}
	s.mu.Lock()
	items := make([]item, 0, len(s.entries))
	for id, e := range s.entries {
		items = append(items, item{id: id, e: *e})
	}
	s.mu.Unlock()

	out := make([]snapshotEntry, 0, len(items))
	for _, it := range items {
		raw := it.e.raw
		if raw == nil {
			var err error
			if raw, err = codec.Marshal(it.e.value); err != nil {
				return nil, errors.Wrapf(err, "encode %T", it.e.value)
			}
		}
		out = append(out, snapshotEntry{Key: []byte(it.id), Value: raw})
	}
	return out, nil
}
