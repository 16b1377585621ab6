package location

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// Chain mirrors one snapshot across several locations. Load returns the
// snapshot of the first location that has one, checked in order. Save writes
// to every location and returns the first error.
type Chain struct {
	locations []Location
}

var _ Location = (*Chain)(nil)

// NewChain returns a Chain with primary checked first. Panics if primary is nil.
func NewChain(primary Location, mirrors ...Location) *Chain {
	if primary == nil {
		panic("location: NewChain requires a primary location")
	}
	return &Chain{locations: append([]Location{primary}, mirrors...)}
}

func (c *Chain) String() string {
	names := make([]string, 0, len(c.locations))
	for _, l := range c.locations {
		names = append(names, l.String())
	}
	return "chain(" + strings.Join(names, ", ") + ")"
}

func (c *Chain) Load(ctx context.Context) ([]byte, error) {
	for _, l := range c.locations {
		data, err := l.Load(ctx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return data, err
	}
	return nil, ErrNotFound
}

func (c *Chain) Save(ctx context.Context, data []byte) error {
	var firstErr error
	for _, l := range c.locations {
		if err := l.Save(ctx, data); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "save %s", l)
		}
	}
	return firstErr
}
