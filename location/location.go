package location

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is returned by Load when no snapshot has been saved yet.
	ErrNotFound = errors.New("location: no snapshot stored")
	// ErrInvalid is returned when the location exists but cannot hold a
	// snapshot, e.g. a directory where a file is expected.
	ErrInvalid = errors.New("location: not a usable snapshot location")
)

// DefaultTimeout bounds each I/O operation of the remote locations.
const DefaultTimeout = 10 * time.Second

// Location is a single resource holding one serialized snapshot.
//
// Load returns the complete snapshot bytes, ErrNotFound when nothing has been
// saved, or an error matching ErrInvalid when the resource is of the wrong
// kind. Save replaces the whole snapshot. Implementations never append.
type Location interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	String() string
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
