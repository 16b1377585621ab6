// Package slowfn provides a deliberately slow, deterministic function for
// exercising memo caches.
package slowfn

import (
	"context"
	"time"

	"github.com/agentuity/go-memo/logger"
	"github.com/agentuity/go-memo/memo"
)

// DefaultSleep is the Sleep used by DefaultSettings.
const DefaultSleep = time.Second

// Settings controls the behavior of a slow function.
type Settings struct {
	// Sleep is how long each call takes. Zero makes calls immediate.
	Sleep time.Duration
	// Verbose logs every call at debug level.
	Verbose bool
}

func DefaultSettings() Settings {
	return Settings{Sleep: DefaultSleep}
}

// New returns a function that sleeps for settings.Sleep and then returns a
// hash of its arguments. Calls with the same arguments, named ones in any
// order, return the same value. The sleep ends early if ctx is done.
func New(settings Settings, log logger.Logger) memo.Func[uint64] {
	if log == nil {
		log = logger.NewConsoleLogger(logger.GetLevelFromEnv())
	}
	log = log.WithPrefix("[slowfn]")
	return func(ctx context.Context, args memo.Args) (uint64, error) {
		key, err := memo.Canonicalize(args)
		if err != nil {
			return 0, err
		}
		if settings.Verbose {
			log.Debug("args %s, sleeping %s", key, settings.Sleep)
		}
		if settings.Sleep > 0 {
			timer := time.NewTimer(settings.Sleep)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		return key.Fingerprint(), nil
	}
}
