// Command memo calls a deliberately slow function through a persisted memo
// cache, so repeated runs show cached results surviving restarts.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "memo",
		Short:         "Persistent function memoization",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.String("store", "", "snapshot location: a file path, sqlite://file#name, redis://host:port/db#key or s3://bucket/key (comma separated to mirror)")
	pf.String("codec", "", "snapshot codec: msgpack or cbor")
	pf.String("config", "", "YAML config file")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error or none")
	pf.String("otlp-url", "", "OTLP/HTTP collector url, telemetry is off when empty")
	pf.String("otlp-token", "", "bearer token for the OTLP collector")
	pf.String("sleep", "", "duration of each slow call, e.g. 250ms, 2s or 1d")
	pf.Bool("verbose", false, "log every slow call")

	root.AddCommand(newCallCommand(), newStatsCommand())
	return root
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
