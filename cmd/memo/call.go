package main

import (
	"fmt"
	"time"

	"github.com/agentuity/go-memo/env"
	"github.com/agentuity/go-memo/logger"
	"github.com/agentuity/go-memo/memo"
	"github.com/agentuity/go-memo/slowfn"
	"github.com/agentuity/go-memo/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const functionName = "slowfunction"

func openCache(cmd *cobra.Command, log logger.Logger, opts ...memo.Option) (*memo.Cache, Config, func() error, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, cfg, nil, err
	}
	codec, err := memo.CodecByName(cfg.Codec)
	if err != nil {
		return nil, cfg, nil, err
	}
	loc, closeLoc, err := openLocation(cmd.Context(), cfg.Store, cfg.S3)
	if err != nil {
		return nil, cfg, nil, err
	}
	opts = append([]memo.Option{memo.WithLogger(log), memo.WithCodec(codec)}, opts...)
	c, err := memo.Open(cmd.Context(), loc, opts...)
	if err != nil {
		closeLoc()
		return nil, cfg, nil, err
	}
	return c, cfg, closeLoc, nil
}

func newCallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call [args...]",
		Short: "Call the slow function through the cache",
		Long: `Call the slow function with the given arguments and print its result
and the time taken. Arguments of the form name=value are passed by name.
Values are read as an int, a float or a bool when they parse as one.`,
		RunE: func(cmd *cobra.Command, argv []string) (err error) {
			ctx, log, shutdown, err := env.NewTelemetry(cmd.Context(), cmd, "memo")
			if err != nil {
				return err
			}
			defer shutdown()
			cmd.SetContext(ctx)

			c, cfg, closeLoc, err := openCache(cmd, log)
			if err != nil {
				log.Error("%s", err)
				return err
			}
			defer closeLoc()
			defer func() {
				if cerr := c.Close(); err == nil {
					err = cerr
				}
			}()

			repeat, _ := cmd.Flags().GetInt("repeat")
			args := parseArgs(argv)
			f := memo.Wrap(c, functionName, slowfn.New(cfg.slowSettings(), log))
			tracer := otel.Tracer("github.com/agentuity/go-memo/cmd/memo")

			for i := range max(repeat, 1) {
				spanCtx, spanLog, span := telemetry.StartSpan(ctx, log, tracer, "memo.call",
					trace.WithAttributes(attribute.Int("memo.repeat", i)))
				start := time.Now()
				v, err := f(spanCtx, args)
				elapsed := time.Since(start)
				span.End()
				if err != nil {
					spanLog.Error("call failed: %s", err)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", v, elapsed.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().Int("repeat", 1, "number of times to make the call")
	return cmd
}
