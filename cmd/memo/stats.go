package main

import (
	"fmt"

	"github.com/agentuity/go-memo/env"
	"github.com/agentuity/go-memo/memo"
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := env.NewLogger(cmd)
			c, _, closeLoc, err := openCache(cmd, log, memo.WithSaveOnClose(false), memo.WithFinalizer(false))
			if err != nil {
				log.Error("%s", err)
				return err
			}
			defer closeLoc()
			defer c.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "location\t%s\n", c.Location())
			fmt.Fprintf(out, "entries\t%d\n", c.Len())
			return nil
		},
	}
}
