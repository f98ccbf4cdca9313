package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/commands"
	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/log"
)

func main() {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "ggpk-explorer",
		Short: "A tool for inspecting game archive files through a serialized operation queue",
		Long: `ggpk-explorer opens a GGPK game archive and runs every read against it
through a single-worker operation queue, the same way the desktop explorer
does. Reads can be submitted, awaited, and canceled without ever touching
the archive handle from more than one goroutine.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags are parsed by now; wire logging and config here
			logger := setupLogging()
			ctx := logger.WithContext(cmd.Context())
			o, err := newRootOpts(ctx)
			if err != nil {
				return err
			}
			*rootOpts = *o
			// The lifecycle logger rides the context so subcommands share
			// one buffered console writer.
			ctx = log.NewContext(ctx, log.New(os.Stderr, opLogLevel(o)))
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.FromContext(cmd.Context()).Close()
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewInfoCmd(rootOpts),
		commands.NewReadCmd(rootOpts),
		commands.NewRegionsCmd(rootOpts),
		commands.NewBenchCmd(rootOpts),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
