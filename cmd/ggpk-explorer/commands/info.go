package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/session"
)

// NewInfoCmd creates a new info command
func NewInfoCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show archive metadata",
		Long: `Info opens the archive and queues a stat and a header probe.
Both run on the dispatcher's worker goroutine; the command awaits
their handles and prints the results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := session.Open(ctx, opts.SessionOptions())
			if err != nil {
				return errors.Errorf("opening session: %w", err)
			}
			defer sess.Close()

			// Queue both before awaiting either; they run in order
			statHandle := sess.StatAsync()
			headerHandle := sess.HeaderAsync()

			info, err := statHandle.Wait(ctx)
			if err != nil {
				return errors.Errorf("statting archive: %w", err)
			}
			header, err := headerHandle.Wait(ctx)
			if err != nil {
				return errors.Errorf("probing header: %w", err)
			}

			fmt.Printf("Path:     %s\n", info.Path)
			fmt.Printf("Size:     %d bytes\n", info.Size)
			fmt.Printf("Modified: %s\n", info.ModTime)
			fmt.Printf("Header:   %s\n", hex.EncodeToString(header))
			return nil
		},
	}

	return cmd
}
