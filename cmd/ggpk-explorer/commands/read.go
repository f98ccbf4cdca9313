package commands

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
	"github.com/caltus/ggpk-explorer-sub001/pkg/session"
)

// NewReadCmd creates a new read command
func NewReadCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		offset int64
		length int64
		region string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a byte range from the archive",
		Long: `Read queues a single range read against the archive and awaits it.
The range comes either from --offset/--length or from a named region
defined in the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := session.Open(ctx, opts.SessionOptions())
			if err != nil {
				return errors.Errorf("opening session: %w", err)
			}
			defer sess.Close()

			var handle *operation.Handle[[]byte]
			if region != "" {
				handle, err = sess.ReadRegionAsync(region)
				if err != nil {
					return errors.Errorf("resolving region: %w", err)
				}
			} else {
				handle = sess.ReadAsync(offset, length)
			}

			data, err := handle.Wait(ctx)
			if err != nil {
				return errors.Errorf("reading archive: %w", err)
			}

			if raw {
				if _, err := os.Stdout.Write(data); err != nil {
					return errors.Errorf("writing output: %w", err)
				}
				return nil
			}
			fmt.Print(hex.Dump(data))
			return nil
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "byte offset to read from")
	cmd.Flags().Int64Var(&length, "length", 64, "number of bytes to read")
	cmd.Flags().StringVar(&region, "region", "", "named region to read instead of offset/length")
	cmd.Flags().BoolVar(&raw, "raw", false, "write raw bytes instead of a hex dump")

	return cmd
}
