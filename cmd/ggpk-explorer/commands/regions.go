package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/session"
)

// NewRegionsCmd creates a new regions command
func NewRegionsCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions [pattern]",
		Short: "List configured archive regions",
		Long: `Regions lists the named byte ranges from the config file, optionally
filtered by a doublestar glob pattern matched against region names,
e.g. "data/**".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pattern := "**"
			if len(args) == 1 {
				pattern = args[0]
			}

			sess, err := session.Open(ctx, opts.SessionOptions())
			if err != nil {
				return errors.Errorf("opening session: %w", err)
			}
			defer sess.Close()

			regions, err := sess.RegionsMatching(pattern)
			if err != nil {
				return errors.Errorf("matching regions: %w", err)
			}
			if len(regions) == 0 {
				fmt.Println("no regions match")
				return nil
			}
			for _, r := range regions {
				fmt.Printf("%-30s offset=%-12d length=%d\n", r.Name, r.Offset, r.Length)
			}
			return nil
		},
	}

	return cmd
}
