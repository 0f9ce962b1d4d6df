// Package cli implements precinctctl, a command-line client for the
// precinct record store.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format    string
	StorePath string
	Numeric   bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "precinctctl",
		Short: "Inspect and edit the precinct strategy store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "precinct_strategy.json", "path to the precinct document")
	cmd.PersistentFlags().BoolVar(&opts.Numeric, "numeric", false, "treat id arguments as JSON numbers")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))

	return cmd
}

func (o *RootOptions) open(ctx context.Context) (*recordstore.Store, error) {
	s, err := recordstore.Open(ctx, recordstore.NewFileBackend(o.StorePath), recordstore.WithName("precinctctl"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return s, nil
}
