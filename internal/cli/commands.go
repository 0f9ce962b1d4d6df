package cli

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/spf13/cobra"
)

func (o *RootOptions) id(arg string) (any, error) {
	if !o.Numeric {
		return arg, nil
	}
	if _, err := strconv.ParseFloat(arg, 64); err != nil {
		return nil, NewExitError(ExitCommandError, "id "+strconv.Quote(arg)+" is not numeric")
	}
	return json.Number(arg), nil
}

func (o *RootOptions) out(cmd *cobra.Command) formatter {
	return formatter{format: o.Format, w: cmd.OutOrStdout()}
}

// parseObject keeps numbers as json.Number so large integer ids survive.
func parseObject(arg string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, NewExitError(ExitCommandError, "argument must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, NewExitError(ExitCommandError, "argument must be a single JSON object")
	}
	return m, nil
}

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every precinct record in stored order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			return opts.out(cmd).emit(Response{OK: true, Data: s.List(cmd.Context())})
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <precinct-id>",
		Short: "Show one precinct record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.id(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			rec, ok := s.Get(cmd.Context(), id)
			if !ok {
				_ = opts.out(cmd).emit(Response{Outcome: "not_found"})
				return NewExitError(ExitFailure, "precinct "+args[0]+" not found")
			}
			return opts.out(cmd).emit(Response{OK: true, Data: rec})
		},
	}
}

func newAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add <json-object>",
		Short:   "Add a precinct record",
		Example: `  precinctctl add '{"precinct_id":"123","priority":"high"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseObject(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			added, err := s.Add(cmd.Context(), rec)
			if err != nil {
				return WrapExitError(ExitCommandError, "add", err)
			}
			if !added {
				_ = opts.out(cmd).emit(Response{Outcome: "duplicate_key"})
				return NewExitError(ExitFailure, "precinct already exists")
			}
			id, _ := recordstore.Record(rec).ID()
			stored, _ := s.Get(cmd.Context(), id)
			return opts.out(cmd).emit(Response{OK: true, Outcome: "created", Data: stored})
		},
	}
}

func newUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <precinct-id> <json-object>",
		Short: "Merge fields into a precinct record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.id(args[0])
			if err != nil {
				return err
			}
			partial, err := parseObject(args[1])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := s.Update(cmd.Context(), id, partial)
			if err != nil {
				return WrapExitError(ExitCommandError, "update", err)
			}
			if !updated {
				_ = opts.out(cmd).emit(Response{Outcome: "not_found"})
				return NewExitError(ExitFailure, "precinct "+args[0]+" not found")
			}
			stored, _ := s.Get(cmd.Context(), id)
			return opts.out(cmd).emit(Response{OK: true, Outcome: "updated", Data: stored})
		},
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <precinct-id>",
		Short: "Remove every record with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.id(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			deleted, err := s.Delete(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitCommandError, "delete", err)
			}
			if !deleted {
				_ = opts.out(cmd).emit(Response{Outcome: "not_found"})
				return NewExitError(ExitFailure, "precinct "+args[0]+" not found")
			}
			return opts.out(cmd).emit(Response{OK: true, Outcome: "deleted"})
		},
	}
}
