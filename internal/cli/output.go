package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // lookup or mutation had no effect
	ExitCommandError = 2 // bad arguments or unreadable store
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error; plain errors map to
// ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope for every command.
type Response struct {
	OK      bool   `json:"ok"`
	Outcome string `json:"outcome,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type formatter struct {
	format string
	w      io.Writer
}

func (f formatter) emit(resp Response) error {
	if f.format == "json" {
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Outcome != "" {
		fmt.Fprintln(f.w, resp.Outcome)
	}
	switch d := resp.Data.(type) {
	case []recordstore.Record:
		for _, r := range d {
			fmt.Fprintln(f.w, summary(r))
		}
	case recordstore.Record:
		writeRecord(f.w, d)
	}
	return nil
}

// summary renders one record on a line: id, then the remaining fields
// in key order.
func summary(r recordstore.Record) string {
	id, _ := r.ID()
	parts := []string{fmt.Sprint(id)}
	for _, k := range sortedKeys(r) {
		if k == recordstore.KeyField {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, r[k]))
	}
	return strings.Join(parts, "\t")
}

func writeRecord(w io.Writer, r recordstore.Record) {
	for _, k := range sortedKeys(r) {
		fmt.Fprintf(w, "%s: %v\n", k, r[k])
	}
}

func sortedKeys(r recordstore.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
