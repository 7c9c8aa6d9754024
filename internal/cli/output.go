package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"

	"github.com/roach88/tessera/internal/core"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure or failed scenarios
	ExitCommandError = 2 // Bad flags, unreadable files, database that will not open
)

// Error codes reported by the CLI itself. Query and store failures carry
// their own codes (see ErrorCode).
const (
	CodeCommand    = "E_COMMAND"
	CodeTestFailed = "E_TEST_FAILED"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the command's
	// output, so main does not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope every command writes with --format json.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error half of the envelope.
type CLIError struct {
	Code    string        `json:"code"`              // query error code, store code or E_COMMAND
	Message string        `json:"message"`           // human-readable message
	Details *ErrorDetails `json:"details,omitempty"` // where a query failed
}

// ErrorDetails locates a query failure.
type ErrorDetails struct {
	// Clause is the 1-based where-clause index, 0 when not clause-specific.
	Clause int `json:"clause,omitempty"`

	// Variable is the query variable involved.
	Variable string `json:"variable,omitempty"`

	// StoreCode is the store's error code behind a STORE_EXECUTION error.
	StoreCode string `json:"storeCode,omitempty"`
}

func (d *ErrorDetails) String() string {
	var parts []string
	if d.Clause > 0 {
		parts = append(parts, fmt.Sprintf("clause=%d", d.Clause))
	}
	if d.Variable != "" {
		parts = append(parts, "variable="+d.Variable)
	}
	if d.StoreCode != "" {
		parts = append(parts, "store="+d.StoreCode)
	}
	return strings.Join(parts, " ")
}

// DetailsOf extracts the clause, variable and store code of a query error
// in err's chain. It returns nil when there is nothing to report.
func DetailsOf(err error) *ErrorDetails {
	var qe *core.QueryError
	if !errors.As(err, &qe) {
		return nil
	}
	d := &ErrorDetails{Clause: qe.Clause, Variable: qe.Variable}
	if qe.Code == core.ErrCodeStoreExecution {
		d.StoreCode = oopsCode(qe.Err)
	}
	if *d == (ErrorDetails{}) {
		return nil
	}
	return d
}

// ErrorCode picks the most specific code in err's chain: a query error code,
// then a store or config code.
func ErrorCode(err error) string {
	if code := core.CodeOf(err); code != "" {
		return string(code)
	}
	if code := oopsCode(err); code != "" {
		return code
	}
	return CodeCommand
}

func oopsCode(err error) string {
	if err == nil {
		return ""
	}
	oe, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oe.Code().(string)
	return code
}

// OutputFormatter writes command results as text or a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// Success writes a result.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error. Text output shows details only when verbose.
func (f *OutputFormatter) Error(code, message string, details *ErrorDetails) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %s\n", details)
	}
	return nil
}

// Fail reports err in the configured format and returns an ExitError with
// the given exit code, so the caller can return it directly.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	if outErr := f.Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), DetailsOf(err)); outErr != nil {
		return outErr
	}
	return &ExitError{Code: exitCode, Message: message, Err: err, Reported: true}
}

// VerboseLog writes a diagnostic line to ErrWriter (or Writer when unset)
// if verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
