package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bookclub/raffle/internal/raffle"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused or failed (not found, unavailable, persistence, failed check)
	ExitCommandError = 2 // Command error (bad config, bad arguments, store cannot open)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// exitCodeFor maps a raffle error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case raffle.IsConfigError(err), raffle.IsInvalidRequest(err):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // raffle error code, e.g. "NOT_FOUND"
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// errorDetails is the structured context of a raffle error.
type errorDetails struct {
	ReservationID string `json:"reservation_id,omitempty"`
	Numbers       []int  `json:"numbers,omitempty"`
	Cause         string `json:"cause,omitempty"`
}

// Success outputs data as JSON, or calls text to write the human-readable
// form.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %+v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Errors that are not raffle errors are reported as COMMAND failures.
func (f *OutputFormatter) Fail(err error) error {
	var re *raffle.Error
	if !errors.As(err, &re) {
		_ = f.Error("COMMAND", err.Error(), nil)
		return WrapExitError(GetExitCode(err), "command failed", err)
	}

	message := strings.TrimPrefix(re.Error(), string(re.Code)+": ")
	var details *errorDetails
	if re.ReservationID != "" || len(re.Numbers) > 0 || re.Err != nil {
		details = &errorDetails{ReservationID: re.ReservationID, Numbers: re.Numbers}
		if re.Err != nil {
			details.Cause = re.Err.Error()
		}
	}
	if details == nil {
		_ = f.Error(string(re.Code), message, nil)
	} else {
		_ = f.Error(string(re.Code), message, details)
	}
	return WrapExitError(exitCodeFor(err), string(re.Code), err)
}
