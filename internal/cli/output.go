package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/capverde/posagent/internal/escpos"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (dispatch error, sync made no progress, etc.)
	ExitCommandError = 2 // Command error (bad config, database not found, etc.)
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(map[string]any{
			"status": "ok",
			"data":   data,
		})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// consoleSurface is the CLI's local rendering surface: fallback
// documents are written to the terminal.
type consoleSurface struct {
	out *OutputFormatter
}

func (s *consoleSurface) Present(ctx context.Context, doc escpos.Document) error {
	if s.out.Format == "json" {
		return json.NewEncoder(s.out.Writer).Encode(map[string]any{
			"status": "ok",
			"data": map[string]string{
				"title": doc.Title,
				"body":  doc.Body,
			},
		})
	}
	_, err := fmt.Fprintf(s.out.Writer, "--- %s ---\n%s", doc.Title, doc.Body)
	return err
}
