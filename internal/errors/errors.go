package errors

import (
	"errors"
	"fmt"
)

// Code classifies analysis failures so callers can decide between aborting
// and degrading. Only CommitNotFound is fatal; every other code maps to a
// documented fallback.
type Code string

const (
	CodeCommitNotFound         Code = "COMMIT_NOT_FOUND"
	CodeDiffParse              Code = "DIFF_PARSE_ERROR"
	CodeMissingRevisionContent Code = "MISSING_REVISION_CONTENT"
	CodeUnterminatedSpan       Code = "UNTERMINATED_SPAN"
	CodeUnresolvedName         Code = "UNRESOLVED_NAME"
	CodeGitCommandFailed       Code = "GIT_COMMAND_FAILED"
	CodeConfigInvalid          Code = "CONFIG_INVALID"
)

// Error is a classified analysis error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a classified error without a cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the classification from err, unwrapping as needed.
// It returns an empty code for unclassified errors.
func CodeOf(err error) Code {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}
	return ""
}

// IsFatal reports whether err must abort the analysis instead of degrading
// to a partial result.
func IsFatal(err error) bool {
	return CodeOf(err) == CodeCommitNotFound
}
