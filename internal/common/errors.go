package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrExtraction marks a failed page text extraction; it aborts one document only.
	ErrExtraction = errors.New("page extraction failed")
	// ErrParsing marks a failed field-parsing completion; it aborts one document only.
	ErrParsing = errors.New("field parsing failed")
	// ErrSinkDisabled is logged when the record sink has no configuration.
	ErrSinkDisabled = errors.New("record sink disabled")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError wraps err so that errors.Is(err, ErrExtraction) holds.
func ExtractionError(page int, err error) error {
	return NewAppError("EXTRACTION_FAILURE", fmt.Sprintf("page %d", page), errors.Join(ErrExtraction, err))
}

// ParsingError wraps err so that errors.Is(err, ErrParsing) holds.
func ParsingError(err error) error {
	return NewAppError("PARSING_FAILURE", "field parsing request", errors.Join(ErrParsing, err))
}
