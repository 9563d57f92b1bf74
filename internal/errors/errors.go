package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Kind classifies errors produced by the search pipeline
type Kind string

const (
	// Query and path level errors abort a search
	KindEmptyQuery         Kind = "empty_query"
	KindInvalidPath        Kind = "invalid_path"
	KindUnsupportedPattern Kind = "unsupported_pattern"

	// Per-file errors are recorded as warnings and never abort a search
	KindFileRead Kind = "file_read"
	KindParse    Kind = "parse"

	// Configuration errors
	KindConfig Kind = "config"

	KindInternal Kind = "internal"
)

// Sentinel errors for errors.Is checks
var (
	ErrEmptyQuery         = stderrors.New("query contains no searchable terms")
	ErrInvalidPath        = stderrors.New("root path does not exist or is not readable")
	ErrUnsupportedPattern = stderrors.New("term could not be compiled into a pattern")
	ErrInvalidEncoding    = stderrors.New("file content is not valid UTF-8")
)

// SearchError represents a query-level or path-level failure
type SearchError struct {
	Kind       Kind
	Query      string
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewEmptyQueryError reports a query that produced no terms at all
func NewEmptyQueryError(query string) *SearchError {
	return &SearchError{
		Kind:       KindEmptyQuery,
		Query:      query,
		Underlying: ErrEmptyQuery,
		Timestamp:  time.Now(),
	}
}

// NewInvalidPathError reports an unusable search root
func NewInvalidPathError(path string, err error) *SearchError {
	if err == nil {
		err = ErrInvalidPath
	} else {
		err = fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return &SearchError{
		Kind:       KindInvalidPath,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewUnsupportedPatternError reports a pattern expression that failed to compile
func NewUnsupportedPatternError(expr string, err error) *SearchError {
	return &SearchError{
		Kind:       KindUnsupportedPattern,
		Query:      expr,
		Underlying: fmt.Errorf("%w: %v", ErrUnsupportedPattern, err),
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Underlying)
	case e.Query != "":
		return fmt.Sprintf("%s for %q: %v", e.Kind, e.Query, e.Underlying)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Underlying)
	}
}

// Unwrap returns the underlying error for errors.Is/As
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// FileError represents a failure to read a single file
type FileError struct {
	Kind       Kind
	Path       string
	Operation  string
	Permission bool
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file read error
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Kind:       KindFileRead,
		Path:       path,
		Operation:  op,
		Permission: stderrors.Is(err, fs.ErrPermission),
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ParseError represents a grammar parse failure for one file
type ParseError struct {
	Kind       Kind
	Path       string
	Language   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path, language string, err error) *ParseError {
	return &ParseError{
		Kind:       KindParse,
		Path:       path,
		Language:   language,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s (%s): %v", e.Path, e.Language, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// KindOf reports the Kind of err, looking through wrapped errors
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	var fe *FileError
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	var ce *ConfigError
	if stderrors.As(err, &ce) {
		return KindConfig
	}
	return KindInternal
}

// IsFatal reports whether err must abort a search rather than be recorded as a warning
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindFileRead, KindParse:
		return false
	case "":
		return false
	default:
		return true
	}
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when the multi-error holds nothing
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
