// Package atlaserr holds the stable, typed error shapes the core returns:
// one struct per concern (ingest, store, cache, query execution, cursor
// decode), each carrying a machine-stable code so callers never need to
// pattern-match on message text.
package atlaserr

import "fmt"

// IngestError wraps a terminal failure of the ingest pipeline. Ingest
// failures are never partially recovered: the job stops at the first one.
type IngestError struct {
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("ingest: %s", e.Message)
}

func (e *IngestError) Unwrap() error { return e.Err }

// NewIngestError builds an IngestError from a message and optional cause.
func NewIngestError(message string, cause error) *IngestError {
	return &IngestError{Message: message, Err: cause}
}

// StoreErrorCode is the stable taxonomy for artifact store failures.
type StoreErrorCode string

const (
	StoreNotFound    StoreErrorCode = "NotFound"
	StoreValidation  StoreErrorCode = "Validation"
	StoreCachedOnly  StoreErrorCode = "CachedOnly"
	StoreUnavailable StoreErrorCode = "Unavailable"
	StoreConflict    StoreErrorCode = "Conflict"
	StoreTimeout     StoreErrorCode = "Timeout"
	StoreNetwork     StoreErrorCode = "Network"
	StoreOther       StoreErrorCode = "Other"
)

// StoreError is returned by the ArtifactStore backends (local and remote).
type StoreError struct {
	Code   StoreErrorCode
	Detail string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError builds a StoreError with the given code and detail message.
func NewStoreError(code StoreErrorCode, detail string, cause error) *StoreError {
	return &StoreError{Code: code, Detail: detail, Err: cause}
}

// CacheError wraps store and verification failures surfaced by the dataset
// cache manager, including the manager-specific reasons "quarantined" and
// "breaker_open".
type CacheError struct {
	Reason string
	Err    error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cache: %s", e.Reason)
}

func (e *CacheError) Unwrap() error { return e.Err }

// NewCacheError builds a CacheError from a reason and optional cause.
func NewCacheError(reason string, cause error) *CacheError {
	return &CacheError{Reason: reason, Err: cause}
}

// ExecErrorKind distinguishes user-caused query errors from platform ones.
type ExecErrorKind string

const (
	ExecCursor     ExecErrorKind = "Cursor"
	ExecSQL        ExecErrorKind = "Sql"
	ExecPolicy     ExecErrorKind = "Policy"
	ExecValidation ExecErrorKind = "Validation"
)

// ExecError is returned by the query executor.
type ExecError struct {
	Kind    ExecErrorKind
	Message string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() error { return e.Err }

// NewExecError builds an ExecError of the given kind.
func NewExecError(kind ExecErrorKind, message string, cause error) *ExecError {
	return &ExecError{Kind: kind, Message: message, Err: cause}
}

// CursorErrorCode is the stable taxonomy for cursor decode failures.
type CursorErrorCode string

const (
	CursorInvalidFormat    CursorErrorCode = "InvalidFormat"
	CursorInvalidSignature CursorErrorCode = "InvalidSignature"
	CursorInvalidPayload   CursorErrorCode = "InvalidPayload"
	CursorQueryHashMismatch CursorErrorCode = "QueryHashMismatch"
	CursorOrderMismatch    CursorErrorCode = "OrderMismatch"
)

// CursorError is returned by cursor encode/decode.
type CursorError struct {
	Code    CursorErrorCode
	Message string
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCursorError builds a CursorError with the given code and message.
func NewCursorError(code CursorErrorCode, message string) *CursorError {
	return &CursorError{Code: code, Message: message}
}

// MachineCode is the stable, caller-facing error code enum from the external
// interface contract. The HTTP status mapping is an external concern; the
// core only guarantees the code itself.
type MachineCode string

const (
	CodeInvalidQueryParameter     MachineCode = "InvalidQueryParameter"
	CodeMissingDatasetDimension   MachineCode = "MissingDatasetDimension"
	CodeInvalidCursor             MachineCode = "InvalidCursor"
	CodeRangeTooLarge             MachineCode = "RangeTooLarge"
	CodeValidationFailed          MachineCode = "ValidationFailed"
	CodePayloadTooLarge           MachineCode = "PayloadTooLarge"
	CodeResponseTooLarge          MachineCode = "ResponseTooLarge"
	CodeQueryRejectedByPolicy     MachineCode = "QueryRejectedByPolicy"
	CodeRateLimited               MachineCode = "RateLimited"
	CodeNotReady                  MachineCode = "NotReady"
	CodeUpstreamStoreUnavailable  MachineCode = "UpstreamStoreUnavailable"
	CodeDatasetNotFound           MachineCode = "DatasetNotFound"
	CodeGeneNotFound              MachineCode = "GeneNotFound"
	CodeInternal                  MachineCode = "Internal"
)

// CallerError is the structured envelope the core hands back to the thin
// server adapter: a stable code, a human message, and optional details.
type CallerError struct {
	Code    MachineCode
	Message string
	Details map[string]string
}

func (e *CallerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCallerError builds a CallerError with no details.
func NewCallerError(code MachineCode, message string) *CallerError {
	return &CallerError{Code: code, Message: message}
}

// WithDetail attaches a structured detail key/value and returns the receiver
// for chaining.
func (e *CallerError) WithDetail(key, value string) *CallerError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// FromExecError maps an ExecError to its stable caller-facing code.
func FromExecError(err *ExecError) *CallerError {
	switch err.Kind {
	case ExecCursor:
		return NewCallerError(CodeInvalidCursor, err.Message)
	case ExecValidation:
		return NewCallerError(CodeValidationFailed, err.Message)
	case ExecPolicy:
		return NewCallerError(CodeQueryRejectedByPolicy, err.Message)
	default:
		return NewCallerError(CodeInternal, err.Message)
	}
}

// FromCacheError maps a CacheError to its stable caller-facing code.
func FromCacheError(err *CacheError) *CallerError {
	switch err.Reason {
	case "quarantined", "breaker_open":
		return NewCallerError(CodeNotReady, err.Error())
	default:
		return NewCallerError(CodeUpstreamStoreUnavailable, err.Error())
	}
}
