package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code and message so wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "Missing required fields")
	ErrMissingAgentID          = NewDomainError(ErrCodeValidation, "agentId is required")
	ErrUnsupportedFileType     = NewDomainError(ErrCodeValidation, "Unsupported file type")
	ErrInvalidTrainingJobState = NewDomainError(ErrCodeValidation, "invalid training job status")
	ErrInvalidCrawlURL         = NewDomainError(ErrCodeValidation, "Base URL is required")
	ErrUnreadableFile          = NewDomainError(ErrCodeValidation, "Failed to extract text")
	ErrEmptyUpload             = NewDomainError(ErrCodeValidation, "No file uploaded")
)

// Not found errors
var (
	ErrAgentFileNotFound   = NewDomainError(ErrCodeNotFound, "agent file not found")
	ErrAgentNotFound       = NewDomainError(ErrCodeNotFound, "agent not found")
	ErrOwnerNotFound       = NewDomainError(ErrCodeNotFound, "owner not found")
	ErrAPIKeyNotFound      = NewDomainError(ErrCodeNotFound, "api key not found")
	ErrTrainingJobNotFound = NewDomainError(ErrCodeNotFound, "training job not found")
)

// Already exists errors
var (
	ErrOwnerAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "owner already exists")
	ErrAPIKeyAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrAgentNotOwned = NewDomainError(ErrCodeForbidden, "agent does not belong to caller")
)

// Vector index errors
var (
	ErrCollectionUnavailable = NewDomainError(ErrCodeInternalError, "vector collection unavailable")
	ErrPayloadIndexFailed    = NewDomainError(ErrCodeInternalError, "payload index creation failed")
	ErrRecreateDisabled      = NewDomainError(ErrCodeInvalidOperation, "collection recreation is disabled")
	ErrStorageOperationFail  = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
