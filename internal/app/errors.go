package app

import "fmt"

// DomainError is the API's error vocabulary: an HTTP status, a stable
// machine-readable code such as INVALID_TRANSITION or STALE_STATUS, a human
// message, and optional structured details (the offending transition, the
// measured length). Handlers serialize it verbatim.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
