// Package types - Webhook validation errors
package types

import "fmt"

// ValidationError reports an invalid webhook definition
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("webhook %s: %s", e.Field, e.Message)
}

func errMissingField(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

func errInvalidURL(url string) error {
	return &ValidationError{Field: "url", Message: fmt.Sprintf("must start with http:// or https://, got %q", url)}
}

func errReservedHeader(name string) error {
	return &ValidationError{Field: "headers", Message: fmt.Sprintf("header %q is reserved", name)}
}

func errUnknownEvent(name string) error {
	return &ValidationError{Field: "events", Message: fmt.Sprintf("unknown event type %q", name)}
}
