// Package query rewrites GraphQL queries before they are sent to the API.
package query

import "fmt"

// SyntaxError is returned when a query cannot be parsed or has no root field
// to attach pagination arguments to.
type SyntaxError struct {
	Message string
	Cause   error
}

func (e *SyntaxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("query syntax error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("query syntax error: %s", e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Cause
}
