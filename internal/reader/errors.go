package reader

import (
	"encoding/json"
	"fmt"
)

// NoRecord marks a DataTransformError that is not tied to a single record.
const NoRecord = -1

// APICallError represents a failed exchange with the GraphQL endpoint: the
// request failed, the status was not 2xx, or the server reported errors.
type APICallError struct {
	Message string
	Errors  any // the "errors" payload from the response, if any
	Cause   error
}

func (e *APICallError) Error() string {
	msg := fmt.Sprintf("API call failed: %s", e.Message)
	if e.Errors != nil {
		if payload, err := json.Marshal(e.Errors); err == nil {
			msg += ": " + string(payload)
		}
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// DataTransformError represents a response that could not be turned into documents.
type DataTransformError struct {
	Message string
	Record  int // index of the failing record, or NoRecord
	Cause   error
}

func (e *DataTransformError) Error() string {
	msg := "data transform error: "
	if e.Record != NoRecord {
		msg += fmt.Sprintf("record %d: ", e.Record)
	}
	msg += e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *DataTransformError) Unwrap() error {
	return e.Cause
}
