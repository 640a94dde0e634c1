// Package schemas holds the JSON Schemas for the files the reader writes.
package schemas

import _ "embed"

// Document is the schema of a single document object.
//
//go:embed document.schema.json
var Document []byte
