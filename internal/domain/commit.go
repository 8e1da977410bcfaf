package domain

import "encoding/json"

// CommitRecord is one repository's commit history as returned by the
// provider. The payload shape is provider-defined and passed through as is.
type CommitRecord struct {
	Endpoint string          `json:"endpoint"`
	Payload  json.RawMessage `json:"payload"`
}
