package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// RequestID is a JSON-RPC message ID: a string, a number, or explicit null.
// The zero value marshals as null, which is what error envelopes use when the
// caller's ID could not be determined.
type RequestID struct {
	value any
}

// NewRequestID creates a RequestID from a string or number. Any other type
// produces the null ID.
func NewRequestID(value any) *RequestID {
	switch v := value.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return &RequestID{value: v}
	default:
		return &RequestID{value: nil}
	}
}

// NullID returns the explicit null ID used when an error envelope must be
// produced before (or without) a parseable request ID.
func NullID() *RequestID {
	return &RequestID{value: nil}
}

// String returns the string representation of the ID, or "" for null.
func (id *RequestID) String() string {
	if id == nil || id.value == nil {
		return ""
	}
	switch v := id.value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Value returns the underlying value.
func (id *RequestID) Value() any {
	if id == nil {
		return nil
	}
	return id.value
}

// IsNil reports whether the ID is absent or null.
func (id *RequestID) IsNil() bool {
	return id == nil || id.value == nil
}

// MarshalJSON implements json.Marshaler. Null IDs serialize as JSON null so
// forced-null error envelopes carry an explicit "id": null member.
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil || id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.value = nil
		return nil
	}

	// Numbers first; integral floats collapse to int64 so the echoed ID
	// serializes without a trailing fraction.
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			id.value = int64(num)
		} else {
			id.value = num
		}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.value = str
		return nil
	}

	return fmt.Errorf("JSON-RPC ID must be a string, number, or null, got: %s", string(data))
}
