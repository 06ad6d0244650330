package apiclient

import (
	"bytes"
	"encoding/json"
)

// envelopeKeys must all be present for a body to count as the standard
// success wrapper {code, message, data, timestamp, path}. data is optional:
// endpoints without a payload omit it.
//
// This is shape sniffing. A payload that legitimately carries exactly these
// four keys is unwrapped too; endpoints returning such objects should nest
// them under data.
var envelopeKeys = [...]string{"code", "message", "timestamp", "path"}

// Envelope is the standard success wrapper returned by the backend.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Path      string          `json:"path"`
}

// IsStandardEnvelope reports whether raw is a JSON object carrying all the
// envelope keys. Arrays, primitives and null never match.
func IsStandardEnvelope(raw []byte) bool {
	_, ok := envelopeFields(raw)
	return ok
}

// UnwrapEnvelope returns the data member of a standard envelope, or raw
// unchanged when the body is not one. A missing data member yields nil.
func UnwrapEnvelope(raw []byte) json.RawMessage {
	fields, ok := envelopeFields(raw)
	if !ok {
		return json.RawMessage(raw)
	}
	data, present := fields["data"]
	if !present || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return data
}

func envelopeFields(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, false
	}
	for _, key := range envelopeKeys {
		if _, ok := fields[key]; !ok {
			return nil, false
		}
	}
	return fields, true
}
