// Package codec holds the JSON encoding shared by event envelopes and kv values.
package codec

import (
	json "github.com/goccy/go-json"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// Default is used wherever no codec is configured.
var Default Codec = JSONCodec{}

// RawMessage is a pre-encoded JSON value, kept verbatim on marshal.
type RawMessage = json.RawMessage
