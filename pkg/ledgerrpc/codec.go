// Package ledgerrpc defines the Connect wire contract of the ledger service:
// message types, procedure names, a JSON codec, and typed handler and client
// constructors.
//
// Messages are plain Go structs encoded as JSON. Amounts travel as decimal
// strings ("45.50") so no precision is lost between client and server.
package ledgerrpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is registered in place of Connect's protobuf-backed JSON codec.
const CodecName = "json"

// Codec marshals ledger messages with encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (Codec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }

// WithCodec is the option every ledger handler and client needs.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
