// Package codec encodes exported recordings and streamed events. All codecs
// read the `json` struct tags, so one set of types serves every format.
package codec

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec defines the interface for encoding/decoding values
type Codec interface {
	// Marshal serializes a value to bytes
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes to a value
	Unmarshal(data []byte, v any) error

	// Name returns the name of the codec
	Name() string

	// Binary reports whether the output is binary rather than text
	Binary() bool
}

// Codec names
const (
	JSON        = "json"
	MessagePack = "msgpack"
	CBOR        = "cbor"
)

// Names lists the supported codecs.
func Names() []string {
	return []string{JSON, MessagePack, CBOR}
}

// New returns the codec with the given name. An empty name selects JSON.
func New(name string) (Codec, error) {
	switch name {
	case JSON, "":
		return JSONCodec{}, nil
	case MessagePack:
		return MessagePackCodec{}, nil
	case CBOR:
		return NewCBORCodec()
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// JSONCodec implements Codec using goccy/go-json
type JSONCodec struct {
	Indent bool
}

// Marshal serializes a value to JSON bytes
func (c JSONCodec) Marshal(v any) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes to a value
func (c JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c JSONCodec) Name() string { return JSON }
func (c JSONCodec) Binary() bool { return false }

// MessagePackCodec implements Codec using MessagePack encoding
type MessagePackCodec struct{}

// Marshal serializes a value to MessagePack bytes
func (c MessagePackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes MessagePack bytes to a value
func (c MessagePackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (c MessagePackCodec) Name() string { return MessagePack }
func (c MessagePackCodec) Binary() bool { return true }

// CBORCodec implements Codec using CBOR with timestamps encoded as RFC 3339
// strings.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec builds the CBOR codec.
func NewCBORCodec() (CBORCodec, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return CBORCodec{}, fmt.Errorf("codec: cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return CBORCodec{}, fmt.Errorf("codec: cbor decoder: %w", err)
	}
	return CBORCodec{enc: enc, dec: dec}, nil
}

// Marshal serializes a value to CBOR bytes
func (c CBORCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

// Unmarshal deserializes CBOR bytes to a value
func (c CBORCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

func (c CBORCodec) Name() string { return CBOR }
func (c CBORCodec) Binary() bool { return true }
