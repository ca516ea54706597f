package wire

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes messages for one connection
type Codec interface {
	Name() string
	// Binary reports whether encoded messages go out as binary frames
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON sends text frames, the format browsers read directly
type JSON struct{}

func (JSON) Name() string                       { return "json" }
func (JSON) Binary() bool                       { return false }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Msgpack sends compact binary frames
type Msgpack struct{}

func (Msgpack) Name() string                       { return "msgpack" }
func (Msgpack) Binary() bool                       { return true }
func (Msgpack) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (Msgpack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

// CodecByName returns the codec for "json" (or empty) and "msgpack"
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
