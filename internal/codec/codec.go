// Package codec frames signaling events for the WebSocket transport.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	JSON    = "json"
	Msgpack = "msgpack"
)

// Codec turns events into frames and back
type Codec interface {
	Name() string
	// FrameType is the websocket message type used for every frame
	FrameType() int
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// New returns the codec registered under name
func New(name string) (Codec, error) {
	switch name {
	case "", JSON:
		return jsonCodec{}, nil
	case Msgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown wire codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return JSON }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

// Marshal leaves HTML characters alone so relayed payloads keep their bytes.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return Msgpack }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
