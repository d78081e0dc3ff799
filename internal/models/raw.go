package models

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Raw holds an already-encoded value (JSON or msgpack, depending on the wire
// codec) and writes it back out untouched.
type Raw []byte

// MarshalJSON returns r as the encoding of r
func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the raw JSON value
func (r *Raw) UnmarshalJSON(b []byte) error {
	if r == nil {
		return errors.New("models.Raw: UnmarshalJSON on nil pointer")
	}
	*r = append((*r)[0:0], b...)
	return nil
}

// EncodeMsgpack writes r as an already-encoded msgpack value
func (r Raw) EncodeMsgpack(enc *msgpack.Encoder) error {
	if len(r) == 0 {
		return enc.EncodeNil()
	}
	return enc.Encode(msgpack.RawMessage(r))
}

// DecodeMsgpack keeps the next msgpack value without decoding it
func (r *Raw) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeRaw()
	if err != nil {
		return err
	}
	*r = Raw(b)
	return nil
}
