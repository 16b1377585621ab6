package memo

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes snapshots and cached values. The codec name is recorded
// in every snapshot and must match when the snapshot is loaded.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// MsgpackCodec is the default codec.
	MsgpackCodec Codec = msgpackCodec{}
	// CBORCodec uses the core deterministic CBOR encoding (RFC 8949 §4.2.1).
	CBORCodec Codec = newCBORCodec()
)

// CodecByName returns the codec registered as name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", MsgpackCodec.Name():
		return MsgpackCodec, nil
	case CBORCodec.Name():
		return CBORCodec, nil
	}
	return nil, errors.Newf("memo: unknown codec %q", name)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string {
	return "msgpack"
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string {
	return "cbor"
}

func (c cborCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}
