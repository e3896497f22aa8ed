package events

import (
	"github.com/ugorji/go/codec"
)

// Stored records are msgpack envelopes; the payload inside stays JSON so
// API consumers receive it unchanged.
var envelopeHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.Canonical = true
	return h
}()

func encodeRecord(rec Record) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, envelopeHandle).Encode(rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	err := codec.NewDecoderBytes(data, envelopeHandle).Decode(&rec)
	return rec, err
}
