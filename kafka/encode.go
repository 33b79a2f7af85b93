package kafka

import (
	"encoding/binary"
	"fmt"
)

// Confluent wire format: a zero magic byte, the schema id as a big-endian uint32, then the Avro
// binary encoding.
const magicByte = 0

// Encode converts a JSON document to the schema's Avro binary form, framed for the registry.
func Encode(schema Schema, textual []byte) ([]byte, error) {
	native, _, err := schema.Codec.NativeFromTextual(textual)
	if err != nil {
		return nil, fmt.Errorf("message does not match schema %q: %w", schema.Subject, err)
	}
	buf := make([]byte, 5, 5+len(textual))
	buf[0] = magicByte
	binary.BigEndian.PutUint32(buf[1:], uint32(schema.ID))
	out, err := schema.Codec.BinaryFromNative(buf, native)
	if err != nil {
		return nil, fmt.Errorf("encoding message with schema %q: %w", schema.Subject, err)
	}
	return out, nil
}

// Decode reverses Encode, returning the schema id and the JSON form of the message.
func Decode(schema Schema, framed []byte) (int, []byte, error) {
	if len(framed) < 5 || framed[0] != magicByte {
		return 0, nil, fmt.Errorf("message is not in registry wire format")
	}
	id := int(binary.BigEndian.Uint32(framed[1:5]))
	native, _, err := schema.Codec.NativeFromBinary(framed[5:])
	if err != nil {
		return id, nil, err
	}
	textual, err := schema.Codec.TextualFromNative(nil, native)
	return id, textual, err
}
