package server

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/san-kum/spacesim/internal/snapshot"
)

// headerSize is the 8-byte little-endian seq plus the 1-byte shape tag
// that precede the records in every feed message.
const headerSize = 9

var ErrShortMessage = errors.New("server: message shorter than header")

// Encode frames a batch for the wire.
func Encode(seq uint64, b snapshot.Batch) ([]byte, error) {
	body, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	msg := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint64(msg, seq)
	msg[8] = byte(b.Shape)
	copy(msg[headerSize:], body)
	return msg, nil
}

// Decode splits a feed message back into seq and records.
func Decode(msg []byte) (uint64, snapshot.Batch, error) {
	if len(msg) < headerSize {
		return 0, snapshot.Batch{}, ErrShortMessage
	}
	seq := binary.LittleEndian.Uint64(msg)
	batch, err := snapshot.DecodeBatch(snapshot.Shape(msg[8]), msg[headerSize:])
	if err != nil {
		return 0, snapshot.Batch{}, fmt.Errorf("decode seq %d: %w", seq, err)
	}
	return seq, batch, nil
}
