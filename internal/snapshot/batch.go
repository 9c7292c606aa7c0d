package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Batch holds one tick's boundary records in exactly one shape. Only the
// slice matching Shape is populated.
type Batch struct {
	Shape   Shape
	Current []Record
	Legacy  []LegacyRecord
}

func (b Batch) Len() int {
	if b.Shape == ShapeLegacy {
		return len(b.Legacy)
	}
	return len(b.Current)
}

// IDs lists the record ids in batch order.
func (b Batch) IDs() []int16 {
	ids := make([]int16, 0, b.Len())
	if b.Shape == ShapeLegacy {
		for _, r := range b.Legacy {
			ids = append(ids, r.ID)
		}
		return ids
	}
	for _, r := range b.Current {
		ids = append(ids, r.ID)
	}
	return ids
}

// MarshalBinary encodes the records little-endian in the C struct layout.
func (b Batch) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, b.Len()*RecordSize))
	var err error
	if b.Shape == ShapeLegacy {
		err = binary.Write(buf, binary.LittleEndian, b.Legacy)
	} else {
		err = binary.Write(buf, binary.LittleEndian, b.Current)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBatch parses records produced by MarshalBinary.
func DecodeBatch(shape Shape, data []byte) (Batch, error) {
	if len(data)%RecordSize != 0 {
		return Batch{}, fmt.Errorf("snapshot: %d bytes is not a whole number of records", len(data))
	}
	n := len(data) / RecordSize
	out := Batch{Shape: shape}
	r := bytes.NewReader(data)
	switch shape {
	case ShapeLegacy:
		out.Legacy = make([]LegacyRecord, n)
		return out, binary.Read(r, binary.LittleEndian, out.Legacy)
	case ShapeCurrent:
		out.Current = make([]Record, n)
		return out, binary.Read(r, binary.LittleEndian, out.Current)
	default:
		return Batch{}, fmt.Errorf("snapshot: unknown shape %d", shape)
	}
}
