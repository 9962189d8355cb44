package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/driftdb/litefile/core/btree"
	"github.com/driftdb/litefile/core/format"
)

// Decode decodes a record payload into its column values.
//
// A record is a varint header size, followed by one serial-type varint
// per column, followed by the column bodies in order.
func Decode(data []byte) ([]Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty record")
	}

	headerSize, n := btree.GetVarint(data)
	if n == 0 {
		return nil, fmt.Errorf("invalid record header size")
	}
	if headerSize > uint64(len(data)) {
		return nil, fmt.Errorf("record header size %d exceeds payload size %d", headerSize, len(data))
	}

	offset := n

	serialTypes := make([]uint64, 0, 8)
	for offset < int(headerSize) {
		st, n := btree.GetVarint(data[offset:])
		if n == 0 {
			return nil, fmt.Errorf("invalid serial type at offset %d", offset)
		}
		serialTypes = append(serialTypes, st)
		offset += n
	}

	values := make([]Value, len(serialTypes))
	for i, st := range serialTypes {
		val, n, err := decodeValue(data, offset, st)
		if err != nil {
			return nil, fmt.Errorf("failed to decode column %d: %w", i, err)
		}
		values[i] = val
		offset += n
	}

	return values, nil
}

// decodeValue decodes a single value from the record body.
func decodeValue(data []byte, offset int, serialType uint64) (Value, int, error) {
	switch serialType {
	case format.SerialTypeNull:
		return Null(), 0, nil

	case format.SerialTypeZero:
		return Int(0), 0, nil

	case format.SerialTypeOne:
		return Int(1), 0, nil

	case format.SerialTypeInt8:
		if offset >= len(data) {
			return Value{}, 0, fmt.Errorf("truncated int8")
		}
		return Int(int64(int8(data[offset]))), 1, nil

	case format.SerialTypeInt16:
		if offset+2 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated int16")
		}
		return Int(int64(int16(binary.BigEndian.Uint16(data[offset:])))), 2, nil

	case format.SerialTypeInt24:
		if offset+3 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated int24")
		}
		v := int32(data[offset])<<16 | int32(data[offset+1])<<8 | int32(data[offset+2])
		if v&0x800000 != 0 {
			v |= ^0xffffff // Sign extend
		}
		return Int(int64(v)), 3, nil

	case format.SerialTypeInt32:
		if offset+4 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated int32")
		}
		return Int(int64(int32(binary.BigEndian.Uint32(data[offset:])))), 4, nil

	case format.SerialTypeInt48:
		if offset+6 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated int48")
		}
		v := int64(data[offset])<<40 | int64(data[offset+1])<<32 |
			int64(data[offset+2])<<24 | int64(data[offset+3])<<16 |
			int64(data[offset+4])<<8 | int64(data[offset+5])
		if v&0x800000000000 != 0 {
			v |= ^0xffffffffffff // Sign extend
		}
		return Int(v), 6, nil

	case format.SerialTypeInt64:
		if offset+8 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated int64")
		}
		return Int(int64(binary.BigEndian.Uint64(data[offset:]))), 8, nil

	case format.SerialTypeFloat64:
		if offset+8 > len(data) {
			return Value{}, 0, fmt.Errorf("truncated float64")
		}
		bits := binary.BigEndian.Uint64(data[offset:])
		return Float(math.Float64frombits(bits)), 8, nil

	default:
		length, err := format.SerialTypeSize(serialType)
		if err != nil {
			return Value{}, 0, err
		}
		if offset+length > len(data) {
			return Value{}, 0, fmt.Errorf("truncated blob/text: need %d bytes, have %d", length, len(data)-offset)
		}

		b := make([]byte, length)
		copy(b, data[offset:offset+length])

		if format.IsBlobSerialType(serialType) {
			return Blob(b), length, nil
		}
		return Text(string(b)), length, nil
	}
}

// Encode serializes values into a record payload. Integers use the
// smallest serial type that holds them; 0 and 1 use the one-byte
// literal types.
func Encode(values []Value) ([]byte, error) {
	serialTypes := make([]uint64, len(values))
	bodySize := 0
	for i, v := range values {
		st, size := serialTypeFor(v)
		serialTypes[i] = st
		bodySize += size
	}

	// The header size varint counts itself, so its length feeds back
	// into the value it encodes. Iterate to the fixed point.
	headerBody := 0
	for _, st := range serialTypes {
		headerBody += btree.VarintLen(st)
	}
	headerSize := headerBody + 1
	for btree.VarintLen(uint64(headerSize)) != headerSize-headerBody {
		headerSize = headerBody + btree.VarintLen(uint64(headerSize))
	}

	buf := make([]byte, 0, headerSize+bodySize)
	var vi [9]byte
	n := btree.PutVarint(vi[:], uint64(headerSize))
	buf = append(buf, vi[:n]...)
	for _, st := range serialTypes {
		n := btree.PutVarint(vi[:], st)
		buf = append(buf, vi[:n]...)
	}
	if len(buf) != headerSize {
		return nil, fmt.Errorf("internal error: record header size mismatch (%d != %d)", len(buf), headerSize)
	}

	for _, v := range values {
		buf = appendBody(buf, v)
	}

	return buf, nil
}

// serialTypeFor picks the serial type and body size for a value.
func serialTypeFor(v Value) (uint64, int) {
	switch v.Kind() {
	case KindNull:
		return format.SerialTypeNull, 0
	case KindInt:
		i := v.Int()
		switch {
		case i == 0:
			return format.SerialTypeZero, 0
		case i == 1:
			return format.SerialTypeOne, 0
		case i >= math.MinInt8 && i <= math.MaxInt8:
			return format.SerialTypeInt8, 1
		case i >= math.MinInt16 && i <= math.MaxInt16:
			return format.SerialTypeInt16, 2
		case i >= -(1<<23) && i < 1<<23:
			return format.SerialTypeInt24, 3
		case i >= math.MinInt32 && i <= math.MaxInt32:
			return format.SerialTypeInt32, 4
		case i >= -(1<<47) && i < 1<<47:
			return format.SerialTypeInt48, 6
		default:
			return format.SerialTypeInt64, 8
		}
	case KindFloat:
		return format.SerialTypeFloat64, 8
	case KindText:
		return uint64(13 + 2*len(v.Text())), len(v.Text())
	default:
		return uint64(12 + 2*len(v.Blob())), len(v.Blob())
	}
}

// appendBody appends the body bytes for a value.
func appendBody(buf []byte, v Value) []byte {
	switch v.Kind() {
	case KindNull:
		return buf
	case KindInt:
		i := v.Int()
		switch {
		case i == 0 || i == 1:
			return buf
		case i >= math.MinInt8 && i <= math.MaxInt8:
			return append(buf, byte(i))
		case i >= math.MinInt16 && i <= math.MaxInt16:
			return append(buf, byte(i>>8), byte(i))
		case i >= -(1<<23) && i < 1<<23:
			return append(buf, byte(i>>16), byte(i>>8), byte(i))
		case i >= math.MinInt32 && i <= math.MaxInt32:
			return append(buf, byte(i>>24), byte(i>>16), byte(i>>8), byte(i))
		case i >= -(1<<47) && i < 1<<47:
			return append(buf, byte(i>>40), byte(i>>32), byte(i>>24), byte(i>>16), byte(i>>8), byte(i))
		default:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(i))
			return append(buf, b[:]...)
		}
	case KindFloat:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		return append(buf, b[:]...)
	case KindText:
		return append(buf, v.Text()...)
	default:
		return append(buf, v.Blob()...)
	}
}
