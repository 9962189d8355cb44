package format

import "fmt"

// SerialType classes. A serial type in a record header describes the
// on-disk representation of one column value.
const (
	// SerialTypeNull is the serial type for NULL (0).
	SerialTypeNull = 0

	// SerialTypeInt8 through SerialTypeInt64 are big-endian twos-complement
	// integers of 1, 2, 3, 4, 6, and 8 bytes.
	SerialTypeInt8  = 1
	SerialTypeInt16 = 2
	SerialTypeInt24 = 3
	SerialTypeInt32 = 4
	SerialTypeInt48 = 5
	SerialTypeInt64 = 6

	// SerialTypeFloat64 is an 8-byte big-endian IEEE 754 float (7).
	SerialTypeFloat64 = 7

	// SerialTypeZero and SerialTypeOne encode the integers 0 and 1 with
	// no body bytes (schema format 4 and later).
	SerialTypeZero = 8
	SerialTypeOne  = 9
)

// SerialTypeSize returns the number of body bytes occupied by a value
// with the given serial type. Serial types >= 12 encode BLOB (even) or
// TEXT (odd) values of length (n-12)/2 or (n-13)/2.
// Serial types 10 and 11 are reserved and return an error.
func SerialTypeSize(serialType uint64) (int, error) {
	switch serialType {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return 0, nil
	case SerialTypeInt8:
		return 1, nil
	case SerialTypeInt16:
		return 2, nil
	case SerialTypeInt24:
		return 3, nil
	case SerialTypeInt32:
		return 4, nil
	case SerialTypeInt48:
		return 6, nil
	case SerialTypeInt64, SerialTypeFloat64:
		return 8, nil
	case 10, 11:
		return 0, fmt.Errorf("reserved serial type: %d", serialType)
	default:
		if serialType&1 == 0 {
			return int((serialType - 12) / 2), nil // BLOB
		}
		return int((serialType - 13) / 2), nil // TEXT
	}
}

// IsTextSerialType reports whether the serial type encodes a TEXT value.
func IsTextSerialType(serialType uint64) bool {
	return serialType >= 13 && serialType&1 == 1
}

// IsBlobSerialType reports whether the serial type encodes a BLOB value.
func IsBlobSerialType(serialType uint64) bool {
	return serialType >= 12 && serialType&1 == 0
}

// IsIntSerialType reports whether the serial type encodes an integer value.
func IsIntSerialType(serialType uint64) bool {
	return (serialType >= SerialTypeInt8 && serialType <= SerialTypeInt64) ||
		serialType == SerialTypeZero || serialType == SerialTypeOne
}
