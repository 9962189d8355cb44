// Package record decodes and encodes SQLite record payloads: the
// serialized row format used by table b-tree leaves and index keys.
package record

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the storage class of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBlob
)

// String returns the SQLite name of the storage class.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single decoded column value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	blob []byte
}

// Null returns the NULL value.
func Null() Value { return Value{kind: KindNull} }

// Int returns an INTEGER value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a REAL value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a TEXT value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a BLOB value.
func Blob(v []byte) Value { return Value{kind: KindBlob, blob: v} }

// Kind returns the storage class of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the value as an int64. Only meaningful for KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the value as a float64, converting integers.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Text returns the value as a string. Only meaningful for KindText.
func (v Value) Text() string { return v.s }

// Blob returns the raw bytes. Only meaningful for KindBlob.
func (v Value) Blob() []byte { return v.blob }

// String renders the value the way the sqlite3 shell prints a column:
// NULL as the empty string, numbers in their shortest form, blobs as
// their raw bytes.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		// SQLite always shows a decimal point for reals.
		if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
			s += ".0"
		}
		return s
	case KindText:
		return v.s
	case KindBlob:
		return string(v.blob)
	default:
		return ""
	}
}

// Compare orders two values the way SQLite does:
// NULL < numeric < TEXT < BLOB, numerics compared across int/real,
// text and blobs compared bytewise (BINARY collation).
func (v Value) Compare(o Value) int {
	vc, oc := v.kind.class(), o.kind.class()
	if vc != oc {
		if vc < oc {
			return -1
		}
		return 1
	}

	switch vc {
	case classNull:
		return 0
	case classNumeric:
		if v.kind == KindInt && o.kind == KindInt {
			switch {
			case v.i < o.i:
				return -1
			case v.i > o.i:
				return 1
			}
			return 0
		}
		a, b := v.Float(), o.Float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case classText:
		return strings.Compare(v.s, o.s)
	default:
		return bytes.Compare(v.blob, o.blob)
	}
}

// Equal reports whether two values compare equal under SQLite ordering.
func (v Value) Equal(o Value) bool { return v.Compare(o) == 0 }

// valueClass groups storage classes for cross-type ordering.
type valueClass int

const (
	classNull valueClass = iota
	classNumeric
	classText
	classBlob
)

func (k Kind) class() valueClass {
	switch k {
	case KindNull:
		return classNull
	case KindInt, KindFloat:
		return classNumeric
	case KindText:
		return classText
	default:
		return classBlob
	}
}
