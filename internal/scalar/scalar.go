package scalar

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

// Fixed tag set. The numeric ids are part of the wire format.
const (
	KindBool Kind = iota
	KindUint8
	KindInt8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindFloat
)

var kindNames = [...]string{"bool", "u8", "i8", "u16", "i16", "u32", "i32", "float"}

// String returns the short name of the kind.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the eight known kinds.
func (k Kind) Valid() bool {
	return k <= KindFloat
}

// ParseKind converts a kind name ("bool", "u8", ..., "float") to a Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Size returns the encoded width in bytes for kind, or 0 for unknown kinds.
func Size(k Kind) int {
	switch k {
	case KindBool, KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat:
		return 4
	default:
		return 0
	}
}

// Value is a tagged scalar. The zero Value is Bool(false).
//
// The payload is kept in its raw bit pattern so that Encode/Decode are exact
// for every kind, including float NaN payloads.
type Value struct {
	kind Kind
	bits uint32
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

// Uint8 returns an unsigned 8-bit Value.
func Uint8(v uint8) Value { return Value{kind: KindUint8, bits: uint32(v)} }

// Int8 returns a signed 8-bit Value.
func Int8(v int8) Value { return Value{kind: KindInt8, bits: uint32(uint8(v))} }

// Uint16 returns an unsigned 16-bit Value.
func Uint16(v uint16) Value { return Value{kind: KindUint16, bits: uint32(v)} }

// Int16 returns a signed 16-bit Value.
func Int16(v int16) Value { return Value{kind: KindInt16, bits: uint32(uint16(v))} }

// Uint32 returns an unsigned 32-bit Value.
func Uint32(v uint32) Value { return Value{kind: KindUint32, bits: v} }

// Int32 returns a signed 32-bit Value.
func Int32(v int32) Value { return Value{kind: KindInt32, bits: uint32(v)} }

// Float returns a 32-bit floating point Value.
func Float(f float32) Value { return Value{kind: KindFloat, bits: math.Float32bits(f)} }

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// Float64 returns v coerced to float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindBool, KindUint8, KindUint16, KindUint32:
		return float64(v.bits)
	case KindInt8:
		return float64(int8(v.bits))
	case KindInt16:
		return float64(int16(v.bits))
	case KindInt32:
		return float64(int32(v.bits))
	case KindFloat:
		return float64(math.Float32frombits(v.bits))
	default:
		return float64(uint8(v.bits))
	}
}

// Float32 returns v coerced to float32.
func (v Value) Float32() float32 {
	if v.kind == KindFloat {
		return math.Float32frombits(v.bits)
	}
	return float32(v.Float64())
}

// Int64 returns v coerced to int64. Floats are truncated toward zero.
func (v Value) Int64() int64 {
	switch v.kind {
	case KindInt8:
		return int64(int8(v.bits))
	case KindInt16:
		return int64(int16(v.bits))
	case KindInt32:
		return int64(int32(v.bits))
	case KindFloat:
		return int64(math.Float32frombits(v.bits))
	default:
		return int64(v.bits)
	}
}

// Uint64 returns v coerced to uint64. Negative values wrap.
func (v Value) Uint64() uint64 { return uint64(v.Int64()) }

// Uint8 returns v coerced to uint8, wrapping like a C cast.
func (v Value) Uint8() uint8 { return uint8(v.Int64()) }

// Int8 returns v coerced to int8, wrapping like a C cast.
func (v Value) Int8() int8 { return int8(v.Int64()) }

// Bool reports whether v is non-zero.
func (v Value) Bool() bool {
	if v.kind == KindFloat {
		return math.Float32frombits(v.bits) != 0
	}
	return v.bits != 0
}

// Format renders v as text for transports: bools as 1/0, integers in decimal
// and floats with two decimals.
func (v Value) Format() string {
	switch v.kind {
	case KindBool:
		if v.bits != 0 {
			return "1"
		}
		return "0"
	case KindFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(v.bits)), 'f', 2, 32)
	case KindInt8, KindInt16, KindInt32:
		return strconv.FormatInt(v.Int64(), 10)
	default:
		return strconv.FormatUint(uint64(v.bits), 10)
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.kind.String() + "(" + v.Format() + ")"
}

// Encode returns the little-endian fixed-size representation of v.
func Encode(v Value) []byte {
	out := make([]byte, Size(v.kind))
	switch len(out) {
	case 1:
		out[0] = byte(v.bits)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(v.bits))
	case 4:
		binary.LittleEndian.PutUint32(out, v.bits)
	}
	return out
}

// Decode reinterprets raw bytes according to kind. The caller must pass the
// same kind used to encode; only an unknown kind or a short buffer is
// reported as an error.
func Decode(b []byte, k Kind) (Value, error) {
	n := Size(k)
	if n == 0 {
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	if len(b) < n {
		return Value{}, fmt.Errorf("%w: need %d bytes for %s, got %d", ErrShortBuffer, n, k, len(b))
	}

	var bits uint32
	switch n {
	case 1:
		bits = uint32(b[0])
	case 2:
		bits = uint32(binary.LittleEndian.Uint16(b))
	case 4:
		bits = binary.LittleEndian.Uint32(b)
	}
	if k == KindBool && bits != 0 {
		bits = 1
	}
	return Value{kind: k, bits: bits}, nil
}

// FromFloat64 converts f into a Value of kind k, saturating at the kind's
// range. Used when a textual or remote float must be stored as a typed setting.
func FromFloat64(k Kind, f float64) Value {
	switch k {
	case KindBool:
		return Bool(f != 0)
	case KindUint8:
		return Uint8(uint8(clamp(f, 0, math.MaxUint8)))
	case KindInt8:
		return Int8(int8(clamp(f, math.MinInt8, math.MaxInt8)))
	case KindUint16:
		return Uint16(uint16(clamp(f, 0, math.MaxUint16)))
	case KindInt16:
		return Int16(int16(clamp(f, math.MinInt16, math.MaxInt16)))
	case KindUint32:
		return Uint32(uint32(clamp(f, 0, math.MaxUint32)))
	case KindInt32:
		return Int32(int32(clamp(f, math.MinInt32, math.MaxInt32)))
	default:
		return Float(float32(f))
	}
}

func clamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(lo, math.Min(hi, f))
}

// ParseFloat decodes an inbound text payload the way atof does: the longest
// numeric prefix is used and anything unparsable yields 0.
func ParseFloat(payload string) float32 {
	s := strings.TrimSpace(payload)
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
scan:
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case (c == '+' || c == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			break scan
		}
		end++
	}
	for end > 0 {
		f, err := strconv.ParseFloat(s[:end], 32)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return float32(f)
		}
		end--
	}
	return 0
}
