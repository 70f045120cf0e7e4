package scalar

import (
	"errors"
	"math"
	"testing"
)

func TestSize(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBool, 1},
		{KindUint8, 1},
		{KindInt8, 1},
		{KindUint16, 2},
		{KindInt16, 2},
		{KindUint32, 4},
		{KindInt32, 4},
		{KindFloat, 4},
		{Kind(8), 0},
		{Kind(255), 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := Size(tt.kind); got != tt.want {
				t.Errorf("Size(%v) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	values := []Value{
		Bool(true),
		Bool(false),
		Uint8(0),
		Uint8(255),
		Int8(-128),
		Int8(127),
		Uint16(65535),
		Int16(-32768),
		Uint32(math.MaxUint32),
		Int32(math.MinInt32),
		Float(23.4),
		Float(-127),
		Float(0),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			raw := Encode(v)
			if len(raw) != Size(v.Kind()) {
				t.Fatalf("Encode(%v) len = %d, want %d", v, len(raw), Size(v.Kind()))
			}
			got, err := Decode(raw, v.Kind())
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != v {
				t.Errorf("Decode(Encode(%v)) = %v", v, got)
			}
		})
	}
}

func TestEncode_LittleEndian(t *testing.T) {
	raw := Encode(Uint16(0x1234))
	if raw[0] != 0x34 || raw[1] != 0x12 {
		t.Errorf("Encode(Uint16(0x1234)) = % x, want 34 12", raw)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte{1, 2}, KindFloat); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Decode(short) error = %v, want ErrShortBuffer", err)
	}
	if _, err := Decode([]byte{1, 2, 3, 4}, Kind(9)); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Decode(unknown kind) error = %v, want ErrUnknownKind", err)
	}
}

func TestAccessors_Coerce(t *testing.T) {
	if got := Bool(true).Float32(); got != 1 {
		t.Errorf("Bool(true).Float32() = %v, want 1", got)
	}
	if got := Float(2.9).Int64(); got != 2 {
		t.Errorf("Float(2.9).Int64() = %d, want 2", got)
	}
	if got := Int8(-5).Float64(); got != -5 {
		t.Errorf("Int8(-5).Float64() = %v, want -5", got)
	}
	if !Float(0.5).Bool() {
		t.Error("Float(0.5).Bool() = false, want true")
	}
	if Uint16(0).Bool() {
		t.Error("Uint16(0).Bool() = true, want false")
	}
	if got := Int16(300).Uint8(); got != 44 {
		t.Errorf("Int16(300).Uint8() = %d, want 44", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Bool(true), "1"},
		{Bool(false), "0"},
		{Uint8(12), "12"},
		{Int8(-3), "-3"},
		{Int32(-70000), "-70000"},
		{Uint32(4000000000), "4000000000"},
		{Float(23.4), "23.40"},
		{Float(-127), "-127.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.v.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float32
	}{
		{"21.5", 21.5},
		{"  1", 1},
		{"-3.25abc", -3.25},
		{"1.5.3", 1.5},
		{"1e2", 100},
		{"7e", 7},
		{"abc", 0},
		{"", 0},
		{"-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFloat(tt.in); got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromFloat64_Saturates(t *testing.T) {
	if got := FromFloat64(KindUint8, 300).Uint8(); got != 255 {
		t.Errorf("FromFloat64(u8, 300) = %d, want 255", got)
	}
	if got := FromFloat64(KindInt8, -300).Int8(); got != -128 {
		t.Errorf("FromFloat64(i8, -300) = %d, want -128", got)
	}
	if got := FromFloat64(KindBool, 2); got != Bool(true) {
		t.Errorf("FromFloat64(bool, 2) = %v, want bool(1)", got)
	}
	if got := FromFloat64(KindFloat, 1.5); got.Kind() != KindFloat || got.Float32() != 1.5 {
		t.Errorf("FromFloat64(float, 1.5) = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("FLOAT")
	if err != nil || k != KindFloat {
		t.Errorf("ParseKind(FLOAT) = %v, %v", k, err)
	}
	if _, err := ParseKind("double"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(double) error = %v, want ErrUnknownKind", err)
	}
}
