package settings

import (
	"strings"
	"testing"

	"github.com/nerrad567/temptick-core/internal/scalar"
)

func TestBuffer_TypedRoundTrip(t *testing.T) {
	b := New(0)
	b.SetBool("SSsf", true)
	b.SetUint8("SSrdt", 5)
	b.SetInt8("RSTsi", -1)
	b.SetUint16("MSSp", 1883)
	b.SetInt16("x16", -1200)
	b.SetUint32("x32", 4000000000)
	b.SetInt32("i32", -70000)
	b.SetFloat("RSTst", 21.7)
	b.SetString("SNWs", "my;net=work\\")
	b.SetBytes("SSDSa0", []byte{0x28, 0xff, 0x64, 0x1e, 0x84, 0x16, 0x03, 0x9c})

	r := Parse(b.Bytes())
	if r.Len() != b.Len() {
		t.Fatalf("Parse() Len = %d, want %d", r.Len(), b.Len())
	}

	var (
		sf   bool
		rdt  uint8
		si   int8
		port uint16
		i16  int16
		u32  uint32
		i32  int32
		st   float32
		ssid string
		addr [8]byte
	)
	checks := []struct {
		name string
		ok   bool
	}{
		{"bool", r.GetBool("SSsf", &sf) && sf},
		{"u8", r.GetUint8("SSrdt", &rdt) && rdt == 5},
		{"i8", r.GetInt8("RSTsi", &si) && si == -1},
		{"u16", r.GetUint16("MSSp", &port) && port == 1883},
		{"i16", r.GetInt16("x16", &i16) && i16 == -1200},
		{"u32", r.GetUint32("x32", &u32) && u32 == 4000000000},
		{"i32", r.GetInt32("i32", &i32) && i32 == -70000},
		{"float", r.GetFloat("RSTst", &st) && st == 21.7},
		{"string", r.GetString("SNWs", &ssid, 0) && ssid == "my;net=work\\"},
		{"bytes", r.GetBytes("SSDSa0", addr[:]) && addr[0] == 0x28 && addr[7] == 0x9c},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s did not round-trip", c.name)
		}
	}
}

func TestBuffer_MissingKeyLeavesDefault(t *testing.T) {
	b := Parse([]byte("SSst=10;"))
	v := uint8(42)
	if b.GetUint8("SSrdt", &v) {
		t.Error("GetUint8(missing) = true")
	}
	if v != 42 {
		t.Errorf("destination changed to %d on missing key", v)
	}
}

func TestBuffer_UnparsableLeavesDefault(t *testing.T) {
	b := Parse([]byte("SSrdt=abc;SSsf=maybe;RSTst=x;SSDSa0=zz;"))
	rdt := uint8(5)
	sf := true
	st := float32(20)
	addr := [8]byte{1}
	if b.GetUint8("SSrdt", &rdt) || rdt != 5 {
		t.Errorf("GetUint8 on garbage changed dst to %d", rdt)
	}
	if b.GetBool("SSsf", &sf) || !sf {
		t.Error("GetBool on garbage changed dst")
	}
	if b.GetFloat("RSTst", &st) || st != 20 {
		t.Error("GetFloat on garbage changed dst")
	}
	if b.GetBytes("SSDSa0", addr[:]) || addr[0] != 1 {
		t.Error("GetBytes on garbage changed dst")
	}
}

func TestBuffer_OutOfRangeRejected(t *testing.T) {
	b := Parse([]byte("SSrdt=300;"))
	v := uint8(5)
	if b.GetUint8("SSrdt", &v) {
		t.Error("GetUint8(300) = true, want false")
	}
}

func TestBuffer_ReplaceInPlace(t *testing.T) {
	b := New(0)
	b.SetUint8("a", 1)
	b.SetUint8("b", 2)
	b.SetUint8("a", 3)
	if got := string(b.Bytes()); got != "a=3;b=2;" {
		t.Errorf("rendered = %q, want %q", got, "a=3;b=2;")
	}
}

func TestBuffer_CapacityTruncates(t *testing.T) {
	b := New(12)
	if !b.SetUint8("a", 1) { // 4 bytes
		t.Fatal("first write rejected")
	}
	if !b.SetString("b", "12345") { // 8 bytes, total 12
		t.Fatal("second write rejected")
	}
	if b.Truncated() {
		t.Fatal("Truncated() = true before overflow")
	}
	if b.SetUint8("c", 1) {
		t.Error("overflowing write accepted")
	}
	if !b.Truncated() {
		t.Error("Truncated() = false after overflow")
	}
	if b.Size() > b.Cap() {
		t.Errorf("Size() = %d exceeds Cap() = %d", b.Size(), b.Cap())
	}
	if b.SetString("b", "123456") {
		t.Error("overflowing replacement accepted")
	}
	var s string
	if !b.GetString("b", &s, 0) || s != "12345" {
		t.Errorf("rejected replacement altered value to %q", s)
	}
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	b := New(0)
	long := strings.Repeat("x", 100)
	n := 0
	for i := 0; i < 50; i++ {
		if b.SetString(IndexedKey("k", i), long) {
			n++
		}
	}
	if b.Size() > DefaultCapacity {
		t.Errorf("Size() = %d exceeds %d", b.Size(), DefaultCapacity)
	}
	if n == 50 || !b.Truncated() {
		t.Errorf("accepted %d of 50 oversized entries, truncated=%v", n, b.Truncated())
	}
}

func TestParse_SkipsMalformed(t *testing.T) {
	b := Parse([]byte("good=1;noequals;=empty;;other=2;trailing"))
	if got := b.Keys(); len(got) != 2 || got[0] != "good" || got[1] != "other" {
		t.Errorf("Keys() = %v, want [good other]", got)
	}
}

func TestParse_DuplicateLaterWins(t *testing.T) {
	b := Parse([]byte("a=1;a=2;"))
	var v uint8
	b.GetUint8("a", &v)
	if v != 2 || b.Len() != 1 {
		t.Errorf("a = %d, Len = %d; want 2, 1", v, b.Len())
	}
}

func TestGetString_MaxLen(t *testing.T) {
	b := New(0)
	b.SetString("n", "Tank")
	var s string
	b.GetString("n", &s, 2)
	if s != "Ta" {
		t.Errorf("GetString(maxLen=2) = %q, want Ta", s)
	}

	b.SetString("n", "añejo")
	b.GetString("n", &s, 2)
	if s != "a" {
		t.Errorf("GetString(maxLen=2) = %q, want a", s)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Tank", 2, "Ta"},
		{"Ta", 2, "Ta"},
		{"añ", 2, "a"},
		{"ñu", 2, "ñ"},
		{"€1", 2, ""},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBuffer_SetAndGetScalar(t *testing.T) {
	tests := []scalar.Value{
		scalar.Bool(true),
		scalar.Uint8(200),
		scalar.Int8(-7),
		scalar.Uint16(60000),
		scalar.Int16(-2),
		scalar.Uint32(123456),
		scalar.Int32(-123456),
		scalar.Float(0.1),
	}
	for _, v := range tests {
		t.Run(v.String(), func(t *testing.T) {
			b := New(0)
			if !b.Set("k", v) {
				t.Fatal("Set() = false")
			}
			got, ok := Parse(b.Bytes()).Get("k", v.Kind())
			if !ok || got != v {
				t.Errorf("Get() = %v, %v; want %v", got, ok, v)
			}
		})
	}
}

func TestRemoveAndReset(t *testing.T) {
	b := New(0)
	b.SetUint8("a", 1)
	b.SetUint8("b", 2)
	if !b.Remove("a") || b.Has("a") || b.Size() != 4 {
		t.Errorf("after Remove: Has(a)=%v Size=%d", b.Has("a"), b.Size())
	}
	b.Reset()
	if b.Len() != 0 || b.Size() != 0 || b.Truncated() {
		t.Error("Reset() did not empty the buffer")
	}
}

func TestIndexedKey(t *testing.T) {
	if got := IndexedKey("BSLe", 13); got != "BSLe13" {
		t.Errorf("IndexedKey = %q", got)
	}
}
