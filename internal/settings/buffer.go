package settings

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/temptick-core/internal/scalar"
)

// DefaultCapacity is the rendered size limit of a settings buffer in bytes.
const DefaultCapacity = 1100

type entry struct {
	key   string
	value string // escaped form, as rendered
}

func (e entry) size() int { return len(e.key) + len(e.value) + 2 }

// Buffer is an ordered, capacity-bounded set of key/value entries.
// Keys are unique; writing an existing key replaces its value in place.
type Buffer struct {
	capacity  int
	size      int
	entries   []entry
	truncated bool
}

// New returns an empty Buffer limited to capacity bytes.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Parse builds a DefaultCapacity buffer from persisted bytes.
func Parse(data []byte) *Buffer {
	b := New(DefaultCapacity)
	b.Load(data)
	return b
}

// Load adds the entries found in data to b and returns how many were
// accepted. Malformed entries (no '=' or an empty key) are skipped. Entries
// that do not fit latch Truncated.
func (b *Buffer) Load(data []byte) int {
	accepted := 0
	var cur strings.Builder
	escaped := false

	flush := func() {
		raw := cur.String()
		cur.Reset()
		key, value, ok := splitEntry(raw)
		if !ok {
			return
		}
		if b.put(key, value) {
			accepted++
		}
	}

	for _, c := range data {
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			cur.WriteByte(c)
			escaped = true
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return accepted
}

// splitEntry splits "key=value" at the first unescaped '='. The value is
// returned still escaped.
func splitEntry(raw string) (string, string, bool) {
	escaped := false
	for i := 0; i < len(raw); i++ {
		switch {
		case escaped:
			escaped = false
		case raw[i] == '\\':
			escaped = true
		case raw[i] == '=':
			key := strings.TrimSpace(raw[:i])
			if key == "" || !validKey(key) {
				return "", "", false
			}
			return key, raw[i+1:], true
		}
	}
	return "", "", false
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, "\\;=")
}

// put stores an already-escaped value, enforcing capacity.
func (b *Buffer) put(key, value string) bool {
	if !validKey(key) {
		return false
	}
	e := entry{key: key, value: value}
	for i := range b.entries {
		if b.entries[i].key != key {
			continue
		}
		next := b.size - b.entries[i].size() + e.size()
		if next > b.capacity {
			b.truncated = true
			return false
		}
		b.entries[i] = e
		b.size = next
		return true
	}
	if b.size+e.size() > b.capacity {
		b.truncated = true
		return false
	}
	b.entries = append(b.entries, e)
	b.size += e.size()
	return true
}

func (b *Buffer) lookup(key string) (string, bool) {
	for _, e := range b.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return "", false
}

// Bytes renders the buffer in its persisted form.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.size)
	for _, e := range b.entries {
		out = append(out, e.key...)
		out = append(out, '=')
		out = append(out, e.value...)
		out = append(out, ';')
	}
	return out
}

// Size returns the rendered length in bytes.
func (b *Buffer) Size() int { return b.size }

// Cap returns the capacity in bytes.
func (b *Buffer) Cap() int { return b.capacity }

// Len returns the number of entries.
func (b *Buffer) Len() int { return len(b.entries) }

// Truncated reports whether any write was dropped for lack of space.
func (b *Buffer) Truncated() bool { return b.truncated }

// Has reports whether key is present.
func (b *Buffer) Has(key string) bool {
	_, ok := b.lookup(key)
	return ok
}

// Keys returns the keys in insertion order.
func (b *Buffer) Keys() []string {
	keys := make([]string, len(b.entries))
	for i, e := range b.entries {
		keys[i] = e.key
	}
	return keys
}

// Remove deletes key and reports whether it was present.
func (b *Buffer) Remove(key string) bool {
	for i, e := range b.entries {
		if e.key == key {
			b.size -= e.size()
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Reset empties the buffer and clears the truncation latch.
func (b *Buffer) Reset() {
	b.entries = b.entries[:0]
	b.size = 0
	b.truncated = false
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// IndexedKey builds the key for element i of a collection, e.g.
// IndexedKey("SSDSn", 0) == "SSDSn0".
func IndexedKey(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

func escape(s string) string {
	if !strings.ContainsAny(s, "\\;=") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', ';', '=':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		if !escaped && s[i] == '\\' {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// ─── Writers ────────────────────────────────────────────────────────

// SetBool stores a boolean as 1 or 0.
func (b *Buffer) SetBool(key string, v bool) bool {
	if v {
		return b.put(key, "1")
	}
	return b.put(key, "0")
}

// SetUint8 stores an unsigned 8-bit integer.
func (b *Buffer) SetUint8(key string, v uint8) bool {
	return b.put(key, strconv.FormatUint(uint64(v), 10))
}

// SetInt8 stores a signed 8-bit integer.
func (b *Buffer) SetInt8(key string, v int8) bool {
	return b.put(key, strconv.FormatInt(int64(v), 10))
}

// SetUint16 stores an unsigned 16-bit integer.
func (b *Buffer) SetUint16(key string, v uint16) bool {
	return b.put(key, strconv.FormatUint(uint64(v), 10))
}

// SetInt16 stores a signed 16-bit integer.
func (b *Buffer) SetInt16(key string, v int16) bool {
	return b.put(key, strconv.FormatInt(int64(v), 10))
}

// SetUint32 stores an unsigned 32-bit integer.
func (b *Buffer) SetUint32(key string, v uint32) bool {
	return b.put(key, strconv.FormatUint(uint64(v), 10))
}

// SetInt32 stores a signed 32-bit integer.
func (b *Buffer) SetInt32(key string, v int32) bool {
	return b.put(key, strconv.FormatInt(int64(v), 10))
}

// SetFloat stores a float32 in its shortest round-tripping form.
func (b *Buffer) SetFloat(key string, v float32) bool {
	return b.put(key, strconv.FormatFloat(float64(v), 'g', -1, 32))
}

// SetString stores s, escaping separator characters.
func (b *Buffer) SetString(key, s string) bool {
	return b.put(key, escape(s))
}

// SetBytes stores a byte array as lower-case hex.
func (b *Buffer) SetBytes(key string, p []byte) bool {
	return b.put(key, hex.EncodeToString(p))
}

// Set stores a typed scalar using the encoding of its kind.
func (b *Buffer) Set(key string, v scalar.Value) bool {
	switch v.Kind() {
	case scalar.KindBool:
		return b.SetBool(key, v.Bool())
	case scalar.KindFloat:
		return b.SetFloat(key, v.Float32())
	default:
		return b.put(key, v.Format())
	}
}

// ─── Readers ────────────────────────────────────────────────────────

// GetBool reads a boolean into dst.
func (b *Buffer) GetBool(key string, dst *bool) bool {
	raw, ok := b.lookup(key)
	if !ok {
		return false
	}
	switch raw {
	case "1", "true":
		*dst = true
	case "0", "false":
		*dst = false
	default:
		return false
	}
	return true
}

func (b *Buffer) parseUint(key string, bits int) (uint64, bool) {
	raw, ok := b.lookup(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (b *Buffer) parseInt(key string, bits int) (int64, bool) {
	raw, ok := b.lookup(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetUint8 reads an unsigned 8-bit integer into dst.
func (b *Buffer) GetUint8(key string, dst *uint8) bool {
	v, ok := b.parseUint(key, 8)
	if ok {
		*dst = uint8(v)
	}
	return ok
}

// GetInt8 reads a signed 8-bit integer into dst.
func (b *Buffer) GetInt8(key string, dst *int8) bool {
	v, ok := b.parseInt(key, 8)
	if ok {
		*dst = int8(v)
	}
	return ok
}

// GetUint16 reads an unsigned 16-bit integer into dst.
func (b *Buffer) GetUint16(key string, dst *uint16) bool {
	v, ok := b.parseUint(key, 16)
	if ok {
		*dst = uint16(v)
	}
	return ok
}

// GetInt16 reads a signed 16-bit integer into dst.
func (b *Buffer) GetInt16(key string, dst *int16) bool {
	v, ok := b.parseInt(key, 16)
	if ok {
		*dst = int16(v)
	}
	return ok
}

// GetUint32 reads an unsigned 32-bit integer into dst.
func (b *Buffer) GetUint32(key string, dst *uint32) bool {
	v, ok := b.parseUint(key, 32)
	if ok {
		*dst = uint32(v)
	}
	return ok
}

// GetInt32 reads a signed 32-bit integer into dst.
func (b *Buffer) GetInt32(key string, dst *int32) bool {
	v, ok := b.parseInt(key, 32)
	if ok {
		*dst = int32(v)
	}
	return ok
}

// GetFloat reads a float32 into dst.
func (b *Buffer) GetFloat(key string, dst *float32) bool {
	raw, ok := b.lookup(key)
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return false
	}
	*dst = float32(v)
	return true
}

// GetString reads a string into dst, cutting it to at most maxLen bytes.
// A maxLen of zero or less means unlimited.
func (b *Buffer) GetString(key string, dst *string, maxLen int) bool {
	raw, ok := b.lookup(key)
	if !ok {
		return false
	}
	s := unescape(raw)
	if maxLen > 0 {
		s = Truncate(s, maxLen)
	}
	*dst = s
	return true
}

// GetBytes reads a hex byte array into dst. The stored array must have exactly
// len(dst) bytes.
func (b *Buffer) GetBytes(key string, dst []byte) bool {
	raw, ok := b.lookup(key)
	if !ok {
		return false
	}
	p, err := hex.DecodeString(raw)
	if err != nil || len(p) != len(dst) {
		return false
	}
	copy(dst, p)
	return true
}

// Get reads key as the given kind.
func (b *Buffer) Get(key string, kind scalar.Kind) (scalar.Value, bool) {
	switch kind {
	case scalar.KindBool:
		var v bool
		ok := b.GetBool(key, &v)
		return scalar.Bool(v), ok
	case scalar.KindFloat:
		var v float32
		ok := b.GetFloat(key, &v)
		return scalar.Float(v), ok
	case scalar.KindUint8, scalar.KindUint16, scalar.KindUint32:
		v, ok := b.parseUint(key, scalar.Size(kind)*8)
		return scalar.FromFloat64(kind, float64(v)), ok
	case scalar.KindInt8, scalar.KindInt16, scalar.KindInt32:
		v, ok := b.parseInt(key, scalar.Size(kind)*8)
		return scalar.FromFloat64(kind, float64(v)), ok
	default:
		return scalar.Value{}, false
	}
}
