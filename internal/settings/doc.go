// Package settings implements the bounded key/value text buffer every manager
// serialises its configuration into.
//
// The rendered form is a flat sequence of entries:
//
//	SSsf=0;SSst=10;SSrdt=5;SSDSn0=T1;SSDSa0=28ff641e8416039c;...
//
// Keys are short mnemonic identifiers owned by the manager that writes them.
// Collections use an index suffix (see IndexedKey) and are always written
// contiguously from zero, so a reader probes 0,1,2,... until the first missing
// key and never sees gaps.
//
// # Capacity
//
// A Buffer never renders more than its capacity in bytes. A write that would
// overflow is dropped, the setter returns false and Truncated() latches true,
// so the caller can log the loss instead of persisting a silently short file.
//
// # Encoding
//
//   - bool: 1 or 0
//   - integers: decimal
//   - float: shortest text that round-trips a float32
//   - string: raw, with '\', ';' and '=' escaped by a backslash
//   - bytes: lower-case hex
//
// Reads never fail loudly: a missing key or an unparsable value leaves the
// destination untouched and returns false, so defaults set beforehand survive.
package settings
