// Package scalar provides the typed scalar values carried by every event and
// every persisted setting in temptick.
//
// A Value is a tagged union over a fixed set of eight kinds (bool, u8, i8,
// u16, i16, u32, i32, float). The tag set and its numeric ids are part of the
// fixed-size wire format produced by Encode and consumed by Decode:
//
//	Bool=0 Uint8=1 Int8=2 Uint16=3 Int16=4 Uint32=5 Int32=6 Float=7
//
// Values can be read back as any numeric type; the accessors coerce the same
// way the device firmware's pointer casts did, so a consumer that expects a
// float can be handed a bool and vice versa.
//
// # Usage
//
//	v := scalar.Float(23.4)
//	raw := scalar.Encode(v)               // 4 bytes, little-endian
//	back, err := scalar.Decode(raw, v.Kind())
//	fmt.Println(back.Format())            // "23.40"
package scalar
