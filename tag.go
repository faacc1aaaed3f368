// Copyright (c) 2024 Neomantra Corp

package zcrate

// TypeTag is the single-byte discriminant identifying the kind of value
// that follows in the wire. Values are stable across versions; reserved
// values fail to decode with ErrInvalidTypeTag.
type TypeTag uint8

const (
	Tag_Null   TypeTag = 0x00
	Tag_Bool   TypeTag = 0x01
	Tag_U8     TypeTag = 0x02
	Tag_U16    TypeTag = 0x03
	Tag_U32    TypeTag = 0x04
	Tag_U64    TypeTag = 0x05
	Tag_I8     TypeTag = 0x06
	Tag_I16    TypeTag = 0x07
	Tag_I32    TypeTag = 0x08
	Tag_I64    TypeTag = 0x09
	Tag_F32    TypeTag = 0x0A
	Tag_F64    TypeTag = 0x0B
	Tag_String TypeTag = 0x0C
	Tag_Array  TypeTag = 0x0D
	Tag_Struct TypeTag = 0x0E

	tag_maxValid = Tag_Struct
)

func (t TypeTag) String() string {
	switch t {
	case Tag_Null:
		return "Null"
	case Tag_Bool:
		return "Bool"
	case Tag_U8:
		return "U8"
	case Tag_U16:
		return "U16"
	case Tag_U32:
		return "U32"
	case Tag_U64:
		return "U64"
	case Tag_I8:
		return "I8"
	case Tag_I16:
		return "I16"
	case Tag_I32:
		return "I32"
	case Tag_I64:
		return "I64"
	case Tag_F32:
		return "F32"
	case Tag_F64:
		return "F64"
	case Tag_String:
		return "String"
	case Tag_Array:
		return "Array"
	case Tag_Struct:
		return "Struct"
	default:
		return "InvalidTag"
	}
}

// IsValid reports whether t is one of the assigned TypeTag codes.
func (t TypeTag) IsValid() bool {
	return t <= tag_maxValid
}

// IsUnsignedInt reports whether t is one of U8..U64.
func (t TypeTag) IsUnsignedInt() bool {
	switch t {
	case Tag_U8, Tag_U16, Tag_U32, Tag_U64:
		return true
	default:
		return false
	}
}

// IsSignedInt reports whether t is one of I8..I64.
func (t TypeTag) IsSignedInt() bool {
	switch t {
	case Tag_I8, Tag_I16, Tag_I32, Tag_I64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is F32 or F64.
func (t TypeTag) IsFloat() bool {
	return t == Tag_F32 || t == Tag_F64
}

// IsPrimitive reports whether t is a scalar (non-Array, non-Struct) kind.
func (t TypeTag) IsPrimitive() bool {
	return t != Tag_Array && t != Tag_Struct && t.IsValid()
}

// intWidth returns the bit width of an integer TypeTag, or 0 if t is not
// an integer tag.
func (t TypeTag) intWidth() int {
	switch t {
	case Tag_U8, Tag_I8:
		return 8
	case Tag_U16, Tag_I16:
		return 16
	case Tag_U32, Tag_I32:
		return 32
	case Tag_U64, Tag_I64:
		return 64
	default:
		return 0
	}
}

// WidensTo reports whether the on-wire tag `t` may be widened into the
// target tag `target` per spec's one-directional coercion lattice:
// U8<=U16<=U32<=U64, I8<=I16<=I32<=I64, F32<=F64, same signedness only,
// no int<->float, no int<->string.
func (t TypeTag) WidensTo(target TypeTag) bool {
	if t == target {
		return true
	}
	if t.IsUnsignedInt() && target.IsUnsignedInt() {
		return t.intWidth() <= target.intWidth()
	}
	if t.IsSignedInt() && target.IsSignedInt() {
		return t.intWidth() <= target.intWidth()
	}
	if t == Tag_F32 && target == Tag_F64 {
		return true
	}
	return false
}
