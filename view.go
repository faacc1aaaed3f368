// Copyright (c) 2024 Neomantra Corp
//
// Zero-copy view layer (spec §4.5). A View parses only the wire header
// on construction, for either format — §6 requires the view layer to
// accept both v1 and v2 input, unlike Read/ReadSimple which each commit
// to one. GetField walks the body lazily, skipping sibling fields with
// skipValueAt (v2) or skipValueV1At (v1), and returns a slice borrowed
// directly from the input buffer for string/byte fields rather than an
// owned copy. Grounded on the teacher's DbnScanner cursor discipline
// (dbn_scanner.go): advance-and-reinterpret over a caller-owned buffer,
// never copy unless the caller asks to materialize.

package zcrate

import "reflect"

// View is a lazily-parsed handle onto one record, format v1 or v2.
// Constructing a View only decodes the header; field access is on
// demand. Per spec §6, the view layer is the one reader family that
// accepts both formats — unlike Read/ReadSimple, which each commit to
// one.
type View struct {
	buf     []byte
	bodyPos int
	header  HeaderV2 // zero for a v1-backed view; v1 has no schema_version/fingerprint
	schema  Schema
	topTag  TypeTag
	isV1    bool
}

// NewView peeks buf's format_version and parses whichever header is
// present, returning a View over it. buf must outlive the View — every
// borrowed field value aliases it.
func NewView(buf []byte, schema Schema) (*View, error) {
	fv, err := peekFormatVersion(buf)
	if err != nil {
		return nil, err
	}
	if fv == uint64(FormatVersion1) {
		h, err := decodeHeaderV1(buf)
		if err != nil {
			return nil, err
		}
		return &View{buf: buf, bodyPos: FormatVersion1Size, schema: schema, topTag: h.TypeTag, isV1: true}, nil
	}
	header, n, err := decodeHeaderV2(buf)
	if err != nil {
		return nil, err
	}
	return &View{buf: buf, bodyPos: n, header: header, schema: schema, topTag: header.TypeTag}, nil
}

// TypeTag returns the view's top-level on-wire type.
func (v *View) TypeTag() TypeTag { return v.topTag }

// SchemaVersion returns the schema_version recorded in the header, or 0
// for a v1-backed view — format v1 carries no schema_version field.
func (v *View) SchemaVersion() uint64 { return v.header.SchemaVersion }

// FingerprintMatches reports whether the header's advisory schema
// fingerprint agrees with v's schema. A mismatch is never fatal — the
// caller decides whether and how to log it (spec §7: the engine never
// logs on its own behalf). Format v1 carries no fingerprint at all, so
// a v1-backed view always reports false here.
func (v *View) FingerprintMatches() bool {
	if v.isV1 {
		return false
	}
	return v.header.SchemaFingerprint == v.schema.Fingerprint()
}

// Get materializes the full record into a value of type T, the same as
// Read but reusing the View's already-parsed header.
func Get[T any](v *View) (T, error) {
	var zero T
	rv := reflect.New(reflect.TypeOf(zero)).Elem()
	targetTag, err := goTypeToTag(rv.Type())
	if err != nil {
		return zero, err
	}
	if v.topTag != targetTag {
		return zero, (&Error{Kind: KindTypeMismatch, Message: "top-level type tag does not match T"}).
			withTypes(targetTag.String(), v.topTag.String())
	}
	if v.isV1 {
		if targetTag == Tag_Struct {
			_, err = readStructV1Into(v.buf, v.bodyPos, rv)
		} else {
			_, err = readValueV1Into(v.buf, v.bodyPos, rv, targetTag)
		}
	} else {
		r := &wireReader{buf: v.buf, pos: v.bodyPos}
		if targetTag == Tag_Struct {
			err = readStructV2(r, rv, &v.schema)
		} else {
			err = readValueV2Into(r, rv, targetTag, targetTag)
		}
	}
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// FieldValue is the result of a GetField lookup. Borrowed is true when
// Bytes (for a Tag_String field) is a slice directly aliasing the View's input
// buffer rather than a heap copy — callers that retain a FieldValue past
// the buffer's lifetime must copy it themselves (spec §4.5).
type FieldValue struct {
	Tag      TypeTag
	Borrowed bool
	Bool     bool
	Uint     uint64
	Int      int64
	Float    float64
	Bytes    []byte // borrowed for Tag_String; nil otherwise
}

// GetField looks up a single top-level field by name without
// materializing the rest of the record. It requires the view's top-level
// value to be a struct. On a miss it returns ErrUnknownField.
//
// Spec §4.5 describes GetField returning an owned variant for scalar and
// composite fields alike; this Go adaptation has no FieldT type param to
// materialize an arbitrary composite into, so Tag_Array and Tag_Struct
// fields return UnsupportedType instead — callers that need a composite
// field fall back to Get[T] for the whole record.
func (v *View) GetField(name string) (FieldValue, error) {
	if v.topTag != Tag_Struct {
		return FieldValue{}, newError(KindTypeMismatch, "GetField requires a struct-typed record").
			withTypes(Tag_Struct.String(), v.topTag.String())
	}
	if v.isV1 {
		return v.getFieldV1(name)
	}

	buf := v.buf
	pos := v.bodyPos
	count, n, err := decodeUvarint64(buf[pos:])
	if err != nil {
		return FieldValue{}, err
	}
	pos += n

	for e := uint64(0); e < count; e++ {
		nameLen, n, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return FieldValue{}, err
		}
		pos += n
		if pos+int(nameLen) > len(buf) {
			return FieldValue{}, endOfBufferError(pos, int(nameLen), len(buf)-pos)
		}
		fieldName := string(buf[pos : pos+int(nameLen)])
		pos += int(nameLen)

		if pos >= len(buf) {
			return FieldValue{}, endOfBufferError(pos, 1, 0)
		}
		wireTag := TypeTag(buf[pos])
		if !wireTag.IsValid() {
			return FieldValue{}, ErrInvalidTypeTag
		}
		pos++

		if fieldName != name {
			pos, err = skipValueAt(buf, pos, wireTag)
			if err != nil {
				return FieldValue{}, err
			}
			continue
		}
		return readFieldValue(buf, pos, wireTag)
	}
	return FieldValue{}, ErrUnknownField
}

// readFieldValue decodes exactly one value at buf[pos:] of kind wireTag,
// returning a FieldValue. String/byte payloads borrow directly from buf;
// everything else is copied into the FieldValue's scalar slots, which is
// unavoidable because Go has no way to alias a decoded integer or float.
func readFieldValue(buf []byte, pos int, wireTag TypeTag) (FieldValue, error) {
	switch wireTag {
	case Tag_Bool:
		if pos >= len(buf) {
			return FieldValue{}, endOfBufferError(pos, 1, 0)
		}
		return FieldValue{Tag: wireTag, Bool: buf[pos] != 0}, nil
	case Tag_U8, Tag_U16, Tag_U32, Tag_U64:
		v, _, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: wireTag, Uint: v}, nil
	case Tag_I8, Tag_I16, Tag_I32, Tag_I64:
		raw, _, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: wireTag, Int: signExtend(raw, wireTag.intWidth())}, nil
	case Tag_F32:
		if pos+float32Width > len(buf) {
			return FieldValue{}, endOfBufferError(pos, float32Width, len(buf)-pos)
		}
		return FieldValue{Tag: wireTag, Float: float64(decodeFloat32(buf[pos : pos+float32Width]))}, nil
	case Tag_F64:
		if pos+float64Width > len(buf) {
			return FieldValue{}, endOfBufferError(pos, float64Width, len(buf)-pos)
		}
		return FieldValue{Tag: wireTag, Float: decodeFloat64(buf[pos : pos+float64Width])}, nil
	case Tag_String:
		length, n, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return FieldValue{}, err
		}
		pos += n
		if pos+int(length) > len(buf) {
			return FieldValue{}, endOfBufferError(pos, int(length), len(buf)-pos)
		}
		return FieldValue{Tag: wireTag, Borrowed: true, Bytes: buf[pos : pos+int(length)]}, nil
	case Tag_Array, Tag_Struct:
		// Composite values have no flat scalar representation; the caller
		// should fall back to Get[T] for these.
		return FieldValue{}, newError(KindUnsupportedType,
			"GetField does not materialize composite values; use Get").withTypes("scalar", wireTag.String())
	default:
		return FieldValue{}, ErrInvalidTypeTag
	}
}

// getFieldV1 walks a format v1 body positionally in the view's schema
// field order. Format v1 has no per-field tagging (spec §4.2), so the
// schema's declared order and types are the only way to know where one
// field ends and the next begins — this is the v1 counterpart to the
// tagged walk above.
func (v *View) getFieldV1(name string) (FieldValue, error) {
	pos := v.bodyPos
	for _, fd := range v.schema.Fields {
		if fd.Name == name {
			return readFieldValueV1(v.buf, pos, fd.Type)
		}
		next, err := skipValueV1At(v.buf, pos, fd.Type)
		if err != nil {
			return FieldValue{}, err
		}
		pos = next
	}
	return FieldValue{}, ErrUnknownField
}

// skipValueV1At advances past one v1-encoded value of kind tag at
// buf[pos:], using fixedWidth for the fixed-width scalars and the u32
// length prefix for strings. Tag_Array and Tag_Struct carry no on-wire
// element/field typing under format v1, so a schema alone cannot derive
// their encoded width; GetField can only reach fields declared before
// the first array or struct field in such a record.
func skipValueV1At(buf []byte, pos int, tag TypeTag) (int, error) {
	if w := fixedWidth(tag); w > 0 {
		if pos+w > len(buf) {
			return pos, endOfBufferError(pos, w, len(buf)-pos)
		}
		return pos + w, nil
	}
	if tag == Tag_String {
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return pos, err
		}
		length := int(leUint32(b))
		pos += 4
		if pos+length > len(buf) {
			return pos, endOfBufferError(pos, length, len(buf)-pos)
		}
		return pos + length, nil
	}
	return pos, newError(KindUnsupportedType,
		"GetField cannot skip past a v1 array/struct field positionally; use Get").
		withTypes("scalar or string", tag.String())
}

// readFieldValueV1 is readFieldValue's format v1 counterpart: fixed-width
// little-endian scalars instead of varints, and a u32 length prefix
// instead of a varint length prefix for strings.
func readFieldValueV1(buf []byte, pos int, tag TypeTag) (FieldValue, error) {
	switch tag {
	case Tag_Bool:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Bool: b[0] != 0}, nil
	case Tag_U8:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Uint: uint64(b[0])}, nil
	case Tag_I8:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Int: int64(int8(b[0]))}, nil
	case Tag_U16:
		b, err := readFixedAt(buf, pos, 2)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Uint: uint64(leUint16(b))}, nil
	case Tag_I16:
		b, err := readFixedAt(buf, pos, 2)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Int: int64(int16(leUint16(b)))}, nil
	case Tag_U32:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Uint: uint64(leUint32(b))}, nil
	case Tag_I32:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Int: int64(int32(leUint32(b)))}, nil
	case Tag_U64:
		b, err := readFixedAt(buf, pos, 8)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Uint: leUint64(b)}, nil
	case Tag_I64:
		b, err := readFixedAt(buf, pos, 8)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Int: int64(leUint64(b))}, nil
	case Tag_F32:
		b, err := readFixedAt(buf, pos, float32Width)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Float: float64(decodeFloat32(b))}, nil
	case Tag_F64:
		b, err := readFixedAt(buf, pos, float64Width)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Float: decodeFloat64(b)}, nil
	case Tag_String:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return FieldValue{}, err
		}
		length := int(leUint32(b))
		pos += 4
		data, err := readFixedAt(buf, pos, length)
		if err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Tag: tag, Borrowed: true, Bytes: data}, nil
	case Tag_Array, Tag_Struct:
		return FieldValue{}, newError(KindUnsupportedType,
			"GetField does not materialize composite values; use Get").withTypes("scalar", tag.String())
	default:
		return FieldValue{}, ErrInvalidTypeTag
	}
}

// String returns a copy of fv's bytes as a string; the result does not
// alias the View's input buffer.
func (fv FieldValue) String() string {
	return string(fv.Bytes)
}
