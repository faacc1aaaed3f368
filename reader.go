// Copyright (c) 2024 Neomantra Corp
//
// Versioned (v2) and simple (v1) readers (spec §4.2, §4.4). The v2 path
// implements skip-unknown, default materialization, and narrow-to-wide
// coercion; the v1 path is a straight positional decode with no
// evolution support. Read accepts only v2 input and ReadSimple only v1
// input; the zero-copy View (view.go) accepts both.

package zcrate

import (
	"reflect"

	"github.com/valyala/fastjson/fastfloat"
)

// wireReader is a bounds-checked cursor over a caller-owned input
// buffer. It never copies the underlying bytes except where the decode
// target requires an owned Go value (e.g. a []byte array element).
type wireReader struct {
	buf []byte
	pos int
}

func (r *wireReader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, endOfBufferError(r.pos, 1, 0)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, endOfBufferError(r.pos, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *wireReader) uvarint() (uint64, error) {
	v, n, err := decodeUvarint64(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// signExtend reinterprets the low `bits` bits of raw as a two's
// complement signed integer of that width, then sign-extends it to 64
// bits. This recovers the writer's bit-reinterpreted signed value
// (varint.go: "no zig-zag") for both exact-width and widened reads.
func signExtend(raw uint64, bits int) int64 {
	if bits >= 64 {
		return int64(raw)
	}
	mask := uint64(1)<<uint(bits) - 1
	v := raw & mask
	sign := uint64(1) << uint(bits-1)
	if v&sign != 0 {
		v |= ^mask
	}
	return int64(v)
}

// --- format v2 (versioned) body decoding ---

// readValueV2Into decodes one value whose on-wire kind is wireTag into
// target, which has static kind targetTag. Caller must have already
// established wireTag == targetTag or wireTag.WidensTo(targetTag).
func readValueV2Into(r *wireReader, target reflect.Value, targetTag, wireTag TypeTag) error {
	switch wireTag {
	case Tag_Bool:
		b, err := r.byte()
		if err != nil {
			return err
		}
		target.SetBool(b != 0)
		return nil
	case Tag_U8, Tag_U16, Tag_U32, Tag_U64:
		// Bounded by the wire tag's width, so an over-wide value fails
		// with InvalidData instead of being truncated by SetUint.
		raw, n, err := getUvarint(r.buf[r.pos:], wireTag.intWidth())
		if err != nil {
			return err
		}
		r.pos += n
		target.SetUint(raw)
		return nil
	case Tag_I8, Tag_I16, Tag_I32, Tag_I64:
		raw, n, err := getUvarint(r.buf[r.pos:], wireTag.intWidth())
		if err != nil {
			return err
		}
		r.pos += n
		target.SetInt(signExtend(raw, wireTag.intWidth()))
		return nil
	case Tag_F32:
		b, err := r.bytes(float32Width)
		if err != nil {
			return err
		}
		target.SetFloat(float64(decodeFloat32(b)))
		return nil
	case Tag_F64:
		b, err := r.bytes(float64Width)
		if err != nil {
			return err
		}
		target.SetFloat(decodeFloat64(b))
		return nil
	case Tag_String:
		length, err := r.uvarint()
		if err != nil {
			return err
		}
		data, err := r.bytes(int(length))
		if err != nil {
			return err
		}
		if target.Kind() == reflect.Slice {
			owned := make([]byte, len(data))
			copy(owned, data)
			target.SetBytes(owned)
		} else {
			target.SetString(string(data))
		}
		return nil
	case Tag_Array:
		return readArrayV2Into(r, target)
	case Tag_Struct:
		return readStructV2(r, target, nil)
	default:
		return ErrInvalidTypeTag
	}
}

func readArrayV2Into(r *wireReader, target reflect.Value) error {
	elemTagByte, err := r.byte()
	if err != nil {
		return err
	}
	wireElemTag := TypeTag(elemTagByte)
	if !wireElemTag.IsValid() {
		return ErrInvalidTypeTag
	}
	count, err := r.uvarint()
	if err != nil {
		return err
	}
	targetElemTag, err := goTypeToTag(target.Type().Elem())
	if err != nil {
		return err
	}
	if wireElemTag != targetElemTag && !wireElemTag.WidensTo(targetElemTag) {
		return unexpectedFieldTypeError("<element>", targetElemTag, wireElemTag)
	}
	slice := reflect.MakeSlice(target.Type(), int(count), int(count))
	for i := 0; i < int(count); i++ {
		if err := readValueV2Into(r, slice.Index(i), targetElemTag, wireElemTag); err != nil {
			return err
		}
	}
	target.Set(slice)
	return nil
}

// readStructV2 decodes a field-tagged struct body into target
// (spec §4.4): read the on-wire field count, then for each entry match
// name against target's fields (skip-unknown on miss, last-write-wins on
// duplicate), then materialize defaults for everything left unpopulated.
// schema is nil for nested struct fields — spec's default-materialization
// phase is only specified against "the schema", which this engine treats
// as the single top-level Schema; nested fields with no match are simply
// left at their Go zero value.
func readStructV2(r *wireReader, target reflect.Value, schema *Schema) error {
	fields, err := structFields(target.Type())
	if err != nil {
		return err
	}
	byName := make(map[string]int, len(fields))
	for i, fi := range fields {
		byName[fi.Name] = i
	}
	populated := make([]bool, len(fields))

	count, err := r.uvarint()
	if err != nil {
		return err
	}
	for e := uint64(0); e < count; e++ {
		nameLen, err := r.uvarint()
		if err != nil {
			return err
		}
		nameBytes, err := r.bytes(int(nameLen))
		if err != nil {
			return err
		}
		name := string(nameBytes)

		tagByte, err := r.byte()
		if err != nil {
			return err
		}
		wireTag := TypeTag(tagByte)
		if !wireTag.IsValid() {
			return ErrInvalidTypeTag
		}

		if name == "" {
			// Zero-length name: entry is ignored (spec §4.4 tie-breaks).
			if err := skipCurrentValue(r, wireTag); err != nil {
				return err
			}
			continue
		}

		idx, ok := byName[name]
		if !ok {
			// Forward-compatibility path: unknown field, skip it.
			if err := skipCurrentValue(r, wireTag); err != nil {
				return err
			}
			continue
		}

		fi := fields[idx]
		if wireTag != fi.Tag && !wireTag.WidensTo(fi.Tag) {
			return unexpectedFieldTypeError(name, fi.Tag, wireTag)
		}
		if err := readValueV2Into(r, target.Field(fi.Index), fi.Tag, wireTag); err != nil {
			return err
		}
		populated[idx] = true // last write wins: re-decoding a duplicate overwrites in place
	}

	for i, fi := range fields {
		if populated[i] {
			continue
		}
		if schema == nil {
			continue // nested struct: no schema to consult, leave Go zero value
		}
		fd, ok := schema.Field(fi.Name)
		if !ok {
			continue // field unknown to schema: zero value
		}
		if fd.HasDefault || !fd.Required {
			materializeDefault(target.Field(fi.Index), fi.Tag, fd.DefaultValue)
			continue
		}
		return requiredFieldMissingError(fi.Name)
	}
	return nil
}

func skipCurrentValue(r *wireReader, tag TypeTag) error {
	newPos, err := skipValueAt(r.buf, r.pos, tag)
	if err != nil {
		return err
	}
	r.pos = newPos
	return nil
}

func requiredFieldMissingError(name string) error {
	return newError(KindRequiredFieldMissing, "field has no on-wire value and no default").withField(name)
}

// materializeDefault parses literal as a value of kind tag into target.
// Per spec §7, a parse failure is silently recovered to the type's zero
// value — fastfloat's *BestEffort parsers already return 0 on malformed
// input, so the fallback is implicit rather than a separate branch.
func materializeDefault(target reflect.Value, tag TypeTag, literal string) {
	switch tag {
	case Tag_Bool:
		target.SetBool(literal == "true")
	case Tag_U8, Tag_U16, Tag_U32, Tag_U64:
		target.SetUint(fastfloat.ParseUint64BestEffort(literal))
	case Tag_I8, Tag_I16, Tag_I32, Tag_I64:
		target.SetInt(fastfloat.ParseInt64BestEffort(literal))
	case Tag_F32, Tag_F64:
		target.SetFloat(fastfloat.ParseBestEffort(literal))
	case Tag_String:
		if target.Kind() == reflect.Slice {
			target.SetBytes([]byte(literal))
		} else {
			target.SetString(literal)
		}
	default:
		// Arrays and nested structs have no literal default encoding;
		// leave the Go zero value in place.
	}
}

// skipValueAt advances past one value of kind tag at buf[pos:] without
// decoding it, returning the new position. This is the "skip semantics"
// of spec §4.4 step 4 — it needs only the on-wire tag, never the
// reader's static type, which is what makes it usable both for
// skip-unknown during Read and for sibling-skipping in the zero-copy
// view and the mapped-file record iterator.
func skipValueAt(buf []byte, pos int, tag TypeTag) (int, error) {
	switch tag {
	case Tag_Null:
		return pos, nil
	case Tag_Bool:
		if pos >= len(buf) {
			return pos, endOfBufferError(pos, 1, 0)
		}
		return pos + 1, nil
	case Tag_U8, Tag_U16, Tag_U32, Tag_U64, Tag_I8, Tag_I16, Tag_I32, Tag_I64:
		n, err := skipVarint(buf[pos:])
		if err != nil {
			return pos, err
		}
		return pos + n, nil
	case Tag_F32:
		if pos+float32Width > len(buf) {
			return pos, endOfBufferError(pos, float32Width, len(buf)-pos)
		}
		return pos + float32Width, nil
	case Tag_F64:
		if pos+float64Width > len(buf) {
			return pos, endOfBufferError(pos, float64Width, len(buf)-pos)
		}
		return pos + float64Width, nil
	case Tag_String:
		length, n, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
		if pos+int(length) > len(buf) {
			return pos, endOfBufferError(pos, int(length), len(buf)-pos)
		}
		return pos + int(length), nil
	case Tag_Array:
		if pos >= len(buf) {
			return pos, endOfBufferError(pos, 1, 0)
		}
		elemTag := TypeTag(buf[pos])
		pos++
		count, n, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
		for i := uint64(0); i < count; i++ {
			pos, err = skipValueAt(buf, pos, elemTag)
			if err != nil {
				return pos, err
			}
		}
		return pos, nil
	case Tag_Struct:
		count, n, err := decodeUvarint64(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
		for i := uint64(0); i < count; i++ {
			nameLen, n, err := decodeUvarint64(buf[pos:])
			if err != nil {
				return pos, err
			}
			pos += n
			pos += int(nameLen)
			if pos >= len(buf) {
				return pos, endOfBufferError(pos, 1, 0)
			}
			fieldTag := TypeTag(buf[pos])
			pos++
			pos, err = skipValueAt(buf, pos, fieldTag)
			if err != nil {
				return pos, err
			}
		}
		return pos, nil
	default:
		return pos, ErrInvalidTypeTag
	}
}

// Read deserializes a v2-framed record from buf into a value of type T,
// applying skip-unknown, default materialization, and width coercion
// against schema (spec §4.4).
func Read[T any](buf []byte, schema Schema) (T, error) {
	var zero T
	rv := reflect.New(reflect.TypeOf(zero)).Elem()
	targetTag, err := goTypeToTag(rv.Type())
	if err != nil {
		return zero, err
	}

	header, n, err := decodeHeaderV2(buf)
	if err != nil {
		return zero, err
	}
	if header.TypeTag != targetTag {
		return zero, (&Error{Kind: KindTypeMismatch, Message: "top-level type tag does not match T"}).
			withTypes(targetTag.String(), header.TypeTag.String())
	}

	r := &wireReader{buf: buf, pos: n}
	if targetTag == Tag_Struct {
		err = readStructV2(r, rv, &schema)
	} else {
		err = readValueV2Into(r, rv, targetTag, targetTag)
	}
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// --- format v1 (simple, legacy) decoding ---

func readFixedAt(buf []byte, pos, n int) ([]byte, error) {
	if pos+n > len(buf) {
		return nil, endOfBufferError(pos, n, len(buf)-pos)
	}
	return buf[pos : pos+n], nil
}

func readValueV1Into(buf []byte, pos int, target reflect.Value, tag TypeTag) (int, error) {
	switch tag {
	case Tag_Bool:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return pos, err
		}
		target.SetBool(b[0] != 0)
		return pos + 1, nil
	case Tag_U8:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return pos, err
		}
		target.SetUint(uint64(b[0]))
		return pos + 1, nil
	case Tag_I8:
		b, err := readFixedAt(buf, pos, 1)
		if err != nil {
			return pos, err
		}
		target.SetInt(int64(int8(b[0])))
		return pos + 1, nil
	case Tag_U16:
		b, err := readFixedAt(buf, pos, 2)
		if err != nil {
			return pos, err
		}
		target.SetUint(uint64(leUint16(b)))
		return pos + 2, nil
	case Tag_I16:
		b, err := readFixedAt(buf, pos, 2)
		if err != nil {
			return pos, err
		}
		target.SetInt(int64(int16(leUint16(b))))
		return pos + 2, nil
	case Tag_U32:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return pos, err
		}
		target.SetUint(uint64(leUint32(b)))
		return pos + 4, nil
	case Tag_I32:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return pos, err
		}
		target.SetInt(int64(int32(leUint32(b))))
		return pos + 4, nil
	case Tag_U64:
		b, err := readFixedAt(buf, pos, 8)
		if err != nil {
			return pos, err
		}
		target.SetUint(leUint64(b))
		return pos + 8, nil
	case Tag_I64:
		b, err := readFixedAt(buf, pos, 8)
		if err != nil {
			return pos, err
		}
		target.SetInt(int64(leUint64(b)))
		return pos + 8, nil
	case Tag_F32:
		b, err := readFixedAt(buf, pos, float32Width)
		if err != nil {
			return pos, err
		}
		target.SetFloat(float64(decodeFloat32(b)))
		return pos + float32Width, nil
	case Tag_F64:
		b, err := readFixedAt(buf, pos, float64Width)
		if err != nil {
			return pos, err
		}
		target.SetFloat(decodeFloat64(b))
		return pos + float64Width, nil
	case Tag_String:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return pos, err
		}
		length := int(leUint32(b))
		pos += 4
		data, err := readFixedAt(buf, pos, length)
		if err != nil {
			return pos, err
		}
		if target.Kind() == reflect.Slice {
			owned := make([]byte, length)
			copy(owned, data)
			target.SetBytes(owned)
		} else {
			target.SetString(string(data))
		}
		return pos + length, nil
	case Tag_Array:
		b, err := readFixedAt(buf, pos, 4)
		if err != nil {
			return pos, err
		}
		count := int(leUint32(b))
		pos += 4
		elemTag, err := goTypeToTag(target.Type().Elem())
		if err != nil {
			return pos, err
		}
		slice := reflect.MakeSlice(target.Type(), count, count)
		for i := 0; i < count; i++ {
			pos, err = readValueV1Into(buf, pos, slice.Index(i), elemTag)
			if err != nil {
				return pos, err
			}
		}
		target.Set(slice)
		return pos, nil
	case Tag_Struct:
		return readStructV1Into(buf, pos, target)
	default:
		return pos, ErrInvalidTypeTag
	}
}

func readStructV1Into(buf []byte, pos int, target reflect.Value) (int, error) {
	fields, err := structFields(target.Type())
	if err != nil {
		return pos, err
	}
	for _, fi := range fields {
		pos, err = readValueV1Into(buf, pos, target.Field(fi.Index), fi.Tag)
		if err != nil {
			return pos, err
		}
	}
	return pos, nil
}

func leUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// ReadSimple deserializes a v1 ("simple") record from buf into T.
// Format v1 has no per-field tagging and no schema — the body is decoded
// positionally according to T's static shape, with no forward/backward
// compatibility. Any input whose format_version is not 1 fails with
// UnsupportedFormatVersion.
func ReadSimple[T any](buf []byte) (T, error) {
	var zero T
	rv := reflect.New(reflect.TypeOf(zero)).Elem()
	targetTag, err := goTypeToTag(rv.Type())
	if err != nil {
		return zero, err
	}

	header, err := decodeHeaderV1(buf)
	if err != nil {
		return zero, err
	}
	if header.Version != FormatVersion1 {
		return zero, ErrUnsupportedFormatVersion
	}
	if header.TypeTag != targetTag {
		return zero, (&Error{Kind: KindTypeMismatch, Message: "top-level type tag does not match T"}).
			withTypes(targetTag.String(), header.TypeTag.String())
	}

	if targetTag == Tag_Struct {
		_, err = readStructV1Into(buf, FormatVersion1Size, rv)
	} else {
		_, err = readValueV1Into(buf, FormatVersion1Size, rv, targetTag)
	}
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}
