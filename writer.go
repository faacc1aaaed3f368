// Copyright (c) 2024 Neomantra Corp
//
// Versioned (v2) and simple (v1) writers (spec §4.2, §4.3).

package zcrate

import (
	"encoding/binary"
	"reflect"
)

// wireWriter is a bounds-checked cursor over a caller-owned buffer. It
// never allocates or grows buf; every put method fails with
// BufferTooSmall rather than writing past len(buf).
type wireWriter struct {
	buf []byte
	pos int
}

func (w *wireWriter) ensure(n int) error {
	if w.pos+n > len(w.buf) {
		return bufferTooSmallError(w.pos+n, len(w.buf))
	}
	return nil
}

func (w *wireWriter) putByte(b byte) error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf[w.pos] = b
	w.pos++
	return nil
}

func (w *wireWriter) putBytes(b []byte) error {
	if err := w.ensure(len(b)); err != nil {
		return err
	}
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
	return nil
}

func (w *wireWriter) putUvarint(v uint64) error {
	if err := w.ensure(uvarintSize(v)); err != nil {
		return err
	}
	w.pos += putUvarint(w.buf[w.pos:], v)
	return nil
}

func (w *wireWriter) putFixed32(v uint32) error {
	if err := w.ensure(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
	return nil
}

func (w *wireWriter) putFixed64(v uint64) error {
	if err := w.ensure(8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
	return nil
}

// --- format v2 (versioned) body encoding ---

// writeValueV2 encodes a single value of kind tag: integers as varint,
// floats fixed-width, strings/byte-slices with a varint length prefix,
// arrays as [elemTag byte][varint count][elements...], structs
// recursively via writeStructV2.
func writeValueV2(w *wireWriter, v reflect.Value, tag TypeTag) error {
	switch tag {
	case Tag_Bool:
		if v.Bool() {
			return w.putByte(1)
		}
		return w.putByte(0)
	case Tag_U8:
		return w.putUvarint(v.Uint())
	case Tag_U16:
		return w.putUvarint(v.Uint())
	case Tag_U32:
		return w.putUvarint(v.Uint())
	case Tag_U64:
		return w.putUvarint(v.Uint())
	case Tag_I8:
		return w.putUvarint(uint64(uint8(v.Int())))
	case Tag_I16:
		return w.putUvarint(uint64(uint16(v.Int())))
	case Tag_I32:
		return w.putUvarint(uint64(uint32(v.Int())))
	case Tag_I64:
		return w.putUvarint(uint64(v.Int()))
	case Tag_F32:
		var scratch [4]byte
		encodeFloat32(scratch[:], float32(v.Float()))
		return w.putBytes(scratch[:])
	case Tag_F64:
		var scratch [8]byte
		encodeFloat64(scratch[:], v.Float())
		return w.putBytes(scratch[:])
	case Tag_String:
		b := toBytes(v)
		if err := w.putUvarint(uint64(len(b))); err != nil {
			return err
		}
		return w.putBytes(b)
	case Tag_Array:
		return writeArrayV2(w, v)
	case Tag_Struct:
		return writeStructV2(w, v)
	default:
		return newError(KindUnsupportedType, "no v2 encoding for this TypeTag")
	}
}

// toBytes returns the raw bytes of a string or []byte reflect.Value
// without copying when possible.
func toBytes(v reflect.Value) []byte {
	if v.Kind() == reflect.String {
		return []byte(v.String())
	}
	return v.Bytes()
}

func writeArrayV2(w *wireWriter, v reflect.Value) error {
	elemTag, err := goTypeToTag(v.Type().Elem())
	if err != nil {
		return err
	}
	if err := w.putByte(byte(elemTag)); err != nil {
		return err
	}
	if err := w.putUvarint(uint64(v.Len())); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := writeValueV2(w, v.Index(i), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func writeStructV2(w *wireWriter, v reflect.Value) error {
	fields, err := structFields(v.Type())
	if err != nil {
		return err
	}
	if err := w.putUvarint(uint64(len(fields))); err != nil {
		return err
	}
	for _, fi := range fields {
		if err := w.putUvarint(uint64(len(fi.Name))); err != nil {
			return err
		}
		if err := w.putBytes([]byte(fi.Name)); err != nil {
			return err
		}
		if err := w.putByte(byte(fi.Tag)); err != nil {
			return err
		}
		if err := writeValueV2(w, v.Field(fi.Index), fi.Tag); err != nil {
			return err
		}
	}
	return nil
}

// Write serializes value (a struct or scalar of statically known shape)
// into buf using the versioned (v2) wire format, writing the v2 header
// followed by a field-tagged body. schema supplies the header's
// schema_version and the advisory fingerprint; it does not drive which
// fields get written — the writer is driven entirely by the shape of
// value (spec §4.3). Returns the number of bytes written, or
// BufferTooSmall if buf is not large enough.
func Write(value interface{}, buf []byte, schema Schema) (int, error) {
	rv := topLevelValue(value)
	tag, err := goTypeToTag(rv.Type())
	if err != nil {
		return 0, err
	}

	n, err := encodeHeaderV2(buf, HeaderV2{
		Magic:             Magic,
		FormatVersion:     2,
		TypeTag:           tag,
		SchemaVersion:     schema.Version,
		DataSize:          0, // reserved; see DESIGN.md Open Questions
		SchemaFingerprint: schema.Fingerprint(),
	})
	if err != nil {
		return 0, err
	}

	w := &wireWriter{buf: buf, pos: n}
	if tag == Tag_Struct {
		err = writeStructV2(w, rv)
	} else {
		err = writeValueV2(w, rv, tag)
	}
	if err != nil {
		return 0, err
	}
	return w.pos, nil
}

// --- format v1 (simple, legacy) encoding ---

// writeValueV1 encodes a single value using fixed-width positional
// encoding (spec §4.2): no per-field tagging, composite lengths are a
// fixed u32 prefix.
func writeValueV1(w *wireWriter, v reflect.Value, tag TypeTag) error {
	switch tag {
	case Tag_Bool:
		if v.Bool() {
			return w.putByte(1)
		}
		return w.putByte(0)
	case Tag_U8:
		return w.putByte(byte(v.Uint()))
	case Tag_U16:
		return w.putFixed32AsU16(uint16(v.Uint()))
	case Tag_U32:
		return w.putFixed32(uint32(v.Uint()))
	case Tag_U64:
		return w.putFixed64(v.Uint())
	case Tag_I8:
		return w.putByte(byte(int8(v.Int())))
	case Tag_I16:
		return w.putFixed32AsU16(uint16(int16(v.Int())))
	case Tag_I32:
		return w.putFixed32(uint32(int32(v.Int())))
	case Tag_I64:
		return w.putFixed64(uint64(v.Int()))
	case Tag_F32:
		var scratch [4]byte
		encodeFloat32(scratch[:], float32(v.Float()))
		return w.putBytes(scratch[:])
	case Tag_F64:
		var scratch [8]byte
		encodeFloat64(scratch[:], v.Float())
		return w.putBytes(scratch[:])
	case Tag_String:
		b := toBytes(v)
		if err := w.putFixed32(uint32(len(b))); err != nil {
			return err
		}
		return w.putBytes(b)
	case Tag_Array:
		return writeArrayV1(w, v)
	case Tag_Struct:
		return writeStructV1(w, v)
	default:
		return newError(KindUnsupportedType, "no v1 encoding for this TypeTag")
	}
}

// putFixed32AsU16 writes a 16-bit value as 2 fixed little-endian bytes.
func (w *wireWriter) putFixed32AsU16(v uint16) error {
	if err := w.ensure(2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
	return nil
}

func writeArrayV1(w *wireWriter, v reflect.Value) error {
	elemTag, err := goTypeToTag(v.Type().Elem())
	if err != nil {
		return err
	}
	if err := w.putFixed32(uint32(v.Len())); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := writeValueV1(w, v.Index(i), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func writeStructV1(w *wireWriter, v reflect.Value) error {
	fields, err := structFields(v.Type())
	if err != nil {
		return err
	}
	for _, fi := range fields {
		if err := writeValueV1(w, v.Field(fi.Index), fi.Tag); err != nil {
			return err
		}
	}
	return nil
}

// WriteSimple serializes value into buf using the legacy format v1
// (fixed 11-byte header, fixed-width positional body, no evolution
// support). Returns the number of bytes written, or BufferTooSmall.
func WriteSimple(value interface{}, buf []byte) (int, error) {
	rv := topLevelValue(value)
	tag, err := goTypeToTag(rv.Type())
	if err != nil {
		return 0, err
	}
	if len(buf) < FormatVersion1Size {
		return 0, bufferTooSmallError(FormatVersion1Size, len(buf))
	}

	w := &wireWriter{buf: buf, pos: FormatVersion1Size}
	if tag == Tag_Struct {
		err = writeStructV1(w, rv)
	} else {
		err = writeValueV1(w, rv, tag)
	}
	if err != nil {
		return 0, err
	}

	encodeHeaderV1(buf, HeaderV1{
		Magic:    Magic,
		Version:  FormatVersion1,
		TypeTag:  tag,
		DataSize: uint32(w.pos - FormatVersion1Size),
	})
	return w.pos, nil
}
