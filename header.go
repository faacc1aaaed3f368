// Copyright (c) 2024 Neomantra Corp
//
// Wire header layout (spec §3).
//
// Format v1 (legacy, fixed-width, 11 bytes):
//   magic u32 | version u16=1 | type_tag u8 | data_size u32
//
// Format v2 (versioned, varint-framed):
//   magic u32 | format_version varint=2 | type_tag u8 | schema_version varint
//   | data_size varint (reserved) | schema_fingerprint varint
//
// The magic is always the fixed little-endian 32-bit pattern "ZCRT"; in
// v2 the remaining integer fields are varint-encoded.

package zcrate

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Magic is the four-byte little-endian pattern every encoded record
// begins with: 0x5A 0x43 0x52 0x54 ("ZCRT").
const Magic uint32 = 0x5A435254

// FormatVersion1Size is the fixed size in bytes of a format v1 header.
const FormatVersion1Size = 11

const (
	FormatVersion1 uint16 = 1
	FormatVersion2 uint16 = 2
)

// HeaderV1 is the fixed-width legacy header.
type HeaderV1 struct {
	Magic    uint32
	Version  uint16
	TypeTag  TypeTag
	DataSize uint32
}

// encodeHeaderV1 writes the 11-byte v1 header to buf, which must have at
// least FormatVersion1Size bytes.
func encodeHeaderV1(buf []byte, h HeaderV1) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.TypeTag)
	binary.LittleEndian.PutUint32(buf[7:11], h.DataSize)
}

// decodeHeaderV1 parses a fixed 11-byte v1 header from the front of buf.
func decodeHeaderV1(buf []byte) (HeaderV1, error) {
	var h HeaderV1
	if len(buf) < FormatVersion1Size {
		return h, endOfBufferError(0, FormatVersion1Size, len(buf))
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != Magic {
		return h, newError(KindInvalidData, "magic number mismatch").withPosition(0)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	h.TypeTag = TypeTag(buf[6])
	h.DataSize = binary.LittleEndian.Uint32(buf[7:11])
	return h, nil
}

// HeaderV2 is the varint-framed versioned header.
type HeaderV2 struct {
	Magic             uint32
	FormatVersion     uint64
	TypeTag           TypeTag
	SchemaVersion     uint64
	DataSize          uint64 // reserved; writer emits 0, reader ignores
	SchemaFingerprint uint64
}

// headerV2MaxSize is a safe upper bound for an encoded v2 header: 4 bytes
// of fixed magic, 1 type_tag byte, plus up to 10 bytes each for four
// varints.
const headerV2MaxSize = 4 + 1 + 4*10

// encodeHeaderV2 writes the v2 header to the front of dst and returns the
// number of bytes written. The header is encoded into a scratch array
// first so that a dst shorter than headerV2MaxSize but long enough for
// the (typically much smaller) actual encoding still succeeds.
func encodeHeaderV2(dst []byte, h HeaderV2) (int, error) {
	var scratch [headerV2MaxSize]byte
	binary.LittleEndian.PutUint32(scratch[0:4], h.Magic)
	n := 4
	n += putUvarint(scratch[n:], h.FormatVersion)
	scratch[n] = byte(h.TypeTag)
	n++
	n += putUvarint(scratch[n:], h.SchemaVersion)
	n += putUvarint(scratch[n:], h.DataSize)
	n += putUvarint(scratch[n:], h.SchemaFingerprint)
	if len(dst) < n {
		return 0, bufferTooSmallError(n, len(dst))
	}
	copy(dst, scratch[:n])
	return n, nil
}

// decodeHeaderV2 parses a v2 header from the front of buf and returns the
// header plus the number of bytes consumed.
func decodeHeaderV2(buf []byte) (HeaderV2, int, error) {
	var h HeaderV2
	if len(buf) < 4 {
		return h, 0, endOfBufferError(0, 4, len(buf))
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != Magic {
		return h, 0, newError(KindInvalidData, "magic number mismatch").withPosition(0)
	}
	n := 4

	fv, sz, err := decodeUvarint64(buf[n:])
	if err != nil {
		return h, n, err
	}
	h.FormatVersion = fv
	n += sz
	if h.FormatVersion < 2 {
		return h, n, newError(KindUnsupportedFormatVersion,
			"versioned reader requires format_version >= 2")
	}

	if n >= len(buf) {
		return h, n, endOfBufferError(n, 1, 0)
	}
	h.TypeTag = TypeTag(buf[n])
	n++

	sv, sz, err := decodeUvarint64(buf[n:])
	if err != nil {
		return h, n, err
	}
	h.SchemaVersion = sv
	n += sz

	ds, sz, err := decodeUvarint64(buf[n:])
	if err != nil {
		return h, n, err
	}
	h.DataSize = ds
	n += sz

	fp, sz, err := decodeUvarint64(buf[n:])
	if err != nil {
		return h, n, err
	}
	h.SchemaFingerprint = fp
	n += sz

	return h, n, nil
}

// peekFormatVersion reads just enough of buf (magic + format_version) to
// decide which header format is in play, without committing to a full
// parse. Used by the zero-copy view (NewView), which accepts both v1 and
// v2 input.
func peekFormatVersion(buf []byte) (uint64, error) {
	if len(buf) < 4 {
		return 0, endOfBufferError(0, 4, len(buf))
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return 0, newError(KindInvalidData, "magic number mismatch").withPosition(0)
	}
	// v1's 5th byte is the low byte of a fixed uint16 version (1); v2's
	// 5th byte is the first byte of a varint format_version (2, 3, ...).
	// Both encodings agree for the values 1 and 2 that matter here: a
	// fixed-width uint16 LE with value 1 and a single-byte varint with
	// value 1 share byte 0x01, and likewise value 2 shares byte 0x02.
	if len(buf) < 5 {
		return 0, endOfBufferError(4, 1, 0)
	}
	return uint64(buf[4]), nil
}

// fingerprint computes the advisory schema fingerprint: hash(name) XOR
// version, truncated to 32 bits (spec §4.3). The hash algorithm must be
// deterministic across builds and platforms; xxhash.Sum64String is.
func fingerprint(schemaName string, version uint64) uint64 {
	h := xxhash.Sum64String(schemaName)
	return (h ^ version) & 0xFFFFFFFF
}
