// Copyright (c) 2024 Neomantra Corp

package zcrate

import (
	"encoding/binary"
	"math"
)

// Float encoding is fixed-width, native little-endian IEEE-754, for both
// format v1 and v2 — no NaN canonicalization, bit-exact round-trip is
// required (spec §4.1, §8).

func encodeFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func decodeFloat32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

func encodeFloat64(buf []byte, v float64) {
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}

func decodeFloat64(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}

const float32Width = 4
const float64Width = 8
