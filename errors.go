// Copyright (c) 2024 Neomantra Corp

package zcrate

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrorKind is the closed taxonomy of failure modes the engine can return.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota

	// Schema
	KindInvalidSchema
	KindSchemaVersionMismatch
	KindSchemaEvolutionError
	KindIncompatibleSchema

	// Data integrity
	KindInvalidData
	KindInvalidMagicNumber
	KindCorruptedData
	KindChecksumMismatch

	// Type
	KindUnsupportedType
	KindTypeMismatch
	KindInvalidTypeTag

	// Buffer / memory
	KindBufferTooSmall
	KindOutOfMemory
	KindEndOfBuffer

	// Field
	KindRequiredFieldMissing
	KindUnknownField
	KindFieldTypeMismatch

	// File I/O
	KindFileNotFound
	KindFileReadError
	KindFileWriteError
	KindMappingFailed

	// Version
	KindUnsupportedFormatVersion
	KindBackwardCompatibilityError
	KindForwardCompatibilityError
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidSchema:
		return "InvalidSchema"
	case KindSchemaVersionMismatch:
		return "SchemaVersionMismatch"
	case KindSchemaEvolutionError:
		return "SchemaEvolutionError"
	case KindIncompatibleSchema:
		return "IncompatibleSchema"
	case KindInvalidData:
		return "InvalidData"
	case KindInvalidMagicNumber:
		return "InvalidMagicNumber"
	case KindCorruptedData:
		return "CorruptedData"
	case KindChecksumMismatch:
		return "ChecksumMismatch"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindInvalidTypeTag:
		return "InvalidTypeTag"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindEndOfBuffer:
		return "EndOfBuffer"
	case KindRequiredFieldMissing:
		return "RequiredFieldMissing"
	case KindUnknownField:
		return "UnknownField"
	case KindFieldTypeMismatch:
		return "FieldTypeMismatch"
	case KindFileNotFound:
		return "FileNotFound"
	case KindFileReadError:
		return "FileReadError"
	case KindFileWriteError:
		return "FileWriteError"
	case KindMappingFailed:
		return "MappingFailed"
	case KindUnsupportedFormatVersion:
		return "UnsupportedFormatVersion"
	case KindBackwardCompatibilityError:
		return "BackwardCompatibilityError"
	case KindForwardCompatibilityError:
		return "ForwardCompatibilityError"
	default:
		return "Unknown"
	}
}

// Error is the structured error context carried by every failure the
// engine returns. Field, Position, ExpectedType and ActualType are
// optional and only set when relevant to the failure.
type Error struct {
	Kind         ErrorKind
	Message      string
	Field        string
	Position     int
	HasPosition  bool
	ExpectedType string
	ActualType   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("zcrate: %s: %s", e.Kind, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.HasPosition {
		msg += fmt.Sprintf(" (at byte %d)", e.Position)
	}
	if e.ExpectedType != "" || e.ActualType != "" {
		msg += fmt.Sprintf(" (expected %s, got %s)", e.ExpectedType, e.ActualType)
	}
	return msg
}

// Is allows errors.Is(err, ErrInvalidData) and friends to match any
// *Error carrying the corresponding ErrorKind.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*Error)
	if !ok {
		return false
	}
	return sentinel.Kind == e.Kind
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) withField(name string) *Error {
	e.Field = name
	return e
}

func (e *Error) withPosition(pos int) *Error {
	e.Position = pos
	e.HasPosition = true
	return e
}

func (e *Error) withTypes(expected, actual string) *Error {
	e.ExpectedType = expected
	e.ActualType = actual
	return e
}

// Sentinel errors usable with errors.Is. Each wraps an *Error with no
// field/position context; callers that need the context call errors.As.
var (
	ErrInvalidSchema              = newError(KindInvalidSchema, "schema is invalid")
	ErrSchemaVersionMismatch      = newError(KindSchemaVersionMismatch, "schema version mismatch")
	ErrSchemaEvolutionError       = newError(KindSchemaEvolutionError, "schema evolution error")
	ErrIncompatibleSchema         = newError(KindIncompatibleSchema, "incompatible schema")
	ErrInvalidData                = newError(KindInvalidData, "invalid data")
	ErrInvalidMagicNumber         = newError(KindInvalidMagicNumber, "invalid magic number")
	ErrCorruptedData              = newError(KindCorruptedData, "corrupted data")
	ErrChecksumMismatch           = newError(KindChecksumMismatch, "checksum mismatch")
	ErrUnsupportedType            = newError(KindUnsupportedType, "unsupported type")
	ErrTypeMismatch               = newError(KindTypeMismatch, "type mismatch")
	ErrInvalidTypeTag             = newError(KindInvalidTypeTag, "invalid type tag")
	ErrBufferTooSmall             = newError(KindBufferTooSmall, "buffer too small")
	ErrOutOfMemory                = newError(KindOutOfMemory, "out of memory")
	ErrEndOfBuffer                = newError(KindEndOfBuffer, "end of buffer")
	ErrRequiredFieldMissing       = newError(KindRequiredFieldMissing, "required field missing")
	ErrUnknownField               = newError(KindUnknownField, "unknown field")
	ErrFieldTypeMismatch          = newError(KindFieldTypeMismatch, "field type mismatch")
	ErrFileNotFound               = newError(KindFileNotFound, "file not found")
	ErrFileReadError              = newError(KindFileReadError, "file read error")
	ErrFileWriteError             = newError(KindFileWriteError, "file write error")
	ErrMappingFailed              = newError(KindMappingFailed, "mapping failed")
	ErrUnsupportedFormatVersion   = newError(KindUnsupportedFormatVersion, "unsupported format version")
	ErrBackwardCompatibilityError = newError(KindBackwardCompatibilityError, "backward compatibility error")
	ErrForwardCompatibilityError  = newError(KindForwardCompatibilityError, "forward compatibility error")
)

// bufferTooSmallError builds a BufferTooSmall error with humanized sizes,
// e.g. "need 52 B, have 4 B".
func bufferTooSmallError(need, have int) error {
	return newError(KindBufferTooSmall, fmt.Sprintf("need %s, have %s",
		humanize.Bytes(uint64(need)), humanize.Bytes(uint64(have)))).withPosition(have)
}

// endOfBufferError builds an EndOfBuffer error for a short read at pos.
func endOfBufferError(pos, need, have int) error {
	return newError(KindEndOfBuffer, fmt.Sprintf("need %s at byte %d, only %s remain",
		humanize.Bytes(uint64(need)), pos, humanize.Bytes(uint64(have)))).withPosition(pos)
}

// unexpectedFieldTypeError mirrors the teacher's unexpectedBytesError /
// unexpectedRTypeError helper-constructor pattern: one small function per
// recurring mismatch shape instead of repeating fmt.Sprintf at every call
// site.
func unexpectedFieldTypeError(field string, expected, actual TypeTag) error {
	return newError(KindFieldTypeMismatch, "on-wire type is not compatible with target field").
		withField(field).withTypes(expected.String(), actual.String())
}

// asZcrateError uses errors.As to recover the *Error from err, if any.
func asZcrateError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
