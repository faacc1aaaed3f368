// Copyright (c) 2024 Neomantra Corp
//
// zcrate is a binary serialization engine for structured records, with
// first-class support for schema evolution and zero-copy reads.
//
// Package layout:
//   - tag.go, varint.go, floatcode.go    primitive codec (TypeTag, varint, float)
//   - header.go                          wire header, format v1 and v2
//   - schema.go                          FieldDefinition / Schema model
//   - validator.go                       intra-schema and pairwise compatibility checks
//   - record.go                          reflection-driven struct field walk shared by
//     the v1 ("simple") writer/reader and the v2 ("versioned") writer/reader
//   - writer.go, reader.go               public Write / Read entry points
//   - view.go                            zero-copy View over a borrowed buffer
//   - mmap.go                            memory-mapped file adapter and record iterator
//   - scanner.go                         streaming convenience over an io.Reader
//   - visitor.go                         per-TypeTag dispatch for the Scanner
//   - errors.go                          unified error taxonomy
//
// The wire format itself is documented in header.go; schema evolution
// semantics (skip-unknown, default materialization, width coercion) are
// documented on Read in reader.go.
package zcrate
