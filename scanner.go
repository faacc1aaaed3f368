// Copyright (c) 2024 Neomantra Corp
//
// Scanner streams v2-framed records off an io.Reader one at a time,
// mirroring the teacher's DbnScanner (dbn_scanner.go): a buffered
// reader, a reusable scratch buffer for the last record, Next/Error
// accessors, and a Visit method that dispatches the last-read record to
// a RecordVisitor.

package zcrate

import (
	"bufio"
	"io"
)

// DefaultScannerBufferSize is the bufio.Reader size Scanner uses,
// matching the teacher's DEFAULT_DECODE_BUFFER_SIZE.
const DefaultScannerBufferSize = 16 * 1024

// DefaultScratchSize is the initial capacity of Scanner's reusable
// record buffer; it grows as needed to fit larger records.
const DefaultScratchSize = 512

// scanReadChunk is how many additional bytes Scanner reads at a time
// while it doesn't yet have a full record buffered.
const scanReadChunk = 256

// Scanner scans a stream of back-to-back v2-framed records.
type Scanner struct {
	buf        *bufio.Reader
	lastError  error
	lastRecord []byte
	lastHeader HeaderV2
	lastBodyAt int
	lastSize   int
	carry      []byte // bytes of the next record already read past the last one's end
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		buf:        bufio.NewReaderSize(r, DefaultScannerBufferSize),
		lastRecord: make([]byte, DefaultScratchSize),
	}
}

// Error returns the error from the last failed Next call, which may be
// io.EOF at a clean end of stream.
func (s *Scanner) Error() error { return s.lastError }

// LastRecord returns the raw bytes (header included) of the most
// recently scanned record.
func (s *Scanner) LastRecord() []byte { return s.lastRecord[:s.lastSize] }

// LastHeader returns the parsed header of the most recently scanned
// record.
func (s *Scanner) LastHeader() HeaderV2 { return s.lastHeader }

func (s *Scanner) growScratch(need int) {
	if cap(s.lastRecord) >= need {
		s.lastRecord = s.lastRecord[:need]
		return
	}
	grown := make([]byte, need)
	copy(grown, s.lastRecord)
	s.lastRecord = grown
}

func isEndOfBuffer(err error) bool {
	zerr, ok := asZcrateError(err)
	return ok && zerr.Kind == KindEndOfBuffer
}

// Next reads and frames the next record from the stream. It grows its
// scratch buffer and pulls more bytes only until decodeHeaderV2 plus
// skipValueAt can account for one full record — the same
// structure-derived boundary rule the mapped-file RecordIterator uses,
// so the stream never depends on the reserved data_size field. A read
// from the underlying reader often returns bytes belonging to the
// record after the one being framed; those are kept in carry and
// prepended on the next call rather than dropped. It returns false at
// end of stream or on error; call Error to distinguish the two (a
// clean end of stream is io.EOF).
func (s *Scanner) Next() bool {
	total := 0
	if len(s.carry) > 0 {
		s.growScratch(len(s.carry))
		total = copy(s.lastRecord, s.carry)
		s.carry = nil
	}
	for {
		header, n, err := decodeHeaderV2(s.lastRecord[:total])
		if err == nil {
			end, serr := skipValueAt(s.lastRecord[:total], n, header.TypeTag)
			if serr == nil {
				s.lastHeader = header
				s.lastBodyAt = n
				s.lastSize = end
				s.lastError = nil
				if total > end {
					s.carry = append([]byte(nil), s.lastRecord[end:total]...)
				}
				return true
			}
			if !isEndOfBuffer(serr) {
				s.lastError = serr
				s.lastSize = 0
				return false
			}
		} else if !isEndOfBuffer(err) {
			s.lastError = err
			s.lastSize = 0
			return false
		}

		s.growScratch(total + scanReadChunk)
		nRead, rerr := s.buf.Read(s.lastRecord[total : total+scanReadChunk])
		if nRead == 0 {
			if rerr == nil {
				rerr = io.ErrUnexpectedEOF
			}
			if total == 0 && rerr == io.EOF {
				s.lastError = io.EOF
			} else if rerr == io.EOF {
				// stream ended inside a record
				s.lastError = io.ErrUnexpectedEOF
			} else {
				s.lastError = rerr
			}
			s.lastSize = 0
			return false
		}
		total += nRead
	}
}

// Visit dispatches the last-read record to visitor.
func (s *Scanner) Visit(visitor RecordVisitor) error {
	if s.lastSize == 0 {
		return ErrCorruptedData
	}
	return dispatch(visitor, s.lastHeader, s.lastRecord[s.lastBodyAt:s.lastSize])
}

// ScanAll drains a stream of records, invoking visitor.OnStreamEnd when
// the source is exhausted without error.
func ScanAll(r io.Reader, visitor RecordVisitor) error {
	s := NewScanner(r)
	for s.Next() {
		if err := s.Visit(visitor); err != nil {
			return err
		}
	}
	if err := s.Error(); err != nil && err != io.EOF {
		return err
	}
	return visitor.OnStreamEnd()
}
