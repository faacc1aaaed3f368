// Copyright (c) 2024 Neomantra Corp
//
// Memory-mapped file adapter, grounded on the raw-syscall mmap idiom in
// osakka-entitydb's MMapReader (open -> stat -> syscall.Mmap, Close ->
// syscall.Munmap). That reader indexes fixed-size entity records up
// front; ours iterates records one at a time because record length here
// is self-describing (spec §5: the reserved data_size header field is
// never load-bearing — the next record boundary is derived by walking
// the body structure of the current one, via skipValueAt).

package zcrate

import (
	"os"
	"syscall"
)

// MappedFile is a read-only memory-mapped view of a file containing zero
// or more back-to-back v2-framed records.
type MappedFile struct {
	file *os.File
	data []byte
}

// OpenMapped opens and memory-maps path read-only.
func OpenMapped(path string) (*MappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newError(KindFileNotFound, err.Error())
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, newError(KindFileReadError, err.Error())
	}
	size := stat.Size()
	if size == 0 {
		file.Close()
		return &MappedFile{file: file, data: nil}, nil
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, newError(KindMappingFailed, err.Error())
	}

	return &MappedFile{file: file, data: data}, nil
}

// Bytes returns the full mapped region. The slice is only valid until
// Close.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close unmaps the file and closes the underlying descriptor.
func (m *MappedFile) Close() error {
	var mmapErr error
	if m.data != nil {
		mmapErr = syscall.Munmap(m.data)
		m.data = nil
	}
	closeErr := m.file.Close()
	if mmapErr != nil {
		return newError(KindMappingFailed, mmapErr.Error())
	}
	if closeErr != nil {
		return newError(KindFileReadError, closeErr.Error())
	}
	return nil
}

// RecordIterator walks consecutive v2-framed records in a byte slice
// (typically a MappedFile's Bytes()). Next advances past the record at
// the current cursor by decoding its header and then skipping its body
// with skipValueAt, so the cursor never depends on the reserved
// data_size field.
type RecordIterator struct {
	buf      []byte
	pos      int
	cur      []byte
	curErr   error
	finished bool
}

// NewRecordIterator returns an iterator over buf starting at offset 0.
func NewRecordIterator(buf []byte) *RecordIterator {
	return &RecordIterator{buf: buf}
}

// Next advances to the next record and reports whether one was found.
// It returns false both at end of input and on error; call Err to tell
// the two apart.
func (it *RecordIterator) Next() bool {
	if it.finished || it.pos >= len(it.buf) {
		it.finished = true
		return false
	}

	start := it.pos
	header, n, err := decodeHeaderV2(it.buf[start:])
	if err != nil {
		it.curErr = err
		it.finished = true
		return false
	}

	bodyStart := start + n
	bodyEnd, err := skipValueAt(it.buf, bodyStart, header.TypeTag)
	if err != nil {
		it.curErr = err
		it.finished = true
		return false
	}

	it.cur = it.buf[start:bodyEnd]
	it.pos = bodyEnd
	return true
}

// Record returns the most recent record's raw bytes, header included.
func (it *RecordIterator) Record() []byte { return it.cur }

// Err returns the error that stopped iteration, or nil at a clean end
// of input.
func (it *RecordIterator) Err() error { return it.curErr }
