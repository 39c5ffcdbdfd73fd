package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader provides utilities for reading class-file data in big-endian
// format from an in-memory buffer, tracking the current offset.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// ReadNBytes reads exactly n bytes and advances the offset.
func (r *Reader) ReadNBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid read length %d", n)
	}
	if r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w",
			n, r.off, r.Remaining(), io.ErrUnexpectedEOF)
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ReadU1 reads a single unsigned byte.
func (r *Reader) ReadU1() (uint8, error) {
	b, err := r.ReadNBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU2 reads a 2-byte unsigned integer (big-endian).
func (r *Reader) ReadU2() (uint16, error) {
	b, err := r.ReadNBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU4 reads a 4-byte unsigned integer (big-endian).
func (r *Reader) ReadU4() (uint32, error) {
	b, err := r.ReadNBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU8 reads an 8-byte unsigned integer (big-endian).
func (r *Reader) ReadU8() (uint64, error) {
	b, err := r.ReadNBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadUtf8 reads a length-prefixed modified-UTF-8 string. The corpus only
// uses the ASCII-compatible subset, so the bytes are taken as UTF-8.
func (r *Reader) ReadUtf8() (string, error) {
	length, err := r.ReadU2()
	if err != nil {
		return "", fmt.Errorf("failed to read Utf8 length: %w", err)
	}
	b, err := r.ReadNBytes(int(length))
	if err != nil {
		return "", fmt.Errorf("failed to read Utf8 bytes: %w", err)
	}
	return string(b), nil
}
