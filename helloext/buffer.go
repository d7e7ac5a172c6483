package helloext

import "encoding/binary"

// Buffer is an append-only byte buffer with back-patch helpers for the
// length-prefixed TLS extension framing described in spec §4.1. It plays the
// role the reference C implementation gives gnutls_buffer_st plus
// _gnutls_extv_append_init/_final: reserve a placeholder, let the caller
// append variable-length content, then go back and fill in the true size.
type Buffer struct {
	b []byte
}

// NewBuffer wraps an existing byte slice (may be nil) for appending.
func NewBuffer(b []byte) *Buffer { return &Buffer{b: b} }

// Bytes returns the buffer's current contents.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int { return len(buf.b) }

// AppendUint16 appends a big-endian uint16.
func (buf *Buffer) AppendUint16(v uint16) {
	buf.b = append(buf.b, byte(v>>8), byte(v))
}

// AppendUint32 appends a big-endian uint32.
func (buf *Buffer) AppendUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.b = append(buf.b, tmp[:]...)
}

// AppendBytes appends p verbatim.
func (buf *Buffer) AppendBytes(p []byte) {
	buf.b = append(buf.b, p...)
}

// Truncate drops the buffer back to length n.
func (buf *Buffer) Truncate(n int) {
	buf.b = buf.b[:n]
}

// patchUint16 overwrites the big-endian uint16 at byte offset pos.
func (buf *Buffer) patchUint16(pos int, v uint16) {
	buf.b[pos] = byte(v >> 8)
	buf.b[pos+1] = byte(v)
}

// patchUint32 overwrites the big-endian uint32 at byte offset pos.
func (buf *Buffer) patchUint32(pos int, v uint32) {
	binary.BigEndian.PutUint32(buf.b[pos:pos+4], v)
}

// appendInit reserves a 2-byte length placeholder and returns its offset,
// the Go analogue of _gnutls_extv_append_init.
func (buf *Buffer) appendInit() int {
	pos := buf.Len()
	buf.AppendUint16(0)
	return pos
}

// appendFinal back-patches the placeholder at pos with the number of bytes
// written since, and — for Hello messages only — truncates the placeholder
// away entirely when nothing was written, matching extv.c's
// _gnutls_extv_append_final (some peers reject an empty-but-present
// extensions field).
func (buf *Buffer) appendFinal(pos int, isHello bool) error {
	size := buf.Len() - pos - 2
	if size < 0 {
		return ErrMemoryError
	}
	if size > 0xFFFF {
		return ErrMemoryError
	}
	if size > 0 {
		buf.patchUint16(pos, uint16(size))
	} else if isHello {
		buf.Truncate(pos)
	}
	return nil
}
