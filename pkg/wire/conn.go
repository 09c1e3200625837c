package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload a peer will accept, per the
// protocol's framing invariant: a receiver that reads a length greater
// than this must fail before allocating.
const MaxFrameSize = 10 << 20 // 10 MiB

// ErrFrameTooLarge is returned by ReadFrame when the advertised length
// exceeds MaxFrameSize.
var ErrFrameTooLarge = fmt.Errorf("wire: frame exceeds %d bytes", MaxFrameSize)

// WriteFrame writes an 8-byte big-endian length prefix followed by
// payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads an 8-byte big-endian length prefix and then exactly
// that many payload bytes. The length is checked against MaxFrameSize
// before any payload buffer is allocated.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteMessage encodes m and writes it as one length-prefixed frame.
func WriteMessage(w io.Writer, m Message) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}
	return WriteFrame(w, buf.Bytes())
}

// ReadMessage reads one length-prefixed frame and decodes it.
func ReadMessage(r io.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(payload))
}
