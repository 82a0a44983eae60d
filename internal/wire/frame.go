package wire

import (
	"bytes"
	"fmt"
	"io"
)

const (
	// MaxFrameSize bounds a single frame, enough for several hundred
	// thousand vertices.
	MaxFrameSize = 64 << 20

	maxStringLength = 1 << 12
)

// ReadFrame reads one length-prefixed frame: varint(length) then
// varint(frameID) and the payload, both counted by length.
func ReadFrame(r io.Reader) (frameID int32, payload []byte, err error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return 0, nil, fmt.Errorf("read frame length: %w", err)
	}
	if length < 1 {
		return 0, nil, fmt.Errorf("frame length too small: %d", length)
	}
	if length > MaxFrameSize {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read frame body: %w", err)
	}

	buf := bytes.NewReader(body)
	frameID, n, err := ReadVarInt(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("read frame ID: %w", err)
	}
	return frameID, body[n:], nil
}

// WriteFrame writes payload as one frame with the given ID.
func WriteFrame(w io.Writer, frameID int32, payload []byte) error {
	total := VarIntSize(frameID) + len(payload)
	if total > MaxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", total)
	}

	var buf bytes.Buffer
	buf.Grow(VarIntSize(int32(total)) + total)

	if _, err := WriteVarInt(&buf, int32(total)); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := WriteVarInt(&buf, frameID); err != nil {
		return fmt.Errorf("write frame ID: %w", err)
	}
	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}
