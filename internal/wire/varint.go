// Package wire is the binary codec for meshes sent to clients: unsigned
// LEB128 varints, big-endian fixed-width numbers and length-prefixed frames.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
)

// MaxVarIntLen is the longest encoding of a 32-bit varint.
const MaxVarIntLen = 5

var errVarIntTooLong = errors.New("varint too long")

// countingReader adapts an io.Reader to io.ByteReader and counts bytes.
type countingReader struct {
	r   io.Reader
	n   int
	buf [1]byte
}

func (c *countingReader) ReadByte() (byte, error) {
	if c.n >= MaxVarIntLen {
		return 0, errVarIntTooLong
	}
	if _, err := io.ReadFull(c.r, c.buf[:]); err != nil {
		return 0, err
	}
	c.n++
	return c.buf[0], nil
}

// ReadVarInt reads one varint and returns it with the number of bytes consumed.
func ReadVarInt(r io.Reader) (int32, int, error) {
	cr := &countingReader{r: r}
	v, err := binary.ReadUvarint(cr)
	if err != nil {
		if errors.Is(err, io.EOF) && cr.n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return 0, cr.n, err
	}
	if v > math.MaxUint32 {
		return 0, cr.n, errVarIntTooLong
	}
	return int32(uint32(v)), cr.n, nil
}

// WriteVarInt writes value and returns the number of bytes written.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [MaxVarIntLen]byte
	return w.Write(buf[:PutVarInt(buf[:], value)])
}

// AppendVarInt appends the encoding of value to buf.
func AppendVarInt(buf []byte, value int32) []byte {
	return binary.AppendUvarint(buf, uint64(uint32(value)))
}

// PutVarInt encodes value into buf, which must hold MaxVarIntLen bytes, and
// returns the number of bytes written. Negative values take five bytes.
func PutVarInt(buf []byte, value int32) int {
	return binary.PutUvarint(buf, uint64(uint32(value)))
}

// VarIntSize returns the encoded length of value.
func VarIntSize(value int32) int {
	n := bits.Len32(uint32(value))
	if n == 0 {
		return 1
	}
	return (n + 6) / 7
}

// ReadString reads a varint length followed by that many bytes.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if length < 0 || length > maxStringLength {
		return "", fmt.Errorf("string length out of range: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}
	return string(buf), nil
}

// WriteString writes the length of s as a varint, then s.
func WriteString(w io.Writer, s string) (int, error) {
	if len(s) > maxStringLength {
		return 0, fmt.Errorf("string length out of range: %d", len(s))
	}
	n1, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return n1, err
	}
	n2, err := io.WriteString(w, s)
	return n1 + n2, err
}

func readFixed(r io.Reader, n int) ([]byte, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ReadI64 reads a big-endian int64.
func ReadI64(r io.Reader) (int64, error) {
	b, err := readFixed(r, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadF32 reads a big-endian IEEE 754 float32.
func ReadF32(r io.Reader) (float32, error) {
	b, err := readFixed(r, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// ReadF64 reads a big-endian IEEE 754 float64.
func ReadF64(r io.Reader) (float64, error) {
	b, err := readFixed(r, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadBool reads one byte; anything but zero is true.
func ReadBool(r io.Reader) (bool, error) {
	b, err := readFixed(r, 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
