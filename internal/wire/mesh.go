package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
)

// FrameMesh identifies a frame carrying one planet mesh.
const FrameMesh int32 = 0x01

// MeshHeader precedes the mesh arrays in a FrameMesh payload.
type MeshHeader struct {
	Seed        int64   `wire:"i64"`
	Kernel      string  `wire:"string"`
	Radius      float64 `wire:"f64"`
	VertexCount int32   `wire:"varint"`
	IndexCount  int32   `wire:"varint"`
}

// EncodeMesh serializes b behind h. Positions and normals are narrowed to
// float32 for upload; indices are varints. The counts in h are taken from b.
func EncodeMesh(h MeshHeader, b *mesh.Buffers) ([]byte, error) {
	if len(b.Normals) != len(b.Vertices) {
		return nil, fmt.Errorf("encode mesh: %d normals for %d vertices", len(b.Normals), len(b.Vertices))
	}
	if len(b.Vertices) > math.MaxInt32 || len(b.Triangles) > math.MaxInt32 {
		return nil, fmt.Errorf("encode mesh: too many elements")
	}
	h.VertexCount = int32(len(b.Vertices))
	h.IndexCount = int32(len(b.Triangles))

	head, err := Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode mesh header: %w", err)
	}

	buf := make([]byte, 0, len(head)+len(b.Vertices)*24+len(b.Triangles)*3)
	buf = append(buf, head...)
	buf = appendVecs(buf, b.Vertices)
	for _, idx := range b.Triangles {
		buf = AppendVarInt(buf, int32(idx))
	}
	buf = appendVecs(buf, b.Normals)
	return buf, nil
}

// DecodeMesh parses a payload produced by EncodeMesh.
func DecodeMesh(payload []byte) (MeshHeader, *mesh.Buffers, error) {
	var h MeshHeader
	r := bytes.NewReader(payload)
	if err := Decode(r, &h); err != nil {
		return h, nil, fmt.Errorf("decode mesh header: %w", err)
	}
	if h.VertexCount < 0 || h.IndexCount < 0 || h.IndexCount%3 != 0 {
		return h, nil, fmt.Errorf("decode mesh: bad counts %d vertices, %d indices", h.VertexCount, h.IndexCount)
	}
	// Every vertex costs 24 bytes and every index at least one.
	if need := int64(h.VertexCount)*24 + int64(h.IndexCount); need > int64(r.Len()) {
		return h, nil, fmt.Errorf("decode mesh: payload holds %d bytes, need %d", r.Len(), need)
	}

	b := &mesh.Buffers{
		Vertices:  make([]mgl64.Vec3, h.VertexCount),
		Triangles: make([]int, h.IndexCount),
		Normals:   make([]mgl64.Vec3, h.VertexCount),
	}
	if err := readVecs(r, b.Vertices); err != nil {
		return h, nil, fmt.Errorf("decode mesh vertices: %w", err)
	}
	for i := range b.Triangles {
		idx, _, err := ReadVarInt(r)
		if err != nil {
			return h, nil, fmt.Errorf("decode mesh index %d: %w", i, err)
		}
		if idx < 0 || idx >= h.VertexCount {
			return h, nil, fmt.Errorf("decode mesh: index %d = %d out of range", i, idx)
		}
		b.Triangles[i] = int(idx)
	}
	if err := readVecs(r, b.Normals); err != nil {
		return h, nil, fmt.Errorf("decode mesh normals: %w", err)
	}
	if r.Len() != 0 {
		return h, nil, fmt.Errorf("decode mesh: %d trailing bytes", r.Len())
	}
	return h, b, nil
}

// WriteMesh writes b as a single FrameMesh frame.
func WriteMesh(w io.Writer, h MeshHeader, b *mesh.Buffers) error {
	payload, err := EncodeMesh(h, b)
	if err != nil {
		return err
	}
	return WriteFrame(w, FrameMesh, payload)
}

// ReadMesh reads one FrameMesh frame.
func ReadMesh(r io.Reader) (MeshHeader, *mesh.Buffers, error) {
	id, payload, err := ReadFrame(r)
	if err != nil {
		return MeshHeader{}, nil, err
	}
	if id != FrameMesh {
		return MeshHeader{}, nil, fmt.Errorf("expected frame 0x%02X, got 0x%02X", FrameMesh, id)
	}
	return DecodeMesh(payload)
}

func appendVecs(buf []byte, vs []mgl64.Vec3) []byte {
	for _, v := range vs {
		for _, c := range v {
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(c)))
		}
	}
	return buf
}

func readVecs(r io.Reader, dst []mgl64.Vec3) error {
	var raw [12]byte
	for i := range dst {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return err
		}
		for k := 0; k < 3; k++ {
			dst[i][k] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[4*k:])))
		}
	}
	return nil
}
