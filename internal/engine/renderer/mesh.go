package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// floatsPerVertex is position followed by normal.
const floatsPerVertex = 6

// Mesh is a static triangle list with per-vertex normals. It is drawn as a
// receiver in the main pass and as a caster in the depth pass.
type Mesh struct {
	vao   uint32
	vbo   uint32
	count int32

	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
	Color    math.Vec3
}

// NewMesh uploads interleaved position/normal vertices.
func NewMesh(vertices []float32, color math.Vec3) *Mesh {
	m := &Mesh{
		count:    int32(len(vertices) / floatsPerVertex),
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Color:    color,
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return m
}

// Model returns the model matrix T * R * S.
func (m *Mesh) Model() math.Mat4 {
	return math.RigidTransform(m.Position, m.Rotation).Mul(math.Scale(m.Scale.X, m.Scale.Y, m.Scale.Z))
}

// Draw issues the draw call.
func (m *Mesh) Draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, m.count)
	gl.BindVertexArray(0)
}

// DrawDepth draws the mesh in the depth pass; only the position attribute is used.
func (m *Mesh) DrawDepth() {
	m.Draw()
}

// Destroy releases the GPU buffers.
func (m *Mesh) Destroy() {
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
}

// BoxVertices returns a unit cube centered on the origin, counter-clockwise
// faces with outward normals.
func BoxVertices() []float32 {
	type face struct {
		normal, u, v math.Vec3
	}
	faces := []face{
		{math.Vec3{X: 1}, math.Vec3{Z: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}, math.Vec3{Z: 1}},
		{math.Vec3{Z: 1}, math.Vec3{X: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}, math.Vec3{Y: 1}},
	}

	out := make([]float32, 0, 36*floatsPerVertex)
	for _, f := range faces {
		c := f.normal.Scale(0.5)
		u, v := f.u.Scale(0.5), f.v.Scale(0.5)
		p00 := c.Sub(u).Sub(v)
		p10 := c.Add(u).Sub(v)
		p11 := c.Add(u).Add(v)
		p01 := c.Sub(u).Add(v)
		for _, p := range []math.Vec3{p00, p10, p11, p00, p11, p01} {
			out = append(out, p.X, p.Y, p.Z, f.normal.X, f.normal.Y, f.normal.Z)
		}
	}
	return out
}

// PlaneVertices returns a square in the XZ plane of the given half size,
// facing +Y.
func PlaneVertices(halfSize float32) []float32 {
	s := halfSize
	return []float32{
		-s, 0, s, 0, 1, 0,
		s, 0, s, 0, 1, 0,
		s, 0, -s, 0, 1, 0,
		-s, 0, s, 0, 1, 0,
		s, 0, -s, 0, 1, 0,
		-s, 0, -s, 0, 1, 0,
	}
}
