package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-demo/core"
)

// Mesh holds CPU-side vertex/index data for one drawable part.
// GPU upload is managed by the renderer backend; which effect draws the
// mesh is decided per draw call, not stored here.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Material is the surface description imported with the mesh, if any.
	Material *ImportedMaterial

	// GPUData is set by the renderer backend.
	// Do not access directly; use the renderer's API.
	GPUData interface{}
}

// ImportedMaterial is the subset of a file's material the demo keeps.
type ImportedMaterial struct {
	Name          string
	DiffuseColor  mgl32.Vec4
	DiffuseMap    *Texture
	NormalMap     *Texture
	SpecularPower float32
}

// CreateMeshFromData builds a Mesh from vertex and index slices.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
}

// TriangleCount is the number of indexed triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the local-space axis-aligned bounds of the mesh.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min = m.Vertices[0].Position
	max = min
	for _, v := range m.Vertices[1:] {
		p := v.Position
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}
