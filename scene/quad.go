package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-demo/core"
)

// QuadIndices is the fixed two-triangle index list of the ground quad.
var QuadIndices = [6]uint32{0, 1, 2, 1, 2, 3}

// QuadConfig parameterizes the ground quad.
type QuadConfig struct {
	Scale   float32 // uniform world scale
	OffsetY float32 // vertical offset of the plane in local space
	Tiling  float32 // texture repeats across each side
}

func DefaultQuadConfig() QuadConfig {
	return QuadConfig{Scale: 50, OffsetY: 0, Tiling: 3}
}

// Quad is a 2x2 square in the XZ plane facing +Y, plus its world transform.
type Quad struct {
	Mesh      *Mesh
	Transform mgl32.Mat4
}

// BuildQuad creates the ground quad. The result depends only on cfg.
func BuildQuad(cfg QuadConfig) *Quad {
	up := mgl32.Vec3{0, 1, 0}
	y := cfg.OffsetY
	t := cfg.Tiling

	vertices := []core.Vertex{
		{Position: mgl32.Vec3{-1, y, -1}, Normal: up, TexCoord: mgl32.Vec2{0, 0}}, // top left
		{Position: mgl32.Vec3{1, y, -1}, Normal: up, TexCoord: mgl32.Vec2{t, 0}},  // top right
		{Position: mgl32.Vec3{-1, y, 1}, Normal: up, TexCoord: mgl32.Vec2{0, t}},  // bottom left
		{Position: mgl32.Vec3{1, y, 1}, Normal: up, TexCoord: mgl32.Vec2{t, t}},   // bottom right
	}
	indices := append([]uint32(nil), QuadIndices[:]...)

	mesh := CreateMeshFromData("Quad", vertices, indices)
	ComputeTangents(mesh)

	return &Quad{
		Mesh:      mesh,
		Transform: mgl32.Scale3D(cfg.Scale, cfg.Scale, cfg.Scale),
	}
}
