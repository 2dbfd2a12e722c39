package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"render-demo/core"
)

// CreateSphere generates a UV-sphere mesh
func CreateSphere(radius float32, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var vertices []core.Vertex
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * math.Pi / float64(rings)
		sinPhi, cosPhi := math.Sincos(phi)

		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2 * math.Pi / float64(segments)
			sinTheta, cosTheta := math.Sincos(theta)

			normal := mgl32.Vec3{float32(sinPhi * cosTheta), float32(cosPhi), float32(sinPhi * sinTheta)}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				TexCoord: mgl32.Vec2{float32(seg) / float32(segments), float32(ring) / float32(rings)},
			})
		}
	}

	mesh := CreateMeshFromData("Sphere", vertices, gridIndices(rings, segments))
	ComputeTangents(mesh)
	return mesh
}

// CreateTorus generates a torus around the Y axis.
func CreateTorus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	majorSegments = max(majorSegments, 3)
	minorSegments = max(minorSegments, 3)

	var vertices []core.Vertex
	for i := 0; i <= majorSegments; i++ {
		theta := float64(i) * 2 * math.Pi / float64(majorSegments)
		sinTheta, cosTheta := math.Sincos(theta)

		for j := 0; j <= minorSegments; j++ {
			phi := float64(j) * 2 * math.Pi / float64(minorSegments)
			sinPhi, cosPhi := math.Sincos(phi)

			ring := float64(majorRadius) + float64(minorRadius)*cosPhi
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{float32(ring * cosTheta), minorRadius * float32(sinPhi), float32(ring * sinTheta)},
				Normal:   mgl32.Vec3{float32(cosPhi * cosTheta), float32(sinPhi), float32(cosPhi * sinTheta)}.Normalize(),
				TexCoord: mgl32.Vec2{float32(i) / float32(majorSegments), float32(j) / float32(minorSegments)},
			})
		}
	}

	mesh := CreateMeshFromData("Torus", vertices, gridIndices(majorSegments, minorSegments))
	ComputeTangents(mesh)
	return mesh
}

// CreateCylinder generates a capped cylinder centered on the origin.
func CreateCylinder(radius, height float32, segments int) *Mesh {
	segments = max(segments, 3)
	half := height / 2

	var vertices []core.Vertex
	var indices []uint32

	// Side: one bottom/top vertex pair per segment boundary.
	for i := 0; i <= segments; i++ {
		sin, cos := math.Sincos(float64(i) * 2 * math.Pi / float64(segments))
		normal := mgl32.Vec3{float32(cos), 0, float32(sin)}
		u := float32(i) / float32(segments)
		for _, y := range []float32{-half, half} {
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{normal.X() * radius, y, normal.Z() * radius},
				Normal:   normal,
				TexCoord: mgl32.Vec2{u, (y + half) / max(height, 1e-6)},
			})
		}
	}
	for i := 0; i < segments; i++ {
		base := uint32(i * 2)
		indices = append(indices, base, base+1, base+2, base+2, base+1, base+3)
	}

	// Caps: a center vertex fanned out to its own rim ring.
	for _, y := range []float32{half, -half} {
		up := mgl32.Vec3{0, 1, 0}
		if y < 0 {
			up = mgl32.Vec3{0, -1, 0}
		}
		center := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: mgl32.Vec3{0, y, 0},
			Normal:   up,
			TexCoord: mgl32.Vec2{0.5, 0.5},
		})
		for i := 0; i <= segments; i++ {
			sin, cos := math.Sincos(float64(i) * 2 * math.Pi / float64(segments))
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{float32(cos) * radius, y, float32(sin) * radius},
				Normal:   up,
				TexCoord: mgl32.Vec2{float32(cos)*0.5 + 0.5, float32(sin)*0.5 + 0.5},
			})
		}
		for i := uint32(1); i <= uint32(segments); i++ {
			if y > 0 {
				indices = append(indices, center, center+i, center+i+1)
			} else {
				indices = append(indices, center, center+i+1, center+i)
			}
		}
	}

	mesh := CreateMeshFromData("Cylinder", vertices, indices)
	ComputeTangents(mesh)
	return mesh
}

// gridIndices triangulates a (rows+1) x (cols+1) vertex grid.
func gridIndices(rows, cols int) []uint32 {
	indices := make([]uint32, 0, rows*cols*6)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			current := uint32(r*(cols+1) + c)
			next := current + uint32(cols+1)
			indices = append(indices, current, next, current+1, current+1, next, next+1)
		}
	}
	return indices
}
