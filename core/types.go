package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Color is an 8-bit-per-channel RGBA color.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorWhite       = Color{255, 255, 255, 255}
	ColorBlack       = Color{0, 0, 0, 255}
	ColorRed         = Color{255, 0, 0, 255}
	ColorGreen       = Color{0, 128, 0, 255}
	ColorBlue        = Color{0, 0, 255, 255}
	ColorDeepSkyBlue = Color{0, 191, 255, 255}
)

// NewColor builds an opaque color from 0-255 channel values.
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// ToVec4 expands the 0-255 channels to 0-1 floats.
func (c Color) ToVec4() mgl32.Vec4 {
	return mgl32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// Vertex is the position/normal/texcoord layout shared by every mesh, plus
// the tangent frame used by normal-mapped effects.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoord  mgl32.Vec2
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
}

type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
