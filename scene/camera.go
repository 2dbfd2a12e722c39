package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"render-demo/effect"
)

// ErrDegenerateCamera is returned when the up vector is parallel to the
// viewing direction, which leaves the look-at basis undefined.
var ErrDegenerateCamera = errors.New("camera up vector is parallel to view direction")

const (
	DefaultFOV       = math.Pi / 4
	DefaultNearPlane = 1.0
	DefaultFarPlane  = 300.0
)

// Camera is a look-at camera with a fixed perspective projection.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32
}

// NewCamera creates a camera with the default field of view and clip planes
// and a 4:3 aspect ratio.
func NewCamera(eye, target, up mgl32.Vec3) (*Camera, error) {
	c := &Camera{
		Eye:         eye,
		Target:      target,
		Up:          up,
		FOV:         DefaultFOV,
		AspectRatio: 4.0 / 3.0,
		NearPlane:   DefaultNearPlane,
		FarPlane:    DefaultFarPlane,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the look-at basis is well defined.
func (c *Camera) Validate() error {
	dir := c.Target.Sub(c.Eye)
	if dir.Len() == 0 {
		return fmt.Errorf("eye %v equals target: %w", c.Eye, ErrDegenerateCamera)
	}
	if dir.Normalize().Cross(c.Up).Len() < 1e-6 {
		return fmt.Errorf("up %v along %v: %w", c.Up, dir, ErrDegenerateCamera)
	}
	return nil
}

func (c *Camera) UpdateAspectRatio(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// View is the right-handed look-at matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
}

// SetEffectParameters writes Eye, View and Projection into p.
func (c *Camera) SetEffectParameters(p effect.Parameters) error {
	if err := p.SetVector3(effect.Eye, c.Eye); err != nil {
		return err
	}
	if err := p.SetMatrix(effect.View, c.View()); err != nil {
		return err
	}
	return p.SetMatrix(effect.Projection, c.Projection())
}
