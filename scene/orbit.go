package scene

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit moves the camera and the light around the origin on circles in the
// XZ plane. Positions depend only on the absolute elapsed time.
type Orbit struct {
	Period time.Duration

	CameraRadius float32
	CameraHeight float32
	LightRadius  float32
	LightHeight  float32
}

func DefaultOrbit() Orbit {
	return Orbit{
		Period:       8 * time.Second,
		CameraRadius: 100,
		CameraHeight: 50,
		LightRadius:  50,
		LightHeight:  50,
	}
}

// Angle returns the orbit angle in radians at elapsed time t.
func (o Orbit) Angle(t time.Duration) float64 {
	if o.Period <= 0 {
		return 0
	}
	phase := float64(t%o.Period) / float64(o.Period)
	return phase * 2 * math.Pi
}

// Eye is the camera position at t. The camera runs opposite the light.
func (o Orbit) Eye(t time.Duration) mgl32.Vec3 {
	a := o.Angle(t)
	return mgl32.Vec3{
		float32(-math.Cos(a)) * o.CameraRadius,
		o.CameraHeight,
		float32(math.Sin(a)) * o.CameraRadius,
	}
}

// Light is the light position at t.
func (o Orbit) Light(t time.Duration) mgl32.Vec3 {
	a := o.Angle(t)
	return mgl32.Vec3{
		float32(math.Cos(a)) * o.LightRadius,
		o.LightHeight,
		float32(math.Sin(a)) * o.LightRadius,
	}
}
