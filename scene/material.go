package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"render-demo/core"
	"render-demo/effect"
)

// ShadingMode selects how the lit effect colors a surface.
type ShadingMode int

const (
	ShadingLit         ShadingMode = iota // Phong lighting of the material colors
	ShadingNormalColor                    // world normal used as the surface color
	ShadingProcedural                     // procedural checker pattern
)

func (m ShadingMode) String() string {
	switch m {
	case ShadingLit:
		return "lit"
	case ShadingNormalColor:
		return "normal"
	case ShadingProcedural:
		return "procedural"
	}
	return fmt.Sprintf("ShadingMode(%d)", int(m))
}

// ParseShadingMode is the inverse of ShadingMode.String.
func ParseShadingMode(s string) (ShadingMode, error) {
	switch s {
	case "lit", "":
		return ShadingLit, nil
	case "normal":
		return ShadingNormalColor, nil
	case "procedural":
		return ShadingProcedural, nil
	}
	return 0, fmt.Errorf("unknown shading mode %q", s)
}

// Material describes the Phong surface and light parameters fed to the lit
// effect. It is built once and not edited afterwards.
type Material struct {
	AmbientColor     core.Color
	AmbientIntensity float32

	LightPosition mgl32.Vec3

	// DiffuseColor is ignored by the shader when a DiffuseTexture is set.
	DiffuseColor     core.Color
	DiffuseIntensity float32

	SpecularColor     core.Color
	SpecularIntensity float32
	SpecularPower     float32

	Shading ShadingMode

	DiffuseTexture *Texture
}

// SetEffectParameters flushes the ten material values into p.
func (m *Material) SetEffectParameters(p effect.Parameters) error {
	return errors.Join(
		p.SetVector4(effect.AmbientColor, m.AmbientColor.ToVec4()),
		p.SetFloat(effect.AmbientIntensity, m.AmbientIntensity),

		p.SetVector3(effect.LightPosition, m.LightPosition),
		p.SetVector4(effect.DiffuseColor, m.DiffuseColor.ToVec4()),
		p.SetFloat(effect.DiffuseIntensity, m.DiffuseIntensity),

		p.SetVector4(effect.SpecularColor, m.SpecularColor.ToVec4()),
		p.SetFloat(effect.SpecularIntensity, m.SpecularIntensity),
		p.SetFloat(effect.SpecularPower, m.SpecularPower),

		p.SetBool(effect.NormalColoring, m.Shading == ShadingNormalColor),
		p.SetBool(effect.ProceduralColoring, m.Shading == ShadingProcedural),
	)
}

// SetTextureParameters binds the optional diffuse texture.
func (m *Material) SetTextureParameters(p effect.Parameters) error {
	if m.DiffuseTexture == nil {
		return p.SetBool(effect.HasTexture, false)
	}
	return errors.Join(
		p.SetTexture(effect.DiffuseTexture, m.DiffuseTexture),
		p.SetBool(effect.HasTexture, true),
	)
}
