package opengl

import (
	"fmt"
	"sort"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"render-demo/effect"
	"render-demo/scene"
)

// program is the GL side of a compiled effect.
type program struct {
	id       uint32
	uniforms map[string]int32 // parameter name -> location (-1 if unused)
	units    map[string]int32 // sampler name -> texture unit
}

// CompileEffect links the GLSL program for e's technique and resolves a
// uniform location for every declared parameter.
func (d *Device) CompileEffect(e *effect.Effect) error {
	src, ok := shaderSources[e.Technique()]
	if !ok {
		return fmt.Errorf("no shader for technique %q", e.Technique())
	}
	id, err := newProgram(src.vert, src.frag)
	if err != nil {
		return fmt.Errorf("technique %q: %w", e.Technique(), err)
	}

	p := &program{
		id:       id,
		uniforms: make(map[string]int32),
		units:    make(map[string]int32),
	}

	def := e.Definition()
	names := make([]string, 0, len(def.Params))
	for name := range def.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	gl.UseProgram(id)
	for _, name := range names {
		loc := gl.GetUniformLocation(id, gl.Str(name+"\x00"))
		p.uniforms[name] = loc
		if loc < 0 {
			d.log.Debug("uniform not active", zap.String("effect", e.Name()), zap.String("uniform", name))
		}
		if def.Params[name] == effect.KindTexture {
			unit := int32(len(p.units))
			p.units[name] = unit
			gl.Uniform1i(loc, unit)
		}
	}
	if loc := gl.GetUniformLocation(id, gl.Str(sceneSampler+"\x00")); loc >= 0 {
		unit := int32(len(p.units))
		p.units[sceneSampler] = unit
		gl.Uniform1i(loc, unit)
	}
	gl.UseProgram(0)

	e.Program = p
	d.programs = append(d.programs, p)
	return nil
}

// apply makes e's program current and uploads every parameter that holds a
// value. extra binds additional samplers by name.
func (d *Device) apply(e *effect.Effect, extra map[string]effect.Texture) error {
	p, ok := e.Program.(*program)
	if !ok {
		return fmt.Errorf("effect %q was not compiled by this device", e.Name())
	}
	gl.UseProgram(p.id)

	sampler := d.samplers[d.state.Sampler]
	for _, name := range e.Names() {
		v, _ := e.Get(name)
		loc := p.uniforms[name]

		switch v.Kind {
		case effect.KindMatrix:
			gl.UniformMatrix4fv(loc, 1, false, &v.Matrix[0])
		case effect.KindVector3:
			gl.Uniform3f(loc, v.Vector[0], v.Vector[1], v.Vector[2])
		case effect.KindVector4:
			gl.Uniform4f(loc, v.Vector[0], v.Vector[1], v.Vector[2], v.Vector[3])
		case effect.KindFloat:
			gl.Uniform1f(loc, v.Float)
		case effect.KindBool:
			gl.Uniform1i(loc, boolToInt(v.Bool))
		case effect.KindTexture:
			if err := bindTexture(p.units[name], v.Texture, sampler); err != nil {
				return fmt.Errorf("%s: %q: %w", e.Name(), name, err)
			}
		}
	}
	for name, tex := range extra {
		unit, ok := p.units[name]
		if !ok {
			return fmt.Errorf("%s: no sampler %q", e.Name(), name)
		}
		if err := bindTexture(unit, tex, sampler); err != nil {
			return fmt.Errorf("%s: %q: %w", e.Name(), name, err)
		}
	}
	return nil
}

func bindTexture(unit int32, tex effect.Texture, sampler uint32) error {
	var id uint32
	switch t := tex.(type) {
	case *scene.Texture:
		if t.GLID == 0 {
			return fmt.Errorf("texture %q is not uploaded", t.Name)
		}
		id = t.GLID
	case *renderTarget:
		id = t.colorTex
	default:
		return fmt.Errorf("unsupported texture %T", tex)
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.BindSampler(uint32(unit), sampler)
	return nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
