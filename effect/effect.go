// Package effect models shader effects as a program plus a table of named,
// typed parameters. Backends read the table when a draw call applies the
// effect; callers only ever write names.
package effect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownParameter = errors.New("unknown effect parameter")
	ErrKindMismatch     = errors.New("effect parameter kind mismatch")
)

// Kind is the type of a shader parameter slot.
type Kind int

const (
	KindMatrix Kind = iota
	KindVector3
	KindVector4
	KindFloat
	KindBool
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindMatrix:
		return "matrix"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTexture:
		return "texture"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Texture is anything a backend can bind to a sampler.
type Texture interface {
	Size() (width, height int)
}

// Value is one parameter value. Only the field matching Kind is meaningful;
// Vector3 values are stored in the first three components of Vector.
type Value struct {
	Kind    Kind
	Matrix  mgl32.Mat4
	Vector  mgl32.Vec4
	Float   float32
	Bool    bool
	Texture Texture
}

// Parameters is the write side of an effect's parameter table.
type Parameters interface {
	SetMatrix(name string, m mgl32.Mat4) error
	SetVector3(name string, v mgl32.Vec3) error
	SetVector4(name string, v mgl32.Vec4) error
	SetFloat(name string, f float32) error
	SetBool(name string, b bool) error
	SetTexture(name string, t Texture) error
}

// Definition declares an effect's technique and parameter slots.
type Definition struct {
	Name      string
	Technique string
	Params    map[string]Kind
}

// Effect is a compiled shader program and its current parameter values.
type Effect struct {
	def    Definition
	values map[string]Value

	// Program is set by the backend that compiled the effect.
	Program interface{}
}

var _ Parameters = (*Effect)(nil)

func New(def Definition) *Effect {
	return &Effect{
		def:    def,
		values: make(map[string]Value, len(def.Params)),
	}
}

func (e *Effect) Name() string           { return e.def.Name }
func (e *Effect) Technique() string      { return e.def.Technique }
func (e *Effect) Definition() Definition { return e.def }

// Declares reports whether the effect has a slot called name.
func (e *Effect) Declares(name string) bool {
	_, ok := e.def.Params[name]
	return ok
}

// Get returns the current value of a parameter, if it was set.
func (e *Effect) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Names returns the parameters that currently hold a value, sorted.
func (e *Effect) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Effect) set(name string, v Value) error {
	kind, ok := e.def.Params[name]
	if !ok {
		return fmt.Errorf("%s: %q: %w", e.def.Name, name, ErrUnknownParameter)
	}
	if kind != v.Kind {
		return fmt.Errorf("%s: %q is %s, got %s: %w", e.def.Name, name, kind, v.Kind, ErrKindMismatch)
	}
	e.values[name] = v
	return nil
}

func (e *Effect) SetMatrix(name string, m mgl32.Mat4) error {
	return e.set(name, Value{Kind: KindMatrix, Matrix: m})
}

func (e *Effect) SetVector3(name string, v mgl32.Vec3) error {
	return e.set(name, Value{Kind: KindVector3, Vector: v.Vec4(0)})
}

func (e *Effect) SetVector4(name string, v mgl32.Vec4) error {
	return e.set(name, Value{Kind: KindVector4, Vector: v})
}

func (e *Effect) SetFloat(name string, f float32) error {
	return e.set(name, Value{Kind: KindFloat, Float: f})
}

func (e *Effect) SetBool(name string, b bool) error {
	return e.set(name, Value{Kind: KindBool, Bool: b})
}

func (e *Effect) SetTexture(name string, t Texture) error {
	return e.set(name, Value{Kind: KindTexture, Texture: t})
}
