package renderer

import (
	"image"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/scene"
)

// RenderTarget is an offscreen image that can be drawn into and later
// sampled as a texture.
type RenderTarget interface {
	effect.Texture
}

// DepthFormat selects the depth attachment of a render target.
type DepthFormat int

const (
	DepthNone DepthFormat = iota
	Depth24
)

// ClearOptions selects which buffers Clear resets.
type ClearOptions uint8

const (
	ClearTarget ClearOptions = 1 << iota
	ClearDepth
)

type BlendState int

const (
	BlendOpaque BlendState = iota
	BlendAlpha
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
)

type DepthStencilState int

const (
	DepthDefault DepthStencilState = iota // test and write, less-than
	DepthDisabled
)

type SamplerState int

const (
	SamplerLinearWrap SamplerState = iota
	SamplerLinearClamp
)

// State is the fixed-function configuration applied before draw calls.
type State struct {
	Blend   BlendState
	Cull    CullMode
	Depth   DepthStencilState
	Sampler SamplerState
}

var (
	// SceneState is used while drawing geometry into the offscreen target.
	SceneState = State{Blend: BlendOpaque, Cull: CullNone, Depth: DepthDefault, Sampler: SamplerLinearWrap}
	// CompositeState is used for the full-screen post-process rectangle.
	CompositeState = State{Blend: BlendOpaque, Cull: CullNone, Depth: DepthDefault, Sampler: SamplerLinearClamp}
)

// Device is the rendering backend the pipeline drives. Every draw call names
// the effect it uses; devices hold no per-mesh effect binding.
type Device interface {
	BackBufferSize() (width, height int)

	CreateRenderTarget(width, height int, depth DepthFormat) (RenderTarget, error)
	ReleaseRenderTarget(t RenderTarget)

	// SetRenderTarget binds t as the draw destination; nil restores the
	// back buffer.
	SetRenderTarget(t RenderTarget)
	SetState(s State)
	Clear(opts ClearOptions, color core.Color, depth float32)

	// DrawIndexed draws mesh as a triangle list using e's current parameters.
	DrawIndexed(e *effect.Effect, mesh *scene.Mesh) error
	// DrawFullscreen draws src stretched over dst using e's current parameters.
	DrawFullscreen(e *effect.Effect, src RenderTarget, dst core.Rect) error

	// ReadPixels copies the contents of t (nil = back buffer) top row first.
	ReadPixels(t RenderTarget) (*image.RGBA, error)
}
