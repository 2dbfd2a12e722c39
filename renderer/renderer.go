package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/scene"
)

var ErrIncompleteScene = errors.New("scene is missing a camera, mesh or effect")

// Scene is what one frame draws: the ground quad and the mesh, each with
// the effect that draws it.
type Scene struct {
	Camera *scene.Camera

	Quad       *scene.Quad
	QuadEffect *effect.Effect

	Mesh       *scene.Mesh
	MeshEffect *effect.Effect
	MeshWorld  mgl32.Mat4
}

func (s *Scene) validate() error {
	if s == nil || s.Camera == nil || s.Quad == nil || s.QuadEffect == nil || s.Mesh == nil || s.MeshEffect == nil {
		return ErrIncompleteScene
	}
	return nil
}

type Options struct {
	SceneClear  core.Color // offscreen background
	ScreenClear core.Color // back buffer background behind the composite
	PostProcess bool       // false draws the scene straight to the back buffer
}

func DefaultOptions() Options {
	return Options{
		SceneClear:  core.ColorDeepSkyBlue,
		ScreenClear: core.ColorBlack,
		PostProcess: true,
	}
}

// Pipeline renders a Scene into an offscreen color+depth target and then
// composites that target to the back buffer through a post-process effect.
type Pipeline struct {
	device Device
	post   *effect.Effect
	target RenderTarget
	opts   Options
	log    *zap.Logger

	// Per-frame stats (populated during Draw)
	lastDraws     int
	lastTriangles int
}

// NewPipeline creates the offscreen target at the back buffer size.
func NewPipeline(device Device, post *effect.Effect, opts Options, log *zap.Logger) (*Pipeline, error) {
	if !post.Declares(effect.Gamma) {
		return nil, fmt.Errorf("post-process effect %q: %q: %w", post.Name(), effect.Gamma, effect.ErrUnknownParameter)
	}
	p := &Pipeline{
		device: device,
		post:   post,
		opts:   opts,
		log:    log,
	}
	if _, ok := post.Get(effect.Gamma); !ok {
		if err := p.SetGamma(1.0); err != nil {
			return nil, err
		}
	}
	w, h := device.BackBufferSize()
	if err := p.Resize(w, h); err != nil {
		return nil, err
	}
	return p, nil
}

// Resize recreates the offscreen target at the given size.
func (p *Pipeline) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render target size %dx%d", width, height)
	}
	if p.target != nil {
		if w, h := p.target.Size(); w == width && h == height {
			return nil
		}
		p.device.ReleaseRenderTarget(p.target)
		p.target = nil
	}
	t, err := p.device.CreateRenderTarget(width, height, Depth24)
	if err != nil {
		return fmt.Errorf("offscreen target: %w", err)
	}
	p.target = t
	p.log.Debug("offscreen target created", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// SetGamma sets the exponent of the post-process pass.
func (p *Pipeline) SetGamma(gamma float32) error {
	return p.post.SetFloat(effect.Gamma, gamma)
}

func (p *Pipeline) SetPostProcess(enabled bool) { p.opts.PostProcess = enabled }
func (p *Pipeline) PostProcess() bool          { return p.opts.PostProcess }
func (p *Pipeline) Target() RenderTarget       { return p.target }

// Stats returns the draw calls and triangles issued by the last Draw.
func (p *Pipeline) Stats() (draws, triangles int) {
	return p.lastDraws, p.lastTriangles
}

// Draw renders one frame.
func (p *Pipeline) Draw(s *Scene) error {
	if !p.opts.PostProcess {
		return p.DrawDirect(s)
	}
	if err := p.DrawToTexture(s); err != nil {
		return err
	}
	return p.Composite()
}

// DrawToTexture is the first pass: the scene into the offscreen target.
// The back buffer is bound again on return, even on error.
func (p *Pipeline) DrawToTexture(s *Scene) error {
	if err := s.validate(); err != nil {
		return err
	}
	p.device.SetRenderTarget(p.target)
	defer p.device.SetRenderTarget(nil)
	return p.drawScene(s)
}

// Composite is the second pass: the offscreen color buffer drawn over the
// whole back buffer through the post-process effect.
func (p *Pipeline) Composite() error {
	p.device.SetRenderTarget(nil)
	p.device.Clear(ClearTarget|ClearDepth, p.opts.ScreenClear, 1)
	p.device.SetState(CompositeState)

	w, h := p.device.BackBufferSize()
	if err := p.device.DrawFullscreen(p.post, p.target, core.Rect{Width: w, Height: h}); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	p.lastDraws++
	return nil
}

// DrawDirect renders the scene straight to the back buffer, skipping the
// post-process pass.
func (p *Pipeline) DrawDirect(s *Scene) error {
	if err := s.validate(); err != nil {
		return err
	}
	p.device.SetRenderTarget(nil)
	return p.drawScene(s)
}

func (p *Pipeline) drawScene(s *Scene) error {
	p.lastDraws, p.lastTriangles = 0, 0

	p.device.SetState(SceneState)
	p.device.Clear(ClearTarget|ClearDepth, p.opts.SceneClear, 1)

	if err := p.drawObject(s.Camera, s.QuadEffect, s.Quad.Mesh, s.Quad.Transform); err != nil {
		return fmt.Errorf("draw quad: %w", err)
	}
	if err := p.drawObject(s.Camera, s.MeshEffect, s.Mesh, s.MeshWorld); err != nil {
		return fmt.Errorf("draw mesh %q: %w", s.Mesh.Name, err)
	}
	return nil
}

func (p *Pipeline) drawObject(cam *scene.Camera, e *effect.Effect, mesh *scene.Mesh, world mgl32.Mat4) error {
	if err := cam.SetEffectParameters(e); err != nil {
		return err
	}
	if err := e.SetMatrix(effect.World, world); err != nil {
		return err
	}
	if err := e.SetMatrix(effect.WorldIT, world.Inv().Transpose()); err != nil {
		return err
	}
	if err := p.device.DrawIndexed(e, mesh); err != nil {
		return err
	}
	p.lastDraws++
	p.lastTriangles += mesh.TriangleCount()
	return nil
}

// Destroy releases the offscreen target.
func (p *Pipeline) Destroy() {
	if p.target != nil {
		p.device.ReleaseRenderTarget(p.target)
		p.target = nil
	}
}
