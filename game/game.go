// Package game wires content, scene and renderer into the demo: a lit mesh
// above a cobblestone quad, with camera and light orbiting the origin.
package game

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"render-demo/config"
	"render-demo/content"
	"render-demo/core"
	"render-demo/effect"
	"render-demo/renderer"
	"render-demo/scene"
)

// Device is what the game needs from a backend: drawing plus the GPU side
// of content loading.
type Device interface {
	renderer.Device
	content.Backend
}

type Game struct {
	cfg     *config.Config
	log     *zap.Logger
	device  Device
	content *content.Manager

	camera   *scene.Camera
	material *scene.Material
	orbit    scene.Orbit
	quad     *scene.Quad
	mesh     *scene.Mesh

	simple     *effect.Effect
	quadEffect *effect.Effect
	post       *effect.Effect

	pipeline *renderer.Pipeline
	scene    renderer.Scene

	timeStep float32
	frames   core.FrameCounter
}

func New(cfg *config.Config, device Device, log *zap.Logger) *Game {
	return &Game{
		cfg:     cfg,
		log:     log,
		device:  device,
		content: content.NewManager(cfg.Content.Root, device, log),
		orbit:   cfg.OrbitPath(),
	}
}

// Load compiles the effects, loads the assets and builds the scene. It fails
// on the first missing or invalid asset.
func (g *Game) Load() error {
	var err error
	if g.simple, err = g.content.LoadEffect(effect.SimpleName); err != nil {
		return err
	}
	if g.quadEffect, err = g.content.LoadEffect(effect.QuadName); err != nil {
		return err
	}
	if g.post, err = g.content.LoadEffect(effect.PostProcessingName); err != nil {
		return err
	}

	if g.mesh, err = g.content.LoadMesh(g.cfg.Content.Mesh); err != nil {
		return err
	}
	g.quad = scene.BuildQuad(g.cfg.QuadConfig())

	if err := g.loadQuadTextures(); err != nil {
		return err
	}
	if g.material, err = g.buildMaterial(); err != nil {
		return err
	}
	if err := errors.Join(
		g.material.SetEffectParameters(g.simple),
		g.material.SetTextureParameters(g.simple),
		g.quadEffect.SetVector3(effect.LightPosition, g.material.LightPosition),
	); err != nil {
		return fmt.Errorf("material: %w", err)
	}

	cam := g.cfg.Camera
	if g.camera, err = scene.NewCamera(cam.Eye.Mgl(), cam.Target.Mgl(), cam.Up.Mgl()); err != nil {
		return err
	}
	w, h := g.device.BackBufferSize()
	g.camera.UpdateAspectRatio(w, h)

	opts := renderer.Options{
		SceneClear:  g.cfg.Render.SceneClear.Core(),
		ScreenClear: g.cfg.Render.ScreenClear.Core(),
		PostProcess: g.cfg.Render.PostProcess,
	}
	if g.pipeline, err = renderer.NewPipeline(g.device, g.post, opts, g.log); err != nil {
		return err
	}
	if err := g.pipeline.SetGamma(g.cfg.Render.Gamma); err != nil {
		return err
	}

	meshEffect := g.simple
	if g.cfg.Scene.MeshEffect == config.MeshEffectQuad {
		meshEffect = g.quadEffect
	}
	g.scene = renderer.Scene{
		Camera:     g.camera,
		Quad:       g.quad,
		QuadEffect: g.quadEffect,
		Mesh:       g.mesh,
		MeshEffect: meshEffect,
		MeshWorld:  g.cfg.MeshWorld(),
	}

	g.log.Info("scene loaded",
		zap.String("mesh", g.mesh.Name),
		zap.Int("triangles", g.mesh.TriangleCount()),
		zap.String("mesh_effect", meshEffect.Name()),
		zap.Stringer("shading", g.material.Shading),
		zap.Float32("gamma", g.cfg.Render.Gamma))
	return nil
}

func (g *Game) loadQuadTextures() error {
	diffuse, err := g.content.LoadTexture(g.cfg.Content.QuadTexture)
	if err != nil {
		return err
	}
	if err := errors.Join(
		g.quadEffect.SetTexture(effect.DiffuseTexture, diffuse),
		g.quadEffect.SetBool(effect.HasTexture, true),
	); err != nil {
		return err
	}

	if g.cfg.Content.QuadNormalMap == "" {
		return g.quadEffect.SetBool(effect.HasNormalMap, false)
	}
	normal, err := g.content.LoadTexture(g.cfg.Content.QuadNormalMap)
	if err != nil {
		return err
	}
	return errors.Join(
		g.quadEffect.SetTexture(effect.NormalMap, normal),
		g.quadEffect.SetBool(effect.HasNormalMap, true),
	)
}

func (g *Game) buildMaterial() (*scene.Material, error) {
	mc := g.cfg.Material
	shading, err := scene.ParseShadingMode(mc.Shading)
	if err != nil {
		return nil, err
	}
	m := &scene.Material{
		AmbientColor:      mc.AmbientColor.Core(),
		AmbientIntensity:  mc.AmbientIntensity,
		LightPosition:     mc.LightPosition.Mgl(),
		DiffuseColor:      mc.DiffuseColor.Core(),
		DiffuseIntensity:  mc.DiffuseIntensity,
		SpecularColor:     mc.SpecularColor.Core(),
		SpecularIntensity: mc.SpecularIntensity,
		SpecularPower:     mc.SpecularPower,
		Shading:           shading,
	}

	switch {
	case g.cfg.Content.MeshTexture != "":
		if m.DiffuseTexture, err = g.content.LoadTexture(g.cfg.Content.MeshTexture); err != nil {
			return nil, err
		}
	case g.mesh.Material != nil && g.mesh.Material.DiffuseMap != nil:
		m.DiffuseTexture = g.mesh.Material.DiffuseMap
	}
	return m, nil
}

// Update advances the animation to the absolute elapsed time total. The
// orbiting light goes straight into both effects; the material keeps its
// load-time light position.
func (g *Game) Update(total, dt time.Duration) error {
	g.timeStep = float32(dt.Seconds() * 60)
	g.frames.Update(dt)

	if !g.cfg.Orbit.Enabled {
		return nil
	}
	g.camera.Eye = g.orbit.Eye(total)
	light := g.orbit.Light(total)
	return errors.Join(
		g.simple.SetVector3(effect.LightPosition, light),
		g.quadEffect.SetVector3(effect.LightPosition, light),
	)
}

// Draw renders one frame to the back buffer.
func (g *Game) Draw() error {
	if err := g.pipeline.Draw(&g.scene); err != nil {
		return err
	}
	g.frames.Frame()
	return nil
}

// Resize follows a framebuffer size change.
func (g *Game) Resize(width, height int) error {
	if width == 0 || height == 0 {
		// Minimized.
		return nil
	}
	g.camera.UpdateAspectRatio(width, height)
	if err := g.pipeline.Resize(width, height); err != nil {
		return err
	}
	g.log.Info("framebuffer resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// TogglePostProcess switches between the two-pass and the direct render and
// reports the new state.
func (g *Game) TogglePostProcess() bool {
	on := !g.pipeline.PostProcess()
	g.pipeline.SetPostProcess(on)
	g.log.Info("post-processing toggled", zap.Bool("enabled", on))
	return on
}

// Screenshot writes the back buffer as a PNG into dir and returns its path.
func (g *Game) Screenshot(dir string, now time.Time) (string, error) {
	img, err := g.device.ReadPixels(nil)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	path := filepath.Join(dir, "screenshot-"+now.Format("20060102-150405.000")+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("screenshot: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	g.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

func (g *Game) Camera() *scene.Camera     { return g.camera }
func (g *Game) Material() *scene.Material { return g.material }
func (g *Game) Scene() *renderer.Scene    { return &g.scene }
func (g *Game) TimeStep() float32         { return g.timeStep }
func (g *Game) FrameRate() int            { return g.frames.FrameRate() }

// Title is the window title with the current frame rate.
func (g *Game) Title() string {
	return fmt.Sprintf("%s | FPS: %d", g.cfg.Window.Title, g.frames.FrameRate())
}

// Destroy releases the offscreen target.
func (g *Game) Destroy() {
	if g.pipeline != nil {
		g.pipeline.Destroy()
	}
}
