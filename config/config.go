// Package config holds the demo settings. Everything has a compiled-in
// default; a YAML file only needs the fields it changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"render-demo/core"
	"render-demo/scene"
)

// Mesh effect choices.
const (
	MeshEffectLit  = "lit"
	MeshEffectQuad = "quad"
)

// Vec3 is a YAML sequence of three numbers.
type Vec3 [3]float32

func (v Vec3) Mgl() mgl32.Vec3 { return mgl32.Vec3(v) }

// Color is a YAML sequence of four 0-255 channels.
type Color [4]uint8

func (c Color) Core() core.Color { return core.Color{R: c[0], G: c[1], B: c[2], A: c[3]} }

type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Content  ContentConfig  `yaml:"content"`
	Camera   CameraConfig   `yaml:"camera"`
	Material MaterialConfig `yaml:"material"`
	Scene    SceneConfig    `yaml:"scene"`
	Orbit    OrbitConfig    `yaml:"orbit"`
	Render   RenderConfig   `yaml:"render"`
}

type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	VSync      bool   `yaml:"vsync"`
	Resizable  bool   `yaml:"resizable"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// ContentConfig names the assets to load, relative to Root.
type ContentConfig struct {
	Root          string `yaml:"root"`
	Mesh          string `yaml:"mesh"`
	QuadTexture   string `yaml:"quad_texture"`
	QuadNormalMap string `yaml:"quad_normal_map"` // optional
	MeshTexture   string `yaml:"mesh_texture"`    // optional
}

type CameraConfig struct {
	Eye    Vec3 `yaml:"eye"`
	Target Vec3 `yaml:"target"`
	Up     Vec3 `yaml:"up"`
}

type MaterialConfig struct {
	AmbientColor      Color   `yaml:"ambient_color"`
	AmbientIntensity  float32 `yaml:"ambient_intensity"`
	DiffuseColor      Color   `yaml:"diffuse_color"`
	DiffuseIntensity  float32 `yaml:"diffuse_intensity"`
	SpecularColor     Color   `yaml:"specular_color"`
	SpecularIntensity float32 `yaml:"specular_intensity"`
	SpecularPower     float32 `yaml:"specular_power"`
	LightPosition     Vec3    `yaml:"light_position"`
	Shading           string  `yaml:"shading"`
}

type SceneConfig struct {
	MeshScale   float32 `yaml:"mesh_scale"`
	MeshOffset  Vec3    `yaml:"mesh_offset"`
	MeshEffect  string  `yaml:"mesh_effect"`
	QuadScale   float32 `yaml:"quad_scale"`
	QuadOffsetY float32 `yaml:"quad_offset_y"`
	QuadTiling  float32 `yaml:"quad_tiling"`
}

type OrbitConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Period       time.Duration `yaml:"period"`
	CameraRadius float32       `yaml:"camera_radius"`
	CameraHeight float32       `yaml:"camera_height"`
	LightRadius  float32       `yaml:"light_radius"`
	LightHeight  float32       `yaml:"light_height"`
}

type RenderConfig struct {
	Gamma         float32 `yaml:"gamma"`
	PostProcess   bool    `yaml:"post_process"`
	SceneClear    Color   `yaml:"scene_clear"`
	ScreenClear   Color   `yaml:"screen_clear"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

func Default() *Config {
	orbit := scene.DefaultOrbit()
	quad := scene.DefaultQuadConfig()
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "Renderer",
		},
		Content: ContentConfig{
			Root:          "Content",
			Mesh:          "Models/Teapot",
			QuadTexture:   "Textures/CobblestonesDiffuse",
			QuadNormalMap: "Normal Maps/CobblestonesNormal",
		},
		Camera: CameraConfig{
			Eye:    Vec3{0, 50, 100},
			Target: Vec3{0, 0, 0},
			Up:     Vec3{0, 1, 0},
		},
		Material: MaterialConfig{
			AmbientColor:      Color{255, 0, 0, 255},
			AmbientIntensity:  0.2,
			DiffuseColor:      Color{255, 0, 0, 255},
			DiffuseIntensity:  1.0,
			SpecularColor:     Color{255, 255, 255, 255},
			SpecularIntensity: 2.0,
			SpecularPower:     25,
			LightPosition:     Vec3{50, 50, 50},
			Shading:           scene.ShadingLit.String(),
		},
		Scene: SceneConfig{
			MeshScale:   10,
			MeshOffset:  Vec3{0, 15, 0},
			MeshEffect:  MeshEffectLit,
			QuadScale:   quad.Scale,
			QuadOffsetY: quad.OffsetY,
			QuadTiling:  quad.Tiling,
		},
		Orbit: OrbitConfig{
			Enabled:      true,
			Period:       orbit.Period,
			CameraRadius: orbit.CameraRadius,
			CameraHeight: orbit.CameraHeight,
			LightRadius:  orbit.LightRadius,
			LightHeight:  orbit.LightHeight,
		},
		Render: RenderConfig{
			Gamma:         1.0,
			PostProcess:   true,
			SceneClear:    Color{0, 191, 255, 255},
			ScreenClear:   Color{0, 0, 0, 255},
			ScreenshotDir: ".",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	return c.Validate()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	check(c.Content.Mesh != "", "content.mesh is required")
	check(c.Content.QuadTexture != "", "content.quad_texture is required")

	if _, err := scene.ParseShadingMode(c.Material.Shading); err != nil {
		errs = append(errs, err)
	}
	check(c.Material.SpecularPower > 0, "material.specular_power %v must be positive", c.Material.SpecularPower)
	check(c.Scene.MeshEffect == MeshEffectLit || c.Scene.MeshEffect == MeshEffectQuad,
		"scene.mesh_effect %q must be %q or %q", c.Scene.MeshEffect, MeshEffectLit, MeshEffectQuad)
	check(c.Scene.MeshScale > 0, "scene.mesh_scale %v must be positive", c.Scene.MeshScale)
	check(c.Scene.QuadScale > 0, "scene.quad_scale %v must be positive", c.Scene.QuadScale)
	check(c.Scene.QuadTiling > 0, "scene.quad_tiling %v must be positive", c.Scene.QuadTiling)
	check(!c.Orbit.Enabled || c.Orbit.Period > 0, "orbit.period %v must be positive", c.Orbit.Period)
	check(c.Render.Gamma > 0, "render.gamma %v must be positive", c.Render.Gamma)

	cam := scene.Camera{Eye: c.Camera.Eye.Mgl(), Target: c.Camera.Target.Mgl(), Up: c.Camera.Up.Mgl()}
	if err := cam.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}
	return errors.Join(errs...)
}

// OrbitPath converts the orbit settings.
func (c *Config) OrbitPath() scene.Orbit {
	return scene.Orbit{
		Period:       c.Orbit.Period,
		CameraRadius: c.Orbit.CameraRadius,
		CameraHeight: c.Orbit.CameraHeight,
		LightRadius:  c.Orbit.LightRadius,
		LightHeight:  c.Orbit.LightHeight,
	}
}

func (c *Config) QuadConfig() scene.QuadConfig {
	return scene.QuadConfig{Scale: c.Scene.QuadScale, OffsetY: c.Scene.QuadOffsetY, Tiling: c.Scene.QuadTiling}
}

// MeshWorld scales the mesh by mesh_scale, then moves it by mesh_offset.
func (c *Config) MeshWorld() mgl32.Mat4 {
	s := c.Scene.MeshScale
	o := c.Scene.MeshOffset
	return mgl32.Translate3D(o[0], o[1], o[2]).Mul4(mgl32.Scale3D(s, s, s))
}
