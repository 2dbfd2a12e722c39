// Package devicetest provides an in-memory renderer.Device that records
// every call and rasterizes nothing. Draw calls stamp a deterministic pixel
// into the bound target, so tests can compare what two passes produced.
package devicetest

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"math"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/renderer"
	"render-demo/scene"
)

// Call is one recorded device operation.
type Call struct {
	Op     string // "target", "state", "clear", "draw", "fullscreen"
	Target string // bound target name, "backbuffer" for nil
	Effect string
	Mesh   string
	State  renderer.State
	Clear  renderer.ClearOptions
	Color  core.Color
	Rect   core.Rect

	// Parameters holds a copy of the effect's values at draw time.
	Parameters map[string]effect.Value
}

// Target is an offscreen render target backed by an image.
type Target struct {
	Name     string
	Depth    renderer.DepthFormat
	Image    *image.RGBA
	Released bool
}

func (t *Target) Size() (int, int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

type Device struct {
	Width, Height int

	Calls    []Call
	Targets  []*Target
	Compiled []string
	Uploaded []string

	// DrawErr, when set, is returned from DrawIndexed and DrawFullscreen.
	DrawErr error
	// TargetErr, when set, is returned from CreateRenderTarget.
	TargetErr error

	back    *image.RGBA
	bound   *Target
	nextTex uint32
	stamp   map[*image.RGBA]int
}

var (
	_ renderer.Device = (*Device)(nil)
)

func New(width, height int) *Device {
	return &Device{
		Width:  width,
		Height: height,
		back:   image.NewRGBA(image.Rect(0, 0, width, height)),
		stamp:  make(map[*image.RGBA]int),
	}
}

// BackBuffer returns the image the back buffer draws into.
func (d *Device) BackBuffer() *image.RGBA { return d.back }

// Resize changes the back buffer size, as a window resize would.
func (d *Device) Resize(width, height int) {
	d.Width, d.Height = width, height
	d.back = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Reset forgets the recorded calls.
func (d *Device) Reset() { d.Calls = nil }

// Ops returns the recorded operation names in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Draws returns only the draw and fullscreen calls.
func (d *Device) Draws() []Call {
	var out []Call
	for _, c := range d.Calls {
		if c.Op == "draw" || c.Op == "fullscreen" {
			out = append(out, c)
		}
	}
	return out
}

func (d *Device) BackBufferSize() (int, int) { return d.Width, d.Height }

func (d *Device) CreateRenderTarget(width, height int, depth renderer.DepthFormat) (renderer.RenderTarget, error) {
	if d.TargetErr != nil {
		return nil, d.TargetErr
	}
	t := &Target{
		Name:  fmt.Sprintf("target%d", len(d.Targets)),
		Depth: depth,
		Image: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	d.Targets = append(d.Targets, t)
	return t, nil
}

func (d *Device) ReleaseRenderTarget(t renderer.RenderTarget) {
	if ft, ok := t.(*Target); ok {
		ft.Released = true
	}
}

func (d *Device) SetRenderTarget(t renderer.RenderTarget) {
	d.bound = nil
	if t != nil {
		d.bound = t.(*Target)
	}
	d.record(Call{Op: "target"})
}

func (d *Device) SetState(s renderer.State) {
	d.record(Call{Op: "state", State: s})
}

func (d *Device) Clear(opts renderer.ClearOptions, c core.Color, depth float32) {
	d.record(Call{Op: "clear", Clear: opts, Color: c})
	if opts&renderer.ClearTarget == 0 {
		return
	}
	img := d.current()
	fill := color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	d.stamp[img] = 0
}

// DrawIndexed stamps one pixel per draw, left to right along the top row,
// colored by a hash of the effect, mesh and effect parameters.
func (d *Device) DrawIndexed(e *effect.Effect, mesh *scene.Mesh) error {
	if d.DrawErr != nil {
		return d.DrawErr
	}
	if e.Program == nil {
		return fmt.Errorf("effect %q was not compiled", e.Name())
	}
	if len(mesh.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: %d indices is not a triangle list", mesh.Name, len(mesh.Indices))
	}
	d.record(Call{Op: "draw", Effect: e.Name(), Mesh: mesh.Name, Parameters: snapshot(e)})

	img := d.current()
	x := d.stamp[img]
	if x < img.Bounds().Dx() && img.Bounds().Dy() > 0 {
		img.SetRGBA(x, 0, fingerprint(e, mesh))
	}
	d.stamp[img] = x + 1
	return nil
}

// DrawFullscreen copies src into dst with nearest sampling and applies the
// effect's gamma to the color channels.
func (d *Device) DrawFullscreen(e *effect.Effect, src renderer.RenderTarget, dst core.Rect) error {
	if d.DrawErr != nil {
		return d.DrawErr
	}
	st, ok := src.(*Target)
	if !ok || st == nil {
		return fmt.Errorf("fullscreen source is not a render target")
	}
	d.record(Call{Op: "fullscreen", Effect: e.Name(), Rect: dst, Parameters: snapshot(e)})

	gamma := float32(1)
	if v, ok := e.Get(effect.Gamma); ok && v.Float > 0 {
		gamma = v.Float
	}
	img := d.current()
	sw, sh := st.Size()
	if dst.Empty() || sw == 0 || sh == 0 {
		return nil
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			c := st.Image.RGBAAt(x*sw/dst.Width, y*sh/dst.Height)
			img.SetRGBA(dst.X+x, dst.Y+y, color.RGBA{
				R: applyGamma(c.R, gamma),
				G: applyGamma(c.G, gamma),
				B: applyGamma(c.B, gamma),
				A: c.A,
			})
		}
	}
	return nil
}

func (d *Device) ReadPixels(t renderer.RenderTarget) (*image.RGBA, error) {
	src := d.back
	if t != nil {
		ft, ok := t.(*Target)
		if !ok {
			return nil, fmt.Errorf("unknown render target %T", t)
		}
		if ft.Released {
			return nil, fmt.Errorf("render target %s was released", ft.Name)
		}
		src = ft.Image
	}
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out, nil
}

// CompileEffect satisfies content.Backend.
func (d *Device) CompileEffect(e *effect.Effect) error {
	e.Program = "devicetest:" + e.Name()
	d.Compiled = append(d.Compiled, e.Name())
	return nil
}

// UploadTexture satisfies content.Backend.
func (d *Device) UploadTexture(tex *scene.Texture) error {
	if tex.GLID != 0 {
		return nil
	}
	d.nextTex++
	tex.GLID = d.nextTex
	d.Uploaded = append(d.Uploaded, tex.Name)
	return nil
}

func (d *Device) current() *image.RGBA {
	if d.bound != nil {
		return d.bound.Image
	}
	return d.back
}

func (d *Device) record(c Call) {
	c.Target = "backbuffer"
	if d.bound != nil {
		c.Target = d.bound.Name
	}
	d.Calls = append(d.Calls, c)
}

func snapshot(e *effect.Effect) map[string]effect.Value {
	out := make(map[string]effect.Value)
	for _, name := range e.Names() {
		v, _ := e.Get(name)
		out[name] = v
	}
	return out
}

func fingerprint(e *effect.Effect, mesh *scene.Mesh) color.RGBA {
	h := fnv.New32a()
	fmt.Fprint(h, e.Name(), mesh.Name, len(mesh.Indices))
	for _, name := range e.Names() {
		v, _ := e.Get(name)
		fmt.Fprint(h, name, v.Matrix, v.Vector, v.Float, v.Bool)
	}
	s := h.Sum32()
	return color.RGBA{R: uint8(s), G: uint8(s >> 8), B: uint8(s >> 16), A: 255}
}

func applyGamma(c uint8, gamma float32) uint8 {
	if gamma == 1 {
		return c
	}
	v := math.Pow(float64(c)/255, 1/float64(gamma))
	return uint8(math.Round(v * 255))
}
