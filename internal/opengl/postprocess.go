package opengl

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/renderer"
)

// renderTarget is an FBO with an RGBA8 color texture and an optional
// 24-bit depth renderbuffer.
type renderTarget struct {
	fbo      uint32
	colorTex uint32
	depthRB  uint32
	width    int32
	height   int32
}

func (t *renderTarget) Size() (int, int) { return int(t.width), int(t.height) }

// ── Render target lifecycle ───────────────────────────────────────────────────

func (d *Device) CreateRenderTarget(width, height int, depth renderer.DepthFormat) (renderer.RenderTarget, error) {
	t := &renderTarget{width: int32(width), height: int32(height)}

	gl.GenTextures(1, &t.colorTex)
	gl.BindTexture(gl.TEXTURE_2D, t.colorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		t.width, t.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, t.colorTex, 0)

	if depth == renderer.Depth24 {
		gl.GenRenderbuffers(1, &t.depthRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRB)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.width, t.height)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
			gl.RENDERBUFFER, t.depthRB)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	d.rebind()
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.ReleaseRenderTarget(t)
		return nil, fmt.Errorf("framebuffer incomplete (0x%X)", status)
	}

	d.log.Debug("render target allocated",
		zap.Int("width", width), zap.Int("height", height), zap.Bool("depth", depth == renderer.Depth24))
	return t, nil
}

func (d *Device) ReleaseRenderTarget(rt renderer.RenderTarget) {
	t, ok := rt.(*renderTarget)
	if !ok || t == nil {
		return
	}
	if d.bound == t {
		d.SetRenderTarget(nil)
	}
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.colorTex != 0 {
		gl.DeleteTextures(1, &t.colorTex)
		t.colorTex = 0
	}
	if t.depthRB != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRB)
		t.depthRB = 0
	}
}

// rebind restores the framebuffer binding the device believes is current.
func (d *Device) rebind() {
	if d.bound != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, d.bound.fbo)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ── Full-screen composite ─────────────────────────────────────────────────────

// DrawFullscreen draws src over dst in the bound framebuffer through e.
// dst uses top-left origin like the rest of the renderer.
func (d *Device) DrawFullscreen(e *effect.Effect, src renderer.RenderTarget, dst core.Rect) error {
	t, ok := src.(*renderTarget)
	if !ok || t == nil || t.colorTex == 0 {
		return fmt.Errorf("fullscreen source is not a live render target")
	}
	if d.bound == t {
		return fmt.Errorf("render target is both source and destination")
	}
	if err := d.apply(e, map[string]effect.Texture{sceneSampler: t}); err != nil {
		return err
	}

	_, fbH := d.boundSize()
	gl.Viewport(int32(dst.X), int32(fbH-dst.Y-dst.Height), int32(dst.Width), int32(dst.Height))

	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	w, h := d.boundSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	return nil
}

func (d *Device) boundSize() (int, int) {
	if d.bound != nil {
		return d.bound.Size()
	}
	return d.width, d.height
}

// ── Readback ──────────────────────────────────────────────────────────────────

// ReadPixels reads t (nil = back buffer) into an image with the top row first.
func (d *Device) ReadPixels(rt renderer.RenderTarget) (*image.RGBA, error) {
	w, h := d.width, d.height
	var fbo uint32
	if rt != nil {
		t, ok := rt.(*renderTarget)
		if !ok || t.fbo == 0 {
			return nil, fmt.Errorf("cannot read from %T", rt)
		}
		fbo = t.fbo
		w, h = t.Size()
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("framebuffer size %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	d.rebind()

	// GL rows run bottom to top.
	stride := img.Stride
	row := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
	return img, nil
}
