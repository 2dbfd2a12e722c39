// Package opengl is the OpenGL 4.1 core implementation of renderer.Device.
// All methods must be called from the goroutine that owns the GL context.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/renderer"
	"render-demo/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// Device drives the default framebuffer of the current GL context and any
// render targets created from it.
type Device struct {
	log *zap.Logger

	width, height int

	bound    *renderTarget
	state    renderer.State
	samplers [2]uint32 // indexed by renderer.SamplerState
	emptyVAO uint32    // full-screen triangle, positions from gl_VertexID

	gpuMeshes map[*scene.Mesh]*GPUMesh
	programs  []*program
	textures  []*scene.Texture
}

var _ renderer.Device = (*Device)(nil)

// NewDevice initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewDevice(width, height int, log *zap.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialised",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	d := &Device{
		log:       log,
		width:     width,
		height:    height,
		gpuMeshes: make(map[*scene.Mesh]*GPUMesh),
	}

	gl.GenSamplers(2, &d.samplers[0])
	wrap := d.samplers[renderer.SamplerLinearWrap]
	gl.SamplerParameteri(wrap, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.SamplerParameteri(wrap, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.SamplerParameteri(wrap, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.SamplerParameteri(wrap, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	clamp := d.samplers[renderer.SamplerLinearClamp]
	gl.SamplerParameteri(clamp, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.SamplerParameteri(clamp, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.SamplerParameteri(clamp, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.SamplerParameteri(clamp, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.GenVertexArrays(1, &d.emptyVAO)

	d.SetState(renderer.SceneState)
	d.SetRenderTarget(nil)
	return d, nil
}

// ── Back buffer ───────────────────────────────────────────────────────────────

func (d *Device) BackBufferSize() (int, int) { return d.width, d.height }

// SetBackBufferSize records a new framebuffer size after a window resize.
func (d *Device) SetBackBufferSize(width, height int) {
	d.width, d.height = width, height
	if d.bound == nil {
		gl.Viewport(0, 0, int32(width), int32(height))
	}
}

// SetRenderTarget binds t, or the default framebuffer when t is nil, and
// sets the viewport to cover it.
func (d *Device) SetRenderTarget(t renderer.RenderTarget) {
	if t == nil {
		d.bound = nil
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(d.width), int32(d.height))
		return
	}
	rt := t.(*renderTarget)
	d.bound = rt
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.Viewport(0, 0, rt.width, rt.height)
}

// ── Fixed-function state ──────────────────────────────────────────────────────

func (d *Device) SetState(s renderer.State) {
	d.state = s

	switch s.Blend {
	case renderer.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
	}

	switch s.Cull {
	case renderer.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	default:
		gl.Disable(gl.CULL_FACE)
	}

	switch s.Depth {
	case renderer.DepthDisabled:
		gl.Disable(gl.DEPTH_TEST)
		gl.DepthMask(false)
	default:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
		gl.DepthMask(true)
	}
}

func (d *Device) Clear(opts renderer.ClearOptions, c core.Color, depth float32) {
	var mask uint32
	if opts&renderer.ClearTarget != 0 {
		v := c.ToVec4()
		gl.ClearColor(v[0], v[1], v[2], v[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if opts&renderer.ClearDepth != 0 {
		// Depth writes must be on for the clear to reach the depth buffer.
		gl.DepthMask(true)
		gl.ClearDepthf(depth)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
	d.SetState(d.state)
}

// ── Draw calls ────────────────────────────────────────────────────────────────

// DrawIndexed draws mesh with e, uploading the mesh on first use.
func (d *Device) DrawIndexed(e *effect.Effect, mesh *scene.Mesh) error {
	gpu := d.ensureUploaded(mesh)
	if gpu == nil {
		return fmt.Errorf("mesh %q has no vertices", mesh.Name)
	}
	if err := d.apply(e, nil); err != nil {
		return err
	}

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
	return nil
}

// ReleaseMesh frees the GPU buffers of mesh.
func (d *Device) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := d.gpuMeshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(d.gpuMeshes, mesh)
	mesh.GPUData = nil
}

// Destroy frees every GL object the device created.
func (d *Device) Destroy() {
	for mesh := range d.gpuMeshes {
		d.ReleaseMesh(mesh)
	}
	for _, p := range d.programs {
		gl.DeleteProgram(p.id)
	}
	d.programs = nil
	for _, tex := range d.textures {
		DeleteTexture(tex)
	}
	d.textures = nil
	gl.DeleteSamplers(2, &d.samplers[0])
	gl.DeleteVertexArrays(1, &d.emptyVAO)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (d *Device) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := d.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.TexCoord)},
		{3, unsafe.Offsetof(v.Tangent)},
		{3, unsafe.Offsetof(v.Bitangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	d.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
