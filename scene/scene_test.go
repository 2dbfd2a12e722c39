package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-demo/core"
	"render-demo/effect"
)

// recorder captures every parameter write in order.
type recorder struct {
	names  []string
	values map[string]effect.Value
}

func newRecorder() *recorder {
	return &recorder{values: map[string]effect.Value{}}
}

func (r *recorder) put(name string, v effect.Value) error {
	r.names = append(r.names, name)
	r.values[name] = v
	return nil
}

func (r *recorder) SetMatrix(name string, m mgl32.Mat4) error {
	return r.put(name, effect.Value{Kind: effect.KindMatrix, Matrix: m})
}
func (r *recorder) SetVector3(name string, v mgl32.Vec3) error {
	return r.put(name, effect.Value{Kind: effect.KindVector3, Vector: v.Vec4(0)})
}
func (r *recorder) SetVector4(name string, v mgl32.Vec4) error {
	return r.put(name, effect.Value{Kind: effect.KindVector4, Vector: v})
}
func (r *recorder) SetFloat(name string, f float32) error {
	return r.put(name, effect.Value{Kind: effect.KindFloat, Float: f})
}
func (r *recorder) SetBool(name string, b bool) error {
	return r.put(name, effect.Value{Kind: effect.KindBool, Bool: b})
}
func (r *recorder) SetTexture(name string, t effect.Texture) error {
	return r.put(name, effect.Value{Kind: effect.KindTexture, Texture: t})
}

func vecApprox(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-4), "expected %v, got %v", want, got)
}

// ── Camera ───────────────────────────────────────────────────────────────────

func TestCameraLookAtMapsEyeToOrigin(t *testing.T) {
	cam, err := NewCamera(mgl32.Vec3{0, 50, 100}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)

	view := cam.View()
	eyeInView := mgl32.TransformCoordinate(cam.Eye, view)
	vecApprox(t, mgl32.Vec3{}, eyeInView)

	// The target lies straight ahead on -Z at the eye distance.
	dist := cam.Eye.Len()
	targetInView := mgl32.TransformCoordinate(cam.Target, view)
	vecApprox(t, mgl32.Vec3{0, 0, -dist}, targetInView)

	// The inverse view maps the view-space origin back onto the eye.
	vecApprox(t, cam.Eye, mgl32.TransformCoordinate(mgl32.Vec3{}, view.Inv()))
}

func TestCameraRejectsParallelUp(t *testing.T) {
	_, err := NewCamera(mgl32.Vec3{0, 50, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.ErrorIs(t, err, ErrDegenerateCamera)

	_, err = NewCamera(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0})
	assert.ErrorIs(t, err, ErrDegenerateCamera)
}

func TestCameraSetEffectParameters(t *testing.T) {
	cam, err := NewCamera(mgl32.Vec3{0, 50, 100}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)
	cam.UpdateAspectRatio(800, 600)

	rec := newRecorder()
	require.NoError(t, cam.SetEffectParameters(rec))
	assert.Equal(t, []string{effect.Eye, effect.View, effect.Projection}, rec.names)
	assert.Equal(t, cam.View(), rec.values[effect.View].Matrix)
	assert.Equal(t, cam.Projection(), rec.values[effect.Projection].Matrix)
	assert.Equal(t, cam.Eye, rec.values[effect.Eye].Vector.Vec3())
}

func TestCameraIntoEffect(t *testing.T) {
	cam, err := NewCamera(mgl32.Vec3{0, 50, 100}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)

	require.NoError(t, cam.SetEffectParameters(effect.New(effect.Quad)))
	// The post-process effect has no camera slots.
	assert.ErrorIs(t, cam.SetEffectParameters(effect.New(effect.PostProcessing)), effect.ErrUnknownParameter)
}

func TestCameraProjectionAspect(t *testing.T) {
	cam, err := NewCamera(mgl32.Vec3{0, 50, 100}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)
	cam.UpdateAspectRatio(800, 600)

	p := cam.Projection()
	f := float32(1 / math.Tan(DefaultFOV/2))
	assert.InDelta(t, f, p.At(1, 1), 1e-5)
	assert.InDelta(t, f/(800.0/600.0), p.At(0, 0), 1e-5)

	cam.UpdateAspectRatio(800, 0)
	assert.InDelta(t, 800.0/600.0, cam.AspectRatio, 1e-6)
}

// ── Material ─────────────────────────────────────────────────────────────────

func demoMaterial() *Material {
	return &Material{
		AmbientColor:      core.ColorRed,
		AmbientIntensity:  0.2,
		LightPosition:     mgl32.Vec3{50, 50, 50},
		DiffuseColor:      core.ColorRed,
		DiffuseIntensity:  1,
		SpecularColor:     core.ColorWhite,
		SpecularIntensity: 2,
		SpecularPower:     25,
	}
}

func TestMaterialWritesTenFields(t *testing.T) {
	rec := newRecorder()
	require.NoError(t, demoMaterial().SetEffectParameters(rec))

	want := []string{
		effect.AmbientColor, effect.AmbientIntensity,
		effect.LightPosition, effect.DiffuseColor, effect.DiffuseIntensity,
		effect.SpecularColor, effect.SpecularIntensity, effect.SpecularPower,
		effect.NormalColoring, effect.ProceduralColoring,
	}
	assert.Equal(t, want, rec.names)
	assert.Len(t, rec.values, 10)

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, rec.values[effect.AmbientColor].Vector)
	assert.Equal(t, float32(0.2), rec.values[effect.AmbientIntensity].Float)
	assert.Equal(t, mgl32.Vec3{50, 50, 50}, rec.values[effect.LightPosition].Vector.Vec3())
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, rec.values[effect.SpecularColor].Vector)
	assert.Equal(t, float32(2), rec.values[effect.SpecularIntensity].Float)
	assert.Equal(t, float32(25), rec.values[effect.SpecularPower].Float)
	assert.False(t, rec.values[effect.NormalColoring].Bool)
	assert.False(t, rec.values[effect.ProceduralColoring].Bool)
}

func TestMaterialShadingModesAreExclusive(t *testing.T) {
	cases := []struct {
		mode             ShadingMode
		normal, procedur bool
	}{
		{ShadingLit, false, false},
		{ShadingNormalColor, true, false},
		{ShadingProcedural, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			m := demoMaterial()
			m.Shading = tc.mode
			rec := newRecorder()
			require.NoError(t, m.SetEffectParameters(rec))
			assert.Equal(t, tc.normal, rec.values[effect.NormalColoring].Bool)
			assert.Equal(t, tc.procedur, rec.values[effect.ProceduralColoring].Bool)
		})
	}
}

func TestMaterialIntoSimpleEffect(t *testing.T) {
	e := effect.New(effect.Simple)
	require.NoError(t, demoMaterial().SetEffectParameters(e))
	assert.Len(t, e.Names(), 10)

	// The quad effect does not declare the Phong slots.
	err := demoMaterial().SetEffectParameters(effect.New(effect.Quad))
	assert.ErrorIs(t, err, effect.ErrUnknownParameter)
}

func TestMaterialTextureParameters(t *testing.T) {
	m := demoMaterial()
	rec := newRecorder()
	require.NoError(t, m.SetTextureParameters(rec))
	assert.Equal(t, []string{effect.HasTexture}, rec.names)
	assert.False(t, rec.values[effect.HasTexture].Bool)

	m.DiffuseTexture = NewSolidTexture("white", 255, 255, 255, 255)
	rec = newRecorder()
	require.NoError(t, m.SetTextureParameters(rec))
	assert.True(t, rec.values[effect.HasTexture].Bool)
	assert.Same(t, m.DiffuseTexture, rec.values[effect.DiffuseTexture].Texture)
}

func TestParseShadingMode(t *testing.T) {
	for _, mode := range []ShadingMode{ShadingLit, ShadingNormalColor, ShadingProcedural} {
		got, err := ParseShadingMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseShadingMode("both")
	assert.Error(t, err)
}

// ── Quad ─────────────────────────────────────────────────────────────────────

func TestBuildQuad(t *testing.T) {
	q := BuildQuad(DefaultQuadConfig())

	require.Len(t, q.Mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 1, 2, 3}, q.Mesh.Indices)
	assert.Equal(t, 2, q.Mesh.TriangleCount())
	for _, idx := range q.Mesh.Indices {
		assert.Less(t, idx, uint32(4))
	}

	wantPos := []mgl32.Vec3{{-1, 0, -1}, {1, 0, -1}, {-1, 0, 1}, {1, 0, 1}}
	wantUV := []mgl32.Vec2{{0, 0}, {3, 0}, {0, 3}, {3, 3}}
	for i, v := range q.Mesh.Vertices {
		assert.Equal(t, wantPos[i], v.Position)
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, v.Normal)
		assert.Equal(t, wantUV[i], v.TexCoord)
		vecApprox(t, mgl32.Vec3{1, 0, 0}, v.Tangent)
		vecApprox(t, mgl32.Vec3{0, 0, 1}, v.Bitangent)
	}

	assert.Equal(t, mgl32.Scale3D(50, 50, 50), q.Transform)
}

func TestBuildQuadIsDeterministic(t *testing.T) {
	cfg := QuadConfig{Scale: 20, OffsetY: -0.5, Tiling: 4}
	a := BuildQuad(cfg)
	b := BuildQuad(cfg)
	assert.Equal(t, a.Mesh.Vertices, b.Mesh.Vertices)
	assert.Equal(t, a.Mesh.Indices, b.Mesh.Indices)
	assert.Equal(t, a.Transform, b.Transform)

	for _, v := range a.Mesh.Vertices {
		assert.Equal(t, float32(-0.5), v.Position.Y())
	}

	// Mutating one quad's index slice must not leak into the next.
	a.Mesh.Indices[0] = 3
	assert.Equal(t, uint32(0), BuildQuad(cfg).Mesh.Indices[0])
}

// ── Orbit ────────────────────────────────────────────────────────────────────

func TestOrbitAtZero(t *testing.T) {
	o := DefaultOrbit()
	vecApprox(t, mgl32.Vec3{-100, 50, 0}, o.Eye(0))
	vecApprox(t, mgl32.Vec3{50, 50, 0}, o.Light(0))
}

func TestOrbitQuarterAndPeriodic(t *testing.T) {
	o := DefaultOrbit()
	vecApprox(t, mgl32.Vec3{0, 50, 100}, o.Eye(2*time.Second))
	vecApprox(t, mgl32.Vec3{0, 50, 50}, o.Light(2*time.Second))

	for _, ts := range []time.Duration{0, 1234 * time.Millisecond, 5 * time.Second} {
		assert.Equal(t, o.Eye(ts), o.Eye(ts), "deterministic")
		vecApprox(t, o.Eye(ts), o.Eye(ts+o.Period))
		vecApprox(t, o.Light(ts), o.Light(ts+3*o.Period))
	}
}

func TestOrbitZeroPeriod(t *testing.T) {
	o := DefaultOrbit()
	o.Period = 0
	assert.Equal(t, 0.0, o.Angle(time.Hour))
}

// ── Mesh import ──────────────────────────────────────────────────────────────

const cubeFaceOBJ = `
# one quad face, no normals
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 4/4 3/3 2/2
`

func TestParseOBJTriangulatesAndGeneratesNormals(t *testing.T) {
	mesh, _, err := parseOBJ("face", strings.NewReader(cubeFaceOBJ))
	require.NoError(t, err)

	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
	for _, v := range mesh.Vertices {
		vecApprox(t, mgl32.Vec3{0, 1, 0}, v.Normal)
	}

	min, max := mesh.Bounds()
	assert.Equal(t, mgl32.Vec3{-1, 0, -1}, min)
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, max)
}

func TestParseOBJNegativeIndicesAndNormals(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
f -3//-1 -2//-1 -1//-1
`
	mesh, _, err := parseOBJ("tri", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, mesh.Vertices[1].Position)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, mesh.Vertices[2].Normal)
}

func TestParseOBJErrors(t *testing.T) {
	_, _, err := parseOBJ("empty", strings.NewReader("# nothing\n"))
	assert.Error(t, err)

	_, _, err = parseOBJ("bad", strings.NewReader("v 1 2\n"))
	assert.ErrorContains(t, err, "line 1")

	_, _, err = parseOBJ("zero", strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"))
	assert.Error(t, err)
}

func TestLoadOBJWithMTL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teapot.mtl"), []byte("newmtl red\nKd 1 0 0\nNs 25\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teapot.obj"), []byte("mtllib teapot.mtl\nusemtl red\n"+cubeFaceOBJ), 0o644))

	mesh, err := LoadOBJ(filepath.Join(dir, "teapot.obj"))
	require.NoError(t, err)
	assert.Equal(t, "teapot", mesh.Name)
	require.NotNil(t, mesh.Material)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, mesh.Material.DiffuseColor)
	assert.Equal(t, float32(25), mesh.Material.SpecularPower)
}

func TestLoadOBJMissing(t *testing.T) {
	_, err := LoadOBJ(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadGLTF(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

// ── Textures ─────────────────────────────────────────────────────────────────

func TestDecodeTextureConvertsToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(1, 0, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	tex, err := DecodeTexture("pair", &buf)
	require.NoError(t, err)
	w, h := tex.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, tex.Pixels)
}

func TestLoadTextureFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	tex, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Len(t, tex.Pixels, 4*4*4)

	_, err = LoadTexture(filepath.Join(t.TempDir(), "none.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
