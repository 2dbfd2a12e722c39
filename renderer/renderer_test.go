package renderer_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/internal/devicetest"
	"render-demo/logger"
	"render-demo/renderer"
	"render-demo/scene"
)

func compiled(t *testing.T, dev *devicetest.Device, def effect.Definition) *effect.Effect {
	t.Helper()
	e := effect.New(def)
	require.NoError(t, dev.CompileEffect(e))
	return e
}

func testScene(t *testing.T, dev *devicetest.Device) *renderer.Scene {
	t.Helper()
	cam, err := scene.NewCamera(mgl32.Vec3{-100, 50, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)

	mesh := scene.CreateMeshFromData("teapot", []core.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
	}, []uint32{0, 1, 2})

	return &renderer.Scene{
		Camera:     cam,
		Quad:       scene.BuildQuad(scene.DefaultQuadConfig()),
		QuadEffect: compiled(t, dev, effect.Quad),
		Mesh:       mesh,
		MeshEffect: compiled(t, dev, effect.Simple),
		MeshWorld:  mgl32.Translate3D(0, 15, 0).Mul4(mgl32.Scale3D(10, 10, 10)),
	}
}

func newPipeline(t *testing.T, dev *devicetest.Device) *renderer.Pipeline {
	t.Helper()
	p, err := renderer.NewPipeline(dev, compiled(t, dev, effect.PostProcessing), renderer.DefaultOptions(), logger.Nop())
	require.NoError(t, err)
	return p
}

func TestNewPipelineCreatesTargetAtBackBufferSize(t *testing.T) {
	dev := devicetest.New(800, 600)
	p := newPipeline(t, dev)

	require.Len(t, dev.Targets, 1)
	w, h := p.Target().Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, renderer.Depth24, dev.Targets[0].Depth)
}

func TestNewPipelineRejectsEffectWithoutGamma(t *testing.T) {
	dev := devicetest.New(8, 8)
	_, err := renderer.NewPipeline(dev, compiled(t, dev, effect.Simple), renderer.DefaultOptions(), logger.Nop())
	assert.ErrorIs(t, err, effect.ErrUnknownParameter)
}

func TestNewPipelineTargetError(t *testing.T) {
	dev := devicetest.New(8, 8)
	dev.TargetErr = errors.New("out of memory")
	_, err := renderer.NewPipeline(dev, compiled(t, dev, effect.PostProcessing), renderer.DefaultOptions(), logger.Nop())
	assert.ErrorIs(t, err, dev.TargetErr)
}

func TestDrawOrder(t *testing.T) {
	dev := devicetest.New(32, 24)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	dev.Reset()

	require.NoError(t, p.Draw(s))

	assert.Equal(t, []string{
		"target", "state", "clear", "draw", "draw", "target", // offscreen pass
		"target", "clear", "state", "fullscreen", // composite
	}, dev.Ops())

	draws := dev.Draws()
	require.Len(t, draws, 3)

	assert.Equal(t, "target0", draws[0].Target)
	assert.Equal(t, effect.QuadName, draws[0].Effect)
	assert.Equal(t, "Quad", draws[0].Mesh)

	assert.Equal(t, "target0", draws[1].Target)
	assert.Equal(t, effect.SimpleName, draws[1].Effect)
	assert.Equal(t, "teapot", draws[1].Mesh)

	assert.Equal(t, "backbuffer", draws[2].Target)
	assert.Equal(t, effect.PostProcessingName, draws[2].Effect)
	assert.Equal(t, core.Rect{Width: 32, Height: 24}, draws[2].Rect)

	drawCalls, tris := p.Stats()
	assert.Equal(t, 3, drawCalls)
	assert.Equal(t, 3, tris)
}

func TestDrawClearsAndStates(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	dev.Reset()

	require.NoError(t, p.Draw(s))

	var clears []devicetest.Call
	var states []renderer.State
	for _, c := range dev.Calls {
		switch c.Op {
		case "clear":
			clears = append(clears, c)
		case "state":
			states = append(states, c.State)
		}
	}
	require.Len(t, clears, 2)
	assert.Equal(t, "target0", clears[0].Target)
	assert.Equal(t, core.ColorDeepSkyBlue, clears[0].Color)
	assert.Equal(t, renderer.ClearTarget|renderer.ClearDepth, clears[0].Clear)
	assert.Equal(t, "backbuffer", clears[1].Target)
	assert.Equal(t, core.ColorBlack, clears[1].Color)

	assert.Equal(t, []renderer.State{renderer.SceneState, renderer.CompositeState}, states)
	assert.Equal(t, renderer.SamplerLinearClamp, renderer.CompositeState.Sampler)
	assert.Equal(t, renderer.CullNone, renderer.SceneState.Cull)
}

func TestDrawFlushesWorldAndCamera(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	require.NoError(t, p.Draw(s))

	draws := dev.Draws()
	quad, mesh := draws[0].Parameters, draws[1].Parameters

	assert.Equal(t, s.Quad.Transform, quad[effect.World].Matrix)
	assert.Equal(t, s.MeshWorld, mesh[effect.World].Matrix)
	assert.True(t, mesh[effect.WorldIT].Matrix.ApproxEqualThreshold(s.MeshWorld.Inv().Transpose(), 1e-5))

	for _, params := range []map[string]effect.Value{quad, mesh} {
		assert.Equal(t, s.Camera.View(), params[effect.View].Matrix)
		assert.Equal(t, s.Camera.Projection(), params[effect.Projection].Matrix)
		assert.Equal(t, s.Camera.Eye, params[effect.Eye].Vector.Vec3())
	}
}

func TestOffscreenMatchesDirect(t *testing.T) {
	dev := devicetest.New(16, 12)
	p := newPipeline(t, dev)
	s := testScene(t, dev)

	require.NoError(t, p.DrawToTexture(s))
	offscreen, err := dev.ReadPixels(p.Target())
	require.NoError(t, err)

	require.NoError(t, p.DrawDirect(s))
	direct, err := dev.ReadPixels(nil)
	require.NoError(t, err)

	assert.Equal(t, direct.Pix, offscreen.Pix)
}

func TestCompositeIdentityGamma(t *testing.T) {
	dev := devicetest.New(16, 12)
	p := newPipeline(t, dev)
	s := testScene(t, dev)

	require.NoError(t, p.Draw(s))
	offscreen, err := dev.ReadPixels(p.Target())
	require.NoError(t, err)
	screen, err := dev.ReadPixels(nil)
	require.NoError(t, err)

	assert.Equal(t, offscreen.Pix, screen.Pix)
}

func TestCompositeAppliesGamma(t *testing.T) {
	dev := devicetest.New(2, 2)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	require.NoError(t, p.SetGamma(2.2))

	require.NoError(t, p.Draw(s))
	screen, err := dev.ReadPixels(nil)
	require.NoError(t, err)

	// Bottom-left pixel is the untouched DeepSkyBlue clear color.
	px := screen.RGBAAt(0, 1)
	assert.Equal(t, uint8(0), px.R)
	assert.Greater(t, px.G, core.ColorDeepSkyBlue.G)
	assert.Equal(t, uint8(255), px.B)

	draws := dev.Draws()
	assert.InDelta(t, 2.2, draws[len(draws)-1].Parameters[effect.Gamma].Float, 1e-6)
}

func TestDrawWithoutPostProcess(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	p.SetPostProcess(false)
	dev.Reset()

	require.NoError(t, p.Draw(s))
	for _, c := range dev.Draws() {
		assert.Equal(t, "backbuffer", c.Target)
		assert.NotEqual(t, "fullscreen", c.Op)
	}
	assert.False(t, p.PostProcess())
}

func TestDrawIncompleteScene(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	s.Mesh = nil

	assert.ErrorIs(t, p.Draw(s), renderer.ErrIncompleteScene)
	assert.ErrorIs(t, p.DrawDirect(nil), renderer.ErrIncompleteScene)
}

func TestDrawErrorRestoresBackBuffer(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	dev.DrawErr = errors.New("device lost")
	dev.Reset()

	err := p.DrawToTexture(s)
	assert.ErrorIs(t, err, dev.DrawErr)
	require.NotEmpty(t, dev.Calls)
	last := dev.Calls[len(dev.Calls)-1]
	assert.Equal(t, "target", last.Op)
	assert.Equal(t, "backbuffer", last.Target)
}

func TestMeshEffectIsChosenPerDraw(t *testing.T) {
	dev := devicetest.New(4, 4)
	p := newPipeline(t, dev)
	s := testScene(t, dev)
	s.MeshEffect = s.QuadEffect

	require.NoError(t, p.DrawDirect(s))
	draws := dev.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, effect.QuadName, draws[1].Effect)
	assert.Equal(t, "teapot", draws[1].Mesh)
}

func TestResize(t *testing.T) {
	dev := devicetest.New(8, 8)
	p := newPipeline(t, dev)

	require.NoError(t, p.Resize(8, 8))
	assert.Len(t, dev.Targets, 1)

	require.NoError(t, p.Resize(16, 4))
	require.Len(t, dev.Targets, 2)
	assert.True(t, dev.Targets[0].Released)
	w, h := p.Target().Size()
	assert.Equal(t, 16, w)
	assert.Equal(t, 4, h)

	assert.Error(t, p.Resize(0, 4))

	p.Destroy()
	assert.True(t, dev.Targets[1].Released)
	assert.Nil(t, p.Target())
}
