package content

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-demo/effect"
	"render-demo/internal/devicetest"
	"render-demo/logger"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
}

func newManager(t *testing.T) (*Manager, *devicetest.Device, string) {
	t.Helper()
	root := t.TempDir()
	dev := devicetest.New(4, 4)
	return NewManager(root, dev, logger.Nop()), dev, root
}

func TestLoadEffect(t *testing.T) {
	m, dev, _ := newManager(t)

	e, err := m.LoadEffect(effect.SimpleName)
	require.NoError(t, err)
	assert.Equal(t, "Simple", e.Technique())
	assert.NotNil(t, e.Program)

	again, err := m.LoadEffect(effect.SimpleName)
	require.NoError(t, err)
	assert.Same(t, e, again)
	assert.Equal(t, []string{effect.SimpleName}, dev.Compiled)

	_, err = m.LoadEffect("Effects/Bloom")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadTextureProbesExtensions(t *testing.T) {
	m, dev, root := newManager(t)
	writePNG(t, root, "Textures/Cobblestones.png", 8, 4)

	tex, err := m.LoadTexture("Textures/Cobblestones")
	require.NoError(t, err)
	assert.Equal(t, "Textures/Cobblestones", tex.Name)
	assert.Equal(t, 8, tex.Width)
	assert.Equal(t, 4, tex.Height)
	assert.NotZero(t, tex.GLID)

	byExt, err := m.LoadTexture("Textures/Cobblestones.png")
	require.NoError(t, err)
	assert.Equal(t, 8, byExt.Width)

	cached, err := m.LoadTexture("Textures/Cobblestones")
	require.NoError(t, err)
	assert.Same(t, tex, cached)
	assert.Len(t, dev.Uploaded, 2)
}

func TestLoadTextureMissing(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.LoadTexture("Textures/Nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "Textures/Nope")
}

func TestLoadTextureBuiltin(t *testing.T) {
	m, _, _ := newManager(t)
	tex, err := m.LoadTexture("Textures/Checker")
	require.NoError(t, err)
	assert.Equal(t, 256, tex.Width)
	assert.NotZero(t, tex.GLID)
}

func TestLoadMeshOBJ(t *testing.T) {
	m, _, root := newManager(t)
	writeFile(t, root, "Models/Tri.obj", []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))

	mesh, err := m.LoadMesh("Models/Tri")
	require.NoError(t, err)
	assert.Equal(t, 1, mesh.TriangleCount())

	cached, err := m.LoadMesh("Models/Tri")
	require.NoError(t, err)
	assert.Same(t, mesh, cached)
}

func TestLoadMeshUploadsMaterialTextures(t *testing.T) {
	m, dev, root := newManager(t)
	writeFile(t, root, "Models/Box.obj", []byte("mtllib box.mtl\nusemtl stone\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/1\n"))
	writeFile(t, root, "Models/box.mtl", []byte("newmtl stone\nKd 1 1 1\nmap_Kd stone.png\n"))
	writePNG(t, root, "Models/stone.png", 2, 2)

	mesh, err := m.LoadMesh("Models/Box")
	require.NoError(t, err)
	require.NotNil(t, mesh.Material)
	require.NotNil(t, mesh.Material.DiffuseMap)
	assert.NotZero(t, mesh.Material.DiffuseMap.GLID)
	assert.Len(t, dev.Uploaded, 1)
}

func TestLoadMeshBuiltin(t *testing.T) {
	m, _, _ := newManager(t)
	mesh, err := m.LoadMesh("Primitives/Sphere")
	require.NoError(t, err)
	assert.Equal(t, "Sphere", mesh.Name)
	assert.Positive(t, mesh.TriangleCount())

	_, err = m.LoadMesh("Primitives/Teapot")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileShadowsBuiltin(t *testing.T) {
	m, _, root := newManager(t)
	writeFile(t, root, "Primitives/Sphere.obj", []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))

	mesh, err := m.LoadMesh("Primitives/Sphere")
	require.NoError(t, err)
	assert.Equal(t, 1, mesh.TriangleCount())
}
