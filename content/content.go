// Package content resolves asset names such as "Models/Teapot" or
// "Textures/CobblestonesDiffuse" to loaded, GPU-ready resources. Loads are
// cached by name, so asking twice returns the same instance.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"render-demo/core"
	"render-demo/effect"
	"render-demo/scene"
)

// ErrNotFound is returned when no file or built-in matches an asset name.
var ErrNotFound = errors.New("content not found")

var (
	textureExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}
	meshExts    = []string{".obj", ".glb", ".gltf"}
)

// Built-in assets are used when no file under the root matches the name.
var (
	builtinMeshes = map[string]func() *scene.Mesh{
		"Primitives/Sphere":   func() *scene.Mesh { return scene.CreateSphere(1, 32, 16) },
		"Primitives/Torus":    func() *scene.Mesh { return scene.CreateTorus(1, 0.35, 48, 16) },
		"Primitives/Cylinder": func() *scene.Mesh { return scene.CreateCylinder(1, 2, 32) },
	}
	builtinTextures = map[string]func() *scene.Texture{
		"Textures/Checker": func() *scene.Texture {
			return scene.NewCheckerTexture("Textures/Checker", 256, core.NewColor(90, 90, 90), core.NewColor(170, 170, 170))
		},
		"Textures/White": func() *scene.Texture { return scene.NewSolidTexture("Textures/White", 255, 255, 255, 255) },
	}
)

// Backend creates the GPU side of loaded assets.
type Backend interface {
	CompileEffect(e *effect.Effect) error
	UploadTexture(tex *scene.Texture) error
}

type Manager struct {
	root    string
	backend Backend
	log     *zap.Logger

	effects  map[string]*effect.Effect
	textures map[string]*scene.Texture
	meshes   map[string]*scene.Mesh
}

func NewManager(root string, backend Backend, log *zap.Logger) *Manager {
	return &Manager{
		root:     root,
		backend:  backend,
		log:      log,
		effects:  make(map[string]*effect.Effect),
		textures: make(map[string]*scene.Texture),
		meshes:   make(map[string]*scene.Mesh),
	}
}

func (m *Manager) Root() string { return m.root }

// LoadEffect compiles a built-in effect by asset name.
func (m *Manager) LoadEffect(name string) (*effect.Effect, error) {
	if e, ok := m.effects[name]; ok {
		return e, nil
	}
	def, ok := effect.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("effect %q: %w", name, ErrNotFound)
	}
	e := effect.New(def)
	if err := m.backend.CompileEffect(e); err != nil {
		return nil, fmt.Errorf("compile effect %q: %w", name, err)
	}
	m.effects[name] = e
	m.log.Debug("loaded effect", zap.String("name", name), zap.String("technique", def.Technique))
	return e, nil
}

// LoadTexture decodes and uploads the image file matching name, falling back
// to a built-in texture of that name.
func (m *Manager) LoadTexture(name string) (*scene.Texture, error) {
	if tex, ok := m.textures[name]; ok {
		return tex, nil
	}
	var tex *scene.Texture
	path, err := m.resolve(name, textureExts)
	switch {
	case err == nil:
		if tex, err = scene.LoadTexture(path); err != nil {
			return nil, err
		}
		tex.Name = name
	case builtinTextures[name] != nil:
		tex, path = builtinTextures[name](), "builtin"
	default:
		return nil, err
	}
	if err := m.backend.UploadTexture(tex); err != nil {
		return nil, fmt.Errorf("upload texture %q: %w", name, err)
	}
	m.textures[name] = tex
	m.log.Debug("loaded texture", zap.String("name", name), zap.String("path", path),
		zap.Int("width", tex.Width), zap.Int("height", tex.Height))
	return tex, nil
}

// LoadMesh imports the OBJ or glTF file matching name and uploads any
// textures its material references. Names under Primitives/ that have no
// file are generated.
func (m *Manager) LoadMesh(name string) (*scene.Mesh, error) {
	if mesh, ok := m.meshes[name]; ok {
		return mesh, nil
	}
	path, err := m.resolve(name, meshExts)
	if err != nil {
		build, ok := builtinMeshes[name]
		if !ok {
			return nil, err
		}
		mesh := build()
		m.meshes[name] = mesh
		m.log.Debug("loaded built-in mesh", zap.String("name", name), zap.Int("triangles", mesh.TriangleCount()))
		return mesh, nil
	}

	var mesh *scene.Mesh
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		mesh, err = scene.LoadOBJ(path)
	default:
		mesh, err = scene.LoadGLTF(path)
	}
	if err != nil {
		return nil, err
	}

	if mat := mesh.Material; mat != nil {
		for _, tex := range []*scene.Texture{mat.DiffuseMap, mat.NormalMap} {
			if tex == nil {
				continue
			}
			if err := m.backend.UploadTexture(tex); err != nil {
				return nil, fmt.Errorf("mesh %q: upload texture %q: %w", name, tex.Name, err)
			}
		}
	}

	m.meshes[name] = mesh
	m.log.Debug("loaded mesh", zap.String("name", name), zap.String("path", path),
		zap.Int("vertices", len(mesh.Vertices)), zap.Int("triangles", mesh.TriangleCount()))
	return mesh, nil
}

// resolve finds the file for an asset name. A name that already carries one
// of the allowed extensions is used as is.
func (m *Manager) resolve(name string, exts []string) (string, error) {
	base := filepath.Join(m.root, filepath.FromSlash(name))

	candidates := make([]string, 0, len(exts)+1)
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range exts {
		if ext == e {
			candidates = append(candidates, base)
			break
		}
	}
	for _, e := range exts {
		candidates = append(candidates, base+e)
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%q under %q (tried %s): %w", name, m.root, strings.Join(exts, ", "), ErrNotFound)
}
