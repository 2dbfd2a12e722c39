package scene

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"render-demo/core"
)

// LoadGLTF opens a .glb or .gltf file and returns its first mesh primitive.
// The base color factor and texture, and the normal texture, become the
// mesh's imported material.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return nil, fmt.Errorf("gltf %q: no mesh primitives", path)
	}

	gm := doc.Meshes[0]
	prim := gm.Primitives[0]
	name := gm.Name
	if name == "" {
		name = filepath.Base(path)
	}

	mesh, err := loadGLTFPrimitive(doc, name, prim)
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}
	ComputeTangents(mesh)

	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		mat, err := loadGLTFMaterial(doc, filepath.Dir(path), doc.Materials[*prim.Material])
		if err != nil {
			return nil, fmt.Errorf("gltf %q: %w", path, err)
		}
		mesh.Material = mat
	}
	return mesh, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, name string, prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.TexCoord = mgl32.Vec2(uvs[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(verts))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(normals) == 0 {
		generateSmoothNormals(verts, indices)
	}

	return CreateMeshFromData(name, verts, indices), nil
}

func loadGLTFMaterial(doc *gltf.Document, dir string, gm *gltf.Material) (*ImportedMaterial, error) {
	mat := &ImportedMaterial{
		Name:          gm.Name,
		DiffuseColor:  mgl32.Vec4{1, 1, 1, 1},
		SpecularPower: 32,
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.DiffuseColor = mgl32.Vec4{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}

		// Smooth surfaces get a tight highlight.
		roughness := float32(pbr.RoughnessFactorOrDefault())
		mat.SpecularPower = (1-roughness)*(1-roughness)*128 + 1

		if pbr.BaseColorTexture != nil {
			tex, err := loadGLTFTexture(doc, dir, pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("base color texture: %w", err)
			}
			mat.DiffuseMap = tex
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		tex, err := loadGLTFTexture(doc, dir, *gm.NormalTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("normal texture: %w", err)
		}
		mat.NormalMap = tex
	}
	return mat, nil
}

func loadGLTFTexture(doc *gltf.Document, dir string, index int) (*Texture, error) {
	if index < 0 || index >= len(doc.Textures) || doc.Textures[index].Source == nil {
		return nil, fmt.Errorf("texture %d has no image", index)
	}
	src := *doc.Textures[index].Source
	img := doc.Images[src]

	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", src)
	}

	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("image %d bufferview: %w", src, err)
		}
		return decodeImageBytes(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("image %d data uri: %w", src, err)
		}
		return decodeImageBytes(name, raw)
	case img.URI != "":
		return LoadTexture(filepath.Join(dir, img.URI))
	}
	return nil, fmt.Errorf("image %d has no data", src)
}
