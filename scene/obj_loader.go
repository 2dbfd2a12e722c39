package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"render-demo/core"
)

// objFace is an already-triangulated face (three vertex references).
type objFace struct {
	vIdx, vtIdx, vnIdx [3]int // 0-based position / UV / normal indices (-1 = absent)
}

type objVertexRef struct{ v, vt, vn int }

// LoadOBJ parses a Wavefront .obj file into a single mesh. Groups and objects
// are merged; the demo draws the model as one part. A companion .mtl file is
// loaded if referenced via "mtllib" and the first material used is kept.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mesh, mtl, err := parseOBJ(name, f)
	if err != nil {
		return nil, fmt.Errorf("parse obj %q: %w", path, err)
	}

	if mtl.lib != "" {
		mats, err := loadMTL(filepath.Join(filepath.Dir(path), mtl.lib), filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("obj %q: %w", path, err)
		}
		mesh.Material = mats[mtl.use]
	}
	return mesh, nil
}

type objMaterialRef struct {
	lib string
	use string
}

// parseOBJ reads OBJ text and builds a deduplicated, triangulated mesh.
func parseOBJ(name string, r io.Reader) (*Mesh, objMaterialRef, error) {
	var positions []mgl32.Vec3
	var normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	var faces []objFace
	var mtl objMaterialRef

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, mtl, fmt.Errorf("line %d: %w", line, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})

		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, mtl, fmt.Errorf("line %d: %w", line, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})

		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, mtl, fmt.Errorf("line %d: %w", line, err)
			}
			uvs = append(uvs, mgl32.Vec2{v[0], v[1]})

		case "mtllib":
			if len(fields) > 1 && mtl.lib == "" {
				mtl.lib = fields[1]
			}

		case "usemtl":
			if len(fields) > 1 && mtl.use == "" {
				mtl.use = fields[1]
			}

		case "f":
			if len(fields) < 4 {
				return nil, mtl, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			refs := make([]objVertexRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseFaceVertex(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, mtl, fmt.Errorf("line %d: %w", line, err)
				}
				refs = append(refs, ref)
			}
			// Fan triangulation: 0-1-2, 0-2-3, 0-3-4, ...
			for i := 1; i+1 < len(refs); i++ {
				f0, f1, f2 := refs[0], refs[i], refs[i+1]
				faces = append(faces, objFace{
					vIdx:  [3]int{f0.v, f1.v, f2.v},
					vtIdx: [3]int{f0.vt, f1.vt, f2.vt},
					vnIdx: [3]int{f0.vn, f1.vn, f2.vn},
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, mtl, fmt.Errorf("scan obj: %w", err)
	}
	if len(faces) == 0 {
		return nil, mtl, fmt.Errorf("no geometry found")
	}

	return buildMeshFromOBJ(name, faces, positions, normals, uvs), mtl, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVertex parses one face vertex token: "v", "v/vt", "v//vn", "v/vt/vn".
// Returns 0-based indices (-1 if absent). Negative OBJ indices are relative
// to the end of the lists read so far.
func parseFaceVertex(tok string, nv, nvt, nvn int) (objVertexRef, error) {
	parseIdx := func(s string, count int) (int, error) {
		if s == "" {
			return -1, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return -1, fmt.Errorf("bad index %q", s)
		}
		switch {
		case n > 0:
			return n - 1, nil
		case n < 0:
			return count + n, nil
		}
		return -1, fmt.Errorf("index 0 in %q", tok)
	}

	res := objVertexRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	var err error
	if res.v, err = parseIdx(parts[0], nv); err != nil {
		return res, err
	}
	if res.v < 0 {
		return res, fmt.Errorf("face vertex %q has no position", tok)
	}
	if len(parts) > 1 {
		if res.vt, err = parseIdx(parts[1], nvt); err != nil {
			return res, err
		}
	}
	if len(parts) > 2 {
		if res.vn, err = parseIdx(parts[2], nvn); err != nil {
			return res, err
		}
	}
	return res, nil
}

// buildMeshFromOBJ converts parsed face data into a deduplicated Mesh.
func buildMeshFromOBJ(
	name string,
	faces []objFace,
	positions []mgl32.Vec3,
	normals []mgl32.Vec3,
	uvs []mgl32.Vec2,
) *Mesh {
	vertMap := map[objVertexRef]uint32{}
	var vertices []core.Vertex
	var indices []uint32

	safePos := func(i int) mgl32.Vec3 {
		if i >= 0 && i < len(positions) {
			return positions[i]
		}
		return mgl32.Vec3{}
	}
	safeNorm := func(i int) mgl32.Vec3 {
		if i >= 0 && i < len(normals) {
			return normals[i]
		}
		return mgl32.Vec3{0, 1, 0}
	}
	safeUV := func(i int) mgl32.Vec2 {
		if i >= 0 && i < len(uvs) {
			return uvs[i]
		}
		return mgl32.Vec2{}
	}

	for _, face := range faces {
		for c := 0; c < 3; c++ {
			k := objVertexRef{face.vIdx[c], face.vtIdx[c], face.vnIdx[c]}
			idx, ok := vertMap[k]
			if !ok {
				idx = uint32(len(vertices))
				vertices = append(vertices, core.Vertex{
					Position: safePos(k.v),
					Normal:   safeNorm(k.vn),
					TexCoord: safeUV(k.vt),
				})
				vertMap[k] = idx
			}
			indices = append(indices, idx)
		}
	}

	if len(normals) == 0 {
		generateSmoothNormals(vertices, indices)
	}

	mesh := CreateMeshFromData(name, vertices, indices)
	ComputeTangents(mesh)
	return mesh
}

// generateSmoothNormals computes area-weighted normals and writes them to the vertex slice.
func generateSmoothNormals(vertices []core.Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0 := vertices[i0].Position
		v1 := vertices[i1].Position
		v2 := vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range vertices {
		if accum[i].LenSqr() > 0 {
			vertices[i].Normal = accum[i].Normalize()
		}
	}
}

// ── MTL loader ───────────────────────────────────────────────────────────────

func loadMTL(path, dir string) (map[string]*ImportedMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mtl %q: %w", path, err)
	}
	defer f.Close()

	mats := map[string]*ImportedMaterial{}
	var cur *ImportedMaterial

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "newmtl":
			if len(fields) > 1 {
				cur = &ImportedMaterial{Name: fields[1], DiffuseColor: mgl32.Vec4{1, 1, 1, 1}, SpecularPower: 32}
				mats[fields[1]] = cur
			}
		case "Kd":
			if cur != nil {
				if v, err := parseFloats(fields[1:], 3); err == nil {
					cur.DiffuseColor = mgl32.Vec4{v[0], v[1], v[2], 1}
				}
			}
		case "Ns":
			if cur != nil {
				if v, err := parseFloats(fields[1:], 1); err == nil {
					cur.SpecularPower = mgl32.Clamp(v[0], 1, 1000)
				}
			}
		case "map_Kd", "map_Bump", "bump", "norm":
			if cur == nil || len(fields) < 2 {
				continue
			}
			tex, err := LoadTexture(filepath.Join(dir, fields[len(fields)-1]))
			if err != nil {
				return nil, err
			}
			if fields[0] == "map_Kd" {
				cur.DiffuseMap = tex
			} else {
				cur.NormalMap = tex
			}
		}
	}

	return mats, scanner.Err()
}
