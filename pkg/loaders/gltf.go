package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
)

// MeshData holds the triangles of every mesh in a glTF document, merged into one list
type MeshData struct {
	Positions []core.Vec3
	Normals   []core.Vec3 // nil unless every primitive has normals
	UVs       []core.Vec2 // nil unless every primitive has texture coordinates
	Indices   []int
}

// LoadGLTF reads the triangle primitives of a .gltf or .glb file. Node transforms are
// not applied; placement comes from the scene description.
func LoadGLTF(filename string) (*MeshData, error) {
	doc, err := gltf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	data := &MeshData{}
	hasNormals, hasUVs := true, true
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			normals, uvs, err := data.appendPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
			hasNormals = hasNormals && normals
			hasUVs = hasUVs && uvs
		}
	}

	if len(data.Indices) == 0 {
		return nil, fmt.Errorf("gltf %s: no triangles", filename)
	}
	if !hasNormals {
		data.Normals = nil
	}
	if !hasUVs {
		data.UVs = nil
	}
	return data, nil
}

// appendPrimitive adds one primitive's vertices and triangles, reporting whether it
// carried normals and texture coordinates
func (d *MeshData) appendPrimitive(doc *gltf.Document, prim *gltf.Primitive) (bool, bool, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return false, false, fmt.Errorf("primitive has no positions")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return false, false, fmt.Errorf("read positions: %w", err)
	}

	baseVertex := len(d.Positions)
	for _, p := range positions {
		d.Positions = append(d.Positions, core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2])))
	}

	hasNormals := false
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return false, false, fmt.Errorf("read normals: %w", err)
		}
		if len(normals) == len(positions) {
			hasNormals = true
			for _, n := range normals {
				d.Normals = append(d.Normals, core.NewVec3(float64(n[0]), float64(n[1]), float64(n[2])))
			}
		}
	}
	if !hasNormals {
		d.Normals = append(d.Normals, make([]core.Vec3, len(positions))...)
	}

	hasUVs := false
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return false, false, fmt.Errorf("read uvs: %w", err)
		}
		if len(uvs) == len(positions) {
			hasUVs = true
			for _, uv := range uvs {
				// glTF puts V=0 at the top of the texture
				d.UVs = append(d.UVs, core.NewVec2(float64(uv[0]), 1-float64(uv[1])))
			}
		}
	}
	if !hasUVs {
		d.UVs = append(d.UVs, make([]core.Vec2, len(positions))...)
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return false, false, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			for _, index := range indices[i : i+3] {
				if int(index) >= len(positions) {
					return false, false, fmt.Errorf("index %d out of range", index)
				}
				d.Indices = append(d.Indices, baseVertex+int(index))
			}
		}
	} else {
		// Unindexed primitives list their triangles vertex by vertex
		for i := 0; i+2 < len(positions); i += 3 {
			d.Indices = append(d.Indices, baseVertex+i, baseVertex+i+1, baseVertex+i+2)
		}
	}

	return hasNormals, hasUVs, nil
}

// LoadGLTFMesh loads a glTF file as a triangle mesh shape; options may add scaling,
// rotation and translation
func LoadGLTFMesh(filename string, options *geometry.TriangleMeshOptions) (*geometry.TriangleMesh, error) {
	data, err := LoadGLTF(filename)
	if err != nil {
		return nil, err
	}

	meshOptions := geometry.TriangleMeshOptions{}
	if options != nil {
		meshOptions = *options
	}
	meshOptions.Normals = data.Normals
	meshOptions.UVs = data.UVs

	return geometry.NewTriangleMesh(data.Positions, data.Indices, &meshOptions), nil
}
