// Package formats provides loaders and writers for mesh file formats.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"

	"github.com/Faultbox/meshdiff/pkg/math"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// STL format errors. All of them wrap ErrParse.
var (
	ErrParse                   = errors.New("malformed STL data")
	ErrTruncatedSTLData        = fmt.Errorf("%w: truncated binary data", ErrParse)
	ErrInvalidSTLTriangleCount = fmt.Errorf("%w: triangle count does not match data size", ErrParse)
	ErrInvalidASCIISTL         = fmt.Errorf("%w: invalid ASCII syntax", ErrParse)
	ErrInvalidSTLValue         = fmt.Errorf("%w: non-finite coordinate", ErrParse)
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal + 3 vertices (12 float32) + attribute byte count
)

// STL is a decoded STL file.
type STL struct {
	Header string // Binary header with trailing NULs trimmed
	Name   string // ASCII solid name
	ASCII  bool
	Mesh   *mesh.TriangleMesh
}

// ParseSTL decodes binary or ASCII STL data into a triangle soup.
func ParseSTL(data []byte) (*mesh.TriangleMesh, error) {
	s, err := DecodeSTL(data)
	if err != nil {
		return nil, err
	}
	return s.Mesh, nil
}

// ParseSTLFile reads and decodes an STL file from disk.
func ParseSTLFile(path string) (*mesh.TriangleMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	m, err := ParseSTL(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DecodeSTL decodes STL data and keeps the header information.
//
// A buffer whose size matches its binary triangle count is read as binary
// even when the header starts with "solid", which many exporters write.
func DecodeSTL(data []byte) (*STL, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(stlHeaderSize+4)+uint64(count)*stlTriangleSize == uint64(len(data)) {
			return decodeBinarySTL(data)
		}
	}
	if looksLikeASCII(data) {
		return decodeASCIISTL(data)
	}
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedSTLData, len(data))
	}
	return decodeBinarySTL(data)
}

func looksLikeASCII(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return false
	}
	return bytes.Contains(trimmed, []byte("facet")) || bytes.Contains(trimmed, []byte("endsolid"))
}

func decodeBinarySTL(data []byte) (*STL, error) {
	r := bytes.NewReader(data)

	var header [stlHeaderSize]byte
	if _, err := r.Read(header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedSTLData)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading triangle count", ErrTruncatedSTLData)
	}

	need := uint64(count) * stlTriangleSize
	if need > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: header declares %d triangles, %d bytes remain", ErrInvalidSTLTriangleCount, count, r.Len())
	}

	b := newSoupBuilder(int(count))
	for i := uint32(0); i < count; i++ {
		var rec struct {
			Normal   [3]float32
			Vertices [3][3]float32
			Attr     uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: reading triangle %d", ErrTruncatedSTLData, i)
		}
		var tri [3]math.Vec3
		for j, v := range rec.Vertices {
			tri[j] = math.V3(v[0], v[1], v[2])
		}
		if err := b.add(math.V3(rec.Normal[0], rec.Normal[1], rec.Normal[2]), tri); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
	}

	return &STL{
		Header: strings.TrimRight(string(header[:]), "\x00 "),
		Mesh:   b.mesh(),
	}, nil
}

// decodeASCIISTL reads "solid ... facet normal ... outer loop ... vertex ...
// endloop endfacet ... endsolid". Loops with more than three vertices are
// fan-triangulated.
func decodeASCIISTL(data []byte) (*STL, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := &STL{ASCII: true}
	b := newSoupBuilder(0)

	var (
		line    int
		inFacet bool
		inLoop  bool
		normal  math.Vec3
		loop    []math.Vec3
		started bool
	)

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "solid":
			if started {
				return nil, fmt.Errorf("%w: line %d: nested solid", ErrInvalidASCIISTL, line)
			}
			started = true
			out.Name = strings.Join(fields[1:], " ")
		case "facet":
			if !started || inFacet {
				return nil, fmt.Errorf("%w: line %d: unexpected facet", ErrInvalidASCIISTL, line)
			}
			inFacet = true
			normal = math.Vec3{}
			if len(fields) >= 5 && strings.EqualFold(fields[1], "normal") {
				v, err := parseVec(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				normal = v
			}
		case "outer":
			if !inFacet || inLoop {
				return nil, fmt.Errorf("%w: line %d: unexpected outer loop", ErrInvalidASCIISTL, line)
			}
			inLoop = true
			loop = loop[:0]
		case "vertex":
			if !inLoop || len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: unexpected vertex", ErrInvalidASCIISTL, line)
			}
			v, err := parseVec(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			loop = append(loop, v)
		case "endloop":
			if !inLoop {
				return nil, fmt.Errorf("%w: line %d: unexpected endloop", ErrInvalidASCIISTL, line)
			}
			inLoop = false
		case "endfacet":
			if !inFacet || inLoop {
				return nil, fmt.Errorf("%w: line %d: unexpected endfacet", ErrInvalidASCIISTL, line)
			}
			if len(loop) < 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidASCIISTL, line, len(loop))
			}
			for k := 1; k+1 < len(loop); k++ {
				if err := b.add(normal, [3]math.Vec3{loop[0], loop[k], loop[k+1]}); err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
			}
			inFacet = false
		case "endsolid":
			if inFacet {
				return nil, fmt.Errorf("%w: line %d: endsolid inside facet", ErrInvalidASCIISTL, line)
			}
			out.Mesh = b.mesh()
			return out, nil
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrInvalidASCIISTL, line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidASCIISTL, err)
	}
	if !started || inFacet {
		return nil, fmt.Errorf("%w: unexpected end of data", ErrInvalidASCIISTL)
	}
	// Missing endsolid is common enough to tolerate.
	out.Mesh = b.mesh()
	return out, nil
}

func parseVec(fields []string) (math.Vec3, error) {
	var c [3]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidASCIISTL, f)
		}
		c[i] = float32(v)
	}
	return math.V3(c[0], c[1], c[2]), nil
}

// soupBuilder accumulates triangles into a non-indexed mesh.
type soupBuilder struct {
	positions []float32
	normals   []float32
}

func newSoupBuilder(triangles int) *soupBuilder {
	return &soupBuilder{
		positions: make([]float32, 0, triangles*9),
		normals:   make([]float32, 0, triangles*9),
	}
}

func (b *soupBuilder) add(fileNormal math.Vec3, tri [3]math.Vec3) error {
	for _, v := range tri {
		if !finite(v) {
			return ErrInvalidSTLValue
		}
	}
	n := fileNormal
	if !finite(n) || n.Length() < 1e-6 {
		n = tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		if n.Length() > 1e-12 {
			n = n.Normalize()
		} else {
			n = math.Vec3{}
		}
	} else {
		n = n.Normalize()
	}
	for _, v := range tri {
		b.positions = append(b.positions, v.X, v.Y, v.Z)
		b.normals = append(b.normals, n.X, n.Y, n.Z)
	}
	return nil
}

func (b *soupBuilder) mesh() *mesh.TriangleMesh {
	return &mesh.TriangleMesh{Positions: b.positions, Normals: b.normals}
}

func finite(v math.Vec3) bool {
	for _, c := range v.Array() {
		f := float64(c)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// WriteSTL writes m as a binary STL file.
func WriteSTL(path string, m *mesh.TriangleMesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("writing STL: %w", err)
	}
	tris := make([]*render.Triangle3, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		var st render.Triangle3
		for j, v := range t {
			st.V[j] = sdf.V3{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
		}
		tris = append(tris, &st)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("writing STL: %w", err)
	}
	return nil
}
