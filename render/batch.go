package render

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/puppet/anim"
)

// quad is one non-degenerate piece inside an instance's vertex arrays.
type quad struct {
	first int
	z     float32
}

// Batch mirrors one instance's vertex arrays as ebiten vertices, ordered for
// drawing. Lower render order is nearer the viewer, so quads are emitted far
// to near.
type Batch struct {
	// Alpha scales every vertex colour, used by the editor to ghost the
	// previous frame.
	Alpha float32

	vertices []ebiten.Vertex
	indices  []uint16
	quads    []quad
	geo      ebiten.GeoM
	synced   bool
}

// NewBatch creates an empty fully opaque batch.
func NewBatch() *Batch {
	return &Batch{Alpha: 1}
}

// Sync rebuilds the ebiten vertices from inst when its arrays changed or the
// placement did. It returns true when a rebuild happened and clears the
// instance's dirty flag.
func (b *Batch) Sync(inst *anim.Instance, geo ebiten.GeoM) bool {
	if !inst.Valid() {
		b.Reset()
		return false
	}
	if b.synced && !inst.Dirty() && geo == b.geo {
		return false
	}

	size := texelScale(inst.Animator.Spritesheet)
	b.build(inst.Origins, inst.UVs, size, geo)
	b.geo = geo
	b.synced = true
	inst.ClearDirty()
	return true
}

// Reset drops the buffered vertices.
func (b *Batch) Reset() {
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
	b.quads = b.quads[:0]
	b.synced = false
}

// Len is the number of vertices that will be drawn.
func (b *Batch) Len() int {
	return len(b.vertices)
}

// Draw renders the batch onto dst sampling from sheet.
func (b *Batch) Draw(dst, sheet *ebiten.Image) {
	if dst == nil || sheet == nil || len(b.indices) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.Filter = ebiten.FilterNearest
	dst.DrawTriangles(b.vertices, b.indices, sheet, op)
}

func (b *Batch) build(origins []mgl32.Vec3, uvs []mgl32.Vec2, size mgl32.Vec2, geo ebiten.GeoM) {
	b.quads = b.quads[:0]
	for first := 0; first+anim.VerticesPerPiece <= len(origins); first += anim.VerticesPerPiece {
		if isDegenerate(origins[first]) {
			continue
		}
		b.quads = append(b.quads, quad{first: first, z: origins[first][2]})
	}
	sort.SliceStable(b.quads, func(i, j int) bool {
		return b.quads[i].z > b.quads[j].z
	})

	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
	for _, q := range b.quads {
		for i := 0; i < anim.VerticesPerPiece; i++ {
			o := origins[q.first+i]
			uv := uvs[q.first+i]
			x, y := geo.Apply(float64(o[0]), float64(o[1]))
			b.indices = append(b.indices, uint16(len(b.vertices)))
			b.vertices = append(b.vertices, ebiten.Vertex{
				DstX:   float32(x),
				DstY:   float32(y),
				SrcX:   uv[0] * size[0],
				SrcY:   uv[1] * size[1],
				ColorR: 1,
				ColorG: 1,
				ColorB: 1,
				ColorA: b.Alpha,
			})
		}
	}
}

// texelScale undoes the normalisation applied by the compositor, since ebiten
// samples in source pixels.
func texelScale(s anim.Spritesheet) mgl32.Vec2 {
	if s.Width <= 0 || s.Height <= 0 {
		return mgl32.Vec2{1, 1}
	}
	return mgl32.Vec2{float32(s.Width), float32(s.Height)}
}

func isDegenerate(v mgl32.Vec3) bool {
	return v[2] < 0
}
