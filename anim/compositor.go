package anim

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// quadCorners are the unit-quad corners of the two triangles written per
// piece.
var quadCorners = [VerticesPerPiece]mgl32.Vec2{
	{0, 0}, {1, 0}, {1, 1},
	{1, 1}, {0, 1}, {0, 0},
}

var (
	degenerateOrigin = mgl32.Vec3{-1, -1, -1}
	degenerateUV     = mgl32.Vec2{-1, -1}
)

// accumulator is the transform state handed from a node to its children.
// It is passed by value so siblings never observe each other.
type accumulator struct {
	origin   image.Point
	flip     bool
	rotation float64
	force    bool
}

// Compute advances every cursor by one frame and rewrites the vertex slots of
// pieces whose displayed frame changed. forceUpdate rewrites every slot.
func (inst *Instance) Compute(forceUpdate bool) {
	if !inst.Valid() {
		return
	}
	force := forceUpdate || inst.pending
	inst.pending = false

	slot := 0
	inst.composeNodes(inst.Animator.Skeleton, &slot, accumulator{force: force})
}

func (inst *Instance) composeNodes(nodes []*SkeletalPiece, slot *int, acc accumulator) {
	for _, node := range nodes {
		if *slot >= len(inst.bindings) {
			return
		}
		b := &inst.bindings[*slot]
		child := inst.composeNode(*slot, b, acc)
		*slot++
		inst.composeNodes(node.Children, slot, child)
	}
}

func (inst *Instance) composeNode(slot int, b *binding, acc accumulator) accumulator {
	if b.piece == nil || b.cursor == nil {
		inst.writeDegenerate(slot)
		return acc
	}
	cursor := b.cursor
	state, ok := b.piece.State(cursor.StateLabel)
	if !ok {
		inst.writeDegenerate(slot)
		return acc
	}

	acc.flip = acc.flip != cursor.Flip
	acc.rotation += cursor.Angle

	// a mirrored state faces the direction it rotates towards
	if state.RotationMirrored && ((acc.rotation > 0) != acc.flip) {
		acc.flip = !acc.flip
		if !acc.flip {
			acc.origin.X -= b.node.Origin.X * 2
		}
	}

	components := SelectComponents(state, acc.flip, math.Abs(acc.rotation))
	if len(components) == 0 {
		inst.writeDegenerate(slot)
		return acc
	}

	if cursor.ComponentIt >= len(components) {
		cursor.ComponentIt = len(components) - 1
	}
	if cursor.ComponentIt < 0 {
		cursor.ComponentIt = 0
	}

	acc.origin = acc.origin.Add(b.node.Origin)

	updated := false
	if state.MsDeltaTime > 0 {
		cursor.DeltaTime += inst.FrameTime()
		if cursor.DeltaTime > state.MsDeltaTime {
			cursor.DeltaTime -= state.MsDeltaTime
			cursor.ComponentIt = (cursor.ComponentIt + 1) % len(components)
			updated = true
		}
	}

	component := components[cursor.ComponentIt]
	if updated || acc.force {
		acc.force = true
		inst.writeQuad(slot, b, state, component, acc)
	}

	acc.origin = acc.origin.Sub(component.OriginOffset)
	return acc
}

func (inst *Instance) writeDegenerate(slot int) {
	base := slot * VerticesPerPiece
	for i := 0; i < VerticesPerPiece; i++ {
		if inst.Origins[base+i] != degenerateOrigin || inst.UVs[base+i] != degenerateUV {
			inst.dirty = true
		}
		inst.Origins[base+i] = degenerateOrigin
		inst.UVs[base+i] = degenerateUV
	}
}

func (inst *Instance) writeQuad(slot int, b *binding, state *State, component Component, acc accumulator) {
	piece := b.piece
	dims := mgl32.Vec2{float32(piece.Dimensions.X), float32(piece.Dimensions.Y)}
	tile := mgl32.Vec2{float32(component.Tile.X), float32(component.Tile.Y)}
	invRes := inst.Animator.Spritesheet.InvResolution()
	offset := mgl32.Vec2{float32(acc.origin.X), float32(acc.origin.Y)}

	local := mgl32.Vec2{
		float32(piece.Origin.X + component.OriginOffset.X),
		float32(piece.Origin.Y + component.OriginOffset.Y),
	}
	if acc.flip {
		local[0] = MirrorWidth - local[0]
	}

	var rot mgl32.Mat2
	if state.RotatePixels {
		theta := acc.rotation + math.Pi*0.5
		if acc.flip {
			theta += math.Pi
		}
		// clockwise in screen space, y grows downwards
		rot = mgl32.Rotate2D(float32(-theta))
	}

	depth := float32(piece.RenderOrder)
	base := slot * VerticesPerPiece
	for i, v := range quadCorners {
		uv := v
		if acc.flip {
			uv[0] = 1 - uv[0]
		}
		inst.UVs[base+i] = mulElem(mulElem(uv, dims).Add(mulElem(tile, dims)), invRes)

		pos := mulElem(v, dims)
		if state.RotatePixels {
			pos = rot.Mul2x1(pos.Sub(local)).Add(local)
		}
		pos = pos.Add(offset).Sub(local)
		if acc.flip {
			pos[0] -= float32(b.node.Origin.X * 2)
		}
		inst.Origins[base+i] = mgl32.Vec3{pos[0], pos[1], depth}
	}
	inst.dirty = true
}

func mulElem(a, b mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a[0] * b[0], a[1] * b[1]}
}
