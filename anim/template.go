package anim

import (
	"image"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// MirrorWidth is the cell width flipped pivots are mirrored against.
const MirrorWidth = 64

// Spritesheet references the image a template samples from. The image itself
// is owned by the render layer; the template only needs its resolution.
type Spritesheet struct {
	Filename string
	Width    int
	Height   int
}

// InvResolution returns 1/width, 1/height. A sheet with an unknown size maps
// texels one to one.
func (s Spritesheet) InvResolution() mgl32.Vec2 {
	if s.Width <= 0 || s.Height <= 0 {
		return mgl32.Vec2{1, 1}
	}
	return mgl32.Vec2{1 / float32(s.Width), 1 / float32(s.Height)}
}

// Component is one spritesheet cell plus the pixel offset applied while it
// is displayed.
type Component struct {
	Tile         image.Point
	OriginOffset image.Point
}

// ComponentPart holds the frame sequences for rotations up to RangeMax.
type ComponentPart struct {
	RangeMax float64
	Default  []Component
	Flipped  []Component
}

// Sequence returns the flipped or default frames.
func (p *ComponentPart) Sequence(flip bool) []Component {
	if flip {
		return p.Flipped
	}
	return p.Default
}

// State is a named animation of a piece.
type State struct {
	Label            string
	MsDeltaTime      float64
	RotationMirrored bool
	RotatePixels     bool
	Components       []ComponentPart
}

// SortComponents restores ascending RangeMax order after an edit.
func (s *State) SortComponents() {
	sort.SliceStable(s.Components, func(i, j int) bool {
		return s.Components[i].RangeMax < s.Components[j].RangeMax
	})
}

// Piece is one drawable part of a template, e.g. a limb.
type Piece struct {
	Label       string
	Dimensions  image.Point
	Origin      image.Point
	RenderOrder int
	States      []*State
}

// State looks up a state by label.
func (p *Piece) State(label string) (*State, bool) {
	if p == nil {
		return nil, false
	}
	for _, s := range p.States {
		if s.Label == label {
			return s, true
		}
	}
	return nil, false
}

// DefaultState is the first declared state, nil when the piece has none.
func (p *Piece) DefaultState() *State {
	if p == nil || len(p.States) == 0 {
		return nil
	}
	return p.States[0]
}

// SkeletalPiece is a node of the skeleton. Children are positioned relative
// to Origin.
type SkeletalPiece struct {
	Label    string
	Origin   image.Point
	Children []*SkeletalPiece
}

// Template describes one articulated sprite. It is shared by every instance
// constructed against it and is read-only outside of editor sessions.
type Template struct {
	Label       string
	Spritesheet Spritesheet
	Pieces      []*Piece
	Skeleton    []*SkeletalPiece
}

// Piece looks up a piece by label.
func (t *Template) Piece(label string) (*Piece, bool) {
	if t == nil {
		return nil, false
	}
	for _, p := range t.Pieces {
		if p.Label == label {
			return p, true
		}
	}
	return nil, false
}

// NodeCount is the number of skeleton nodes, counting every node once.
func (t *Template) NodeCount() int {
	if t == nil {
		return 0
	}
	return countNodes(t.Skeleton)
}

func countNodes(nodes []*SkeletalPiece) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Children)
	}
	return n
}

// Walk visits every skeleton node in pre-order. Returning false from fn skips
// the node's children.
func (t *Template) Walk(fn func(node *SkeletalPiece, depth int) bool) {
	if t == nil || fn == nil {
		return
	}
	walkNodes(t.Skeleton, 0, fn)
}

func walkNodes(nodes []*SkeletalPiece, depth int, fn func(*SkeletalPiece, int) bool) {
	for _, node := range nodes {
		if fn(node, depth) {
			walkNodes(node.Children, depth+1, fn)
		}
	}
}
