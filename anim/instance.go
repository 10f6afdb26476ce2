package anim

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFrameMs is the time one Compute call advances every timer by,
// matching ebiten's default 60 ticks per second.
const DefaultFrameMs = 1000.0 / 60.0

// VerticesPerPiece is the number of vertices written for each skeleton node.
const VerticesPerPiece = 6

// Cursor is the playback position of one piece inside an instance.
type Cursor struct {
	StateLabel  string
	ComponentIt int
	DeltaTime   float64
	Flip        bool
	Angle       float64
}

// PieceCursor pairs a cursor with the piece it drives.
type PieceCursor struct {
	Piece  string
	Cursor *Cursor
}

// binding is a skeleton node resolved at construction. bindings are stored in
// pre-order, so a node's index is also its vertex slot.
type binding struct {
	node   *SkeletalPiece
	piece  *Piece
	cursor *Cursor
}

// Instance is the per-entity playback state of a template.
type Instance struct {
	// Animator is nil until Construct succeeds.
	Animator *Template

	// Origins holds xy position and render order, UVs the matching texture
	// coordinates, VerticesPerPiece entries per skeleton node.
	Origins []mgl32.Vec3
	UVs     []mgl32.Vec2

	catalog  *Catalog
	label    string
	cursors  map[string]*Cursor
	bindings []binding
	frameMs  float64
	frameSet bool
	pending  bool
	dirty    bool
}

// NewInstance constructs an instance of the template registered under label.
func NewInstance(c *Catalog, label string) (*Instance, error) {
	inst := &Instance{}
	if err := inst.Construct(c, label); err != nil {
		return inst, err
	}
	return inst, nil
}

// Construct binds the instance to a template, creates a cursor per piece on
// its first state, sizes the vertex arrays and seeds them with a forced
// Compute.
func (inst *Instance) Construct(c *Catalog, label string) error {
	if inst.Animator != nil {
		inst.Destroy()
	}
	inst.catalog = c
	inst.label = label

	t, err := c.Get(label)
	if err != nil {
		log.Printf("anim: could not find animation of type '%s'", label)
		return err
	}
	inst.Animator = t

	inst.cursors = make(map[string]*Cursor, len(t.Pieces))
	for _, p := range t.Pieces {
		def := p.DefaultState()
		if def == nil {
			continue
		}
		inst.cursors[p.Label] = &Cursor{StateLabel: def.Label}
	}

	inst.bindings = make([]binding, 0, t.NodeCount())
	t.Walk(func(node *SkeletalPiece, _ int) bool {
		b := binding{node: node}
		if p, ok := t.Piece(node.Label); ok {
			b.piece = p
			b.cursor = inst.cursors[p.Label]
		} else {
			log.Printf("anim: skeletal '%s' of '%s': %v", node.Label, t.Label, ErrUnresolvedPiece)
		}
		inst.bindings = append(inst.bindings, b)
		return true
	})

	size := len(inst.bindings) * VerticesPerPiece
	inst.Origins = make([]mgl32.Vec3, size)
	inst.UVs = make([]mgl32.Vec2, size)

	inst.Compute(true)
	return nil
}

// Destroy releases the per-instance state. The template is not touched.
func (inst *Instance) Destroy() {
	inst.Animator = nil
	inst.cursors = nil
	inst.bindings = nil
	inst.Origins = nil
	inst.UVs = nil
	inst.pending = false
	inst.dirty = false
}

// Reconstruct rebuilds the instance against the same catalog and label,
// picking up skeleton edits or a reloaded template.
func (inst *Instance) Reconstruct() error {
	c, label := inst.catalog, inst.label
	if label == "" && inst.Animator != nil {
		label = inst.Animator.Label
	}
	inst.Destroy()
	if c == nil {
		return fmt.Errorf("anim: reconstruct '%s': %w", label, ErrNotConstructed)
	}
	return inst.Construct(c, label)
}

// Valid reports whether the instance has a template and may be composited.
func (inst *Instance) Valid() bool {
	return inst != nil && inst.Animator != nil
}

// Label is the template label the instance was constructed against.
func (inst *Instance) Label() string {
	if inst == nil {
		return ""
	}
	return inst.label
}

// SetFrameTime sets how many milliseconds each Compute call advances timers.
func (inst *Instance) SetFrameTime(ms float64) {
	if ms < 0 {
		ms = 0
	}
	inst.frameMs = ms
	inst.frameSet = true
}

// FrameTime returns the per-Compute timer step in milliseconds.
func (inst *Instance) FrameTime() float64 {
	if !inst.frameSet {
		return DefaultFrameMs
	}
	return inst.frameMs
}

// VertexCount is the number of vertices in each output array.
func (inst *Instance) VertexCount() int {
	return len(inst.Origins)
}

// Dirty reports whether any vertex changed since ClearDirty.
func (inst *Instance) Dirty() bool {
	return inst != nil && inst.dirty
}

// ClearDirty is called by the vertex sink after uploading.
func (inst *Instance) ClearDirty() {
	if inst != nil {
		inst.dirty = false
	}
}

// Invalidate forces the next Compute to rewrite every piece. Callers that
// mutate template data in place use it to avoid stale vertices.
func (inst *Instance) Invalidate() {
	if inst != nil {
		inst.pending = true
	}
}

// Cursor returns the cursor driving piece.
func (inst *Instance) Cursor(piece string) (*Cursor, bool) {
	if inst == nil || inst.cursors == nil {
		return nil, false
	}
	c, ok := inst.cursors[piece]
	return c, ok
}

// Cursors lists every cursor in template piece order.
func (inst *Instance) Cursors() []PieceCursor {
	if !inst.Valid() {
		return nil
	}
	out := make([]PieceCursor, 0, len(inst.cursors))
	for _, p := range inst.Animator.Pieces {
		if c, ok := inst.cursors[p.Label]; ok {
			out = append(out, PieceCursor{Piece: p.Label, Cursor: c})
		}
	}
	return out
}

func (inst *Instance) cursorFor(piece string) (*Cursor, error) {
	if !inst.Valid() {
		return nil, ErrNotConstructed
	}
	c, ok := inst.cursors[piece]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPiece, piece)
	}
	return c, nil
}

// SetState switches piece to another state, restarting its frame timer.
func (inst *Instance) SetState(piece, state string) error {
	c, err := inst.cursorFor(piece)
	if err != nil {
		return err
	}
	p, _ := inst.Animator.Piece(piece)
	if _, ok := p.State(state); !ok {
		return fmt.Errorf("%w: '%s' on piece '%s'", ErrUnknownState, state, piece)
	}
	if c.StateLabel == state {
		return nil
	}
	c.StateLabel = state
	c.ComponentIt = 0
	c.DeltaTime = 0
	inst.pending = true
	return nil
}

// SetFlip sets the per-piece flip toggle.
func (inst *Instance) SetFlip(piece string, flip bool) error {
	c, err := inst.cursorFor(piece)
	if err != nil {
		return err
	}
	if c.Flip != flip {
		c.Flip = flip
		inst.pending = true
	}
	return nil
}

// SetAngle sets the per-piece rotation in radians.
func (inst *Instance) SetAngle(piece string, angle float64) error {
	c, err := inst.cursorFor(piece)
	if err != nil {
		return err
	}
	if c.Angle != angle {
		c.Angle = angle
		inst.pending = true
	}
	return nil
}
