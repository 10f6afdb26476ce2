package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/puppet/anim"
)

const angleStep = math.Pi / 12

// inspector steps every template of a catalog headlessly and tracks which
// instance and piece the keys act on.
type inspector struct {
	catalog   *anim.Catalog
	instances []*anim.Instance
	selected  int
	row       int
	paused    bool
	frames    int
}

func newInspector(c *anim.Catalog, frameMs float64) *inspector {
	in := &inspector{catalog: c}
	for _, label := range c.Labels() {
		inst, err := anim.NewInstance(c, label)
		if err != nil {
			continue
		}
		inst.SetFrameTime(frameMs)
		in.instances = append(in.instances, inst)
	}
	return in
}

// step advances every instance by one frame unless paused.
func (in *inspector) step() {
	if in.paused {
		return
	}
	in.frames++
	for _, inst := range in.instances {
		inst.Compute(false)
		inst.ClearDirty()
	}
}

func (in *inspector) current() *anim.Instance {
	if in.selected < 0 || in.selected >= len(in.instances) {
		return nil
	}
	return in.instances[in.selected]
}

func (in *inspector) cursor() (anim.PieceCursor, bool) {
	cursors := in.current().Cursors()
	if in.row < 0 || in.row >= len(cursors) {
		return anim.PieceCursor{}, false
	}
	return cursors[in.row], true
}

// handleKey applies one key press. It returns false when the inspector
// should exit.
func (in *inspector) handleKey(ev *tcell.EventKey) bool {
	return in.apply(ev.Key(), ev.Rune())
}

func (in *inspector) apply(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		if len(in.instances) > 0 {
			in.selected = (in.selected + 1) % len(in.instances)
			in.row = 0
		}
	case tcell.KeyUp:
		if in.row > 0 {
			in.row--
		}
	case tcell.KeyDown:
		if in.row < len(in.current().Cursors())-1 {
			in.row++
		}
	case tcell.KeyLeft:
		in.turn(-angleStep)
	case tcell.KeyRight:
		in.turn(angleStep)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case ' ':
			in.paused = !in.paused
		case 's':
			in.nextState()
		case 'f':
			if pc, ok := in.cursor(); ok {
				_ = in.current().SetFlip(pc.Piece, !pc.Cursor.Flip)
			}
		case '0':
			if pc, ok := in.cursor(); ok {
				_ = in.current().SetAngle(pc.Piece, 0)
			}
		case '.':
			// single step while paused
			paused := in.paused
			in.paused = false
			in.step()
			in.paused = paused
		}
	}
	return true
}

func (in *inspector) turn(delta float64) {
	if pc, ok := in.cursor(); ok {
		_ = in.current().SetAngle(pc.Piece, pc.Cursor.Angle+delta)
	}
}

// nextState moves the selected piece to the state declared after its current
// one, wrapping around.
func (in *inspector) nextState() {
	pc, ok := in.cursor()
	if !ok {
		return
	}
	inst := in.current()
	p, ok := inst.Animator.Piece(pc.Piece)
	if !ok || len(p.States) == 0 {
		return
	}
	next := 0
	for i, st := range p.States {
		if st.Label == pc.Cursor.StateLabel {
			next = (i + 1) % len(p.States)
			break
		}
	}
	_ = inst.SetState(pc.Piece, p.States[next].Label)
}

// lines renders the inspector as text, one entry per screen row.
func (in *inspector) lines() []string {
	status := "running"
	if in.paused {
		status = "paused"
	}
	out := []string{
		fmt.Sprintf("animtop  frame %d  %s  [tab] template [up/down] piece [s] state [f] flip [left/right] angle [space] pause [q] quit", in.frames, status),
		"",
	}
	for i, inst := range in.instances {
		marker := " "
		if i == in.selected {
			marker = ">"
		}
		out = append(out, fmt.Sprintf("%s %-20s nodes %3d  vertices %4d  hidden %3d",
			marker, inst.Label(), inst.VertexCount()/anim.VerticesPerPiece, inst.VertexCount(), hiddenSlots(inst)))
	}

	inst := in.current()
	if inst == nil {
		return append(out, "", "no templates")
	}
	out = append(out, "", fmt.Sprintf("  %-16s %-12s %5s %9s %5s %8s", "piece", "state", "frame", "delta ms", "flip", "angle"))
	for i, pc := range inst.Cursors() {
		marker := " "
		if i == in.row {
			marker = ">"
		}
		c := pc.Cursor
		out = append(out, fmt.Sprintf("%s %-16s %-12s %5d %9.1f %5v %8.3f",
			marker, pc.Piece, c.StateLabel, c.ComponentIt, c.DeltaTime, c.Flip, c.Angle))
	}
	return out
}

// hiddenSlots counts nodes whose quad is currently degenerate.
func hiddenSlots(inst *anim.Instance) int {
	n := 0
	for slot := 0; slot+anim.VerticesPerPiece <= len(inst.Origins); slot += anim.VerticesPerPiece {
		if inst.Origins[slot][2] < 0 {
			n++
		}
	}
	return n
}
