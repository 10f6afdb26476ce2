package main

import (
	"math"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
)

func newTestInspector(t *testing.T) *inspector {
	t.Helper()
	c, err := loadCatalog(assets.DefaultCatalog, "")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	in := newInspector(c, 10)
	if len(in.instances) != 2 {
		t.Fatalf("expected an instance per template, got %d", len(in.instances))
	}
	return in
}

func TestInspectorKeys(t *testing.T) {
	in := newTestInspector(t)

	pc, ok := in.cursor()
	if !ok || pc.Piece != "body" {
		t.Fatalf("expected body selected first, got %+v", pc)
	}

	in.apply(tcell.KeyRune, 's')
	if pc.Cursor.StateLabel != "walk" {
		t.Fatalf("expected walk after one state step, got %s", pc.Cursor.StateLabel)
	}
	in.apply(tcell.KeyRune, 's')
	if pc.Cursor.StateLabel != "idle" {
		t.Fatalf("expected state to wrap to idle, got %s", pc.Cursor.StateLabel)
	}

	in.apply(tcell.KeyRune, 'f')
	if !pc.Cursor.Flip {
		t.Fatalf("expected flip toggled")
	}
	in.apply(tcell.KeyRight, 0)
	in.apply(tcell.KeyRight, 0)
	if math.Abs(pc.Cursor.Angle-2*angleStep) > 1e-9 {
		t.Fatalf("expected two angle steps, got %v", pc.Cursor.Angle)
	}
	in.apply(tcell.KeyRune, '0')
	if pc.Cursor.Angle != 0 {
		t.Fatalf("expected angle reset")
	}

	in.apply(tcell.KeyUp, 0)
	if in.row != 0 {
		t.Fatalf("row should not go above the first piece")
	}
	in.apply(tcell.KeyDown, 0)
	if pc, _ := in.cursor(); pc.Piece == "body" {
		t.Fatalf("expected the next piece after moving down")
	}

	in.apply(tcell.KeyTab, 0)
	if in.current().Label() != "muzzle-flash" || in.row != 0 {
		t.Fatalf("expected muzzle-flash selected, got %s row %d", in.current().Label(), in.row)
	}
	in.apply(tcell.KeyTab, 0)
	if in.current().Label() != "player" {
		t.Fatalf("expected selection to wrap")
	}

	if in.apply(tcell.KeyRune, 'q') {
		t.Fatalf("q should exit")
	}
	if in.apply(tcell.KeyEscape, 0) {
		t.Fatalf("escape should exit")
	}
}

func TestInspectorStep(t *testing.T) {
	in := newTestInspector(t)
	flash := in.instances[1]
	c, _ := flash.Cursor("flash")

	// burst advances every 30ms, frames are 10ms
	for i := 0; i < 4; i++ {
		in.step()
	}
	if c.ComponentIt != 1 {
		t.Fatalf("expected second burst frame, got %d", c.ComponentIt)
	}

	in.apply(tcell.KeyRune, ' ')
	in.step()
	if in.frames != 4 {
		t.Fatalf("paused inspector should not step, frames %d", in.frames)
	}
	in.apply(tcell.KeyRune, '.')
	if in.frames != 5 || !in.paused {
		t.Fatalf("single step should advance once and stay paused")
	}
}

func TestInspectorLines(t *testing.T) {
	in := newTestInspector(t)
	in.step()
	lines := in.lines()
	text := strings.Join(lines, "\n")
	for _, want := range []string{"animtop", "> player", "muzzle-flash", "arm-front", "idle"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if hiddenSlots(&anim.Instance{}) != 0 {
		t.Fatalf("an empty instance has no hidden slots")
	}
}
