package anim

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func staticPiece(label string, origin image.Point, mirrored, rotate bool) *Piece {
	return &Piece{
		Label:       label,
		Dimensions:  image.Pt(8, 8),
		Origin:      origin,
		RenderOrder: 10,
		States: []*State{{
			Label:            "still",
			RotationMirrored: mirrored,
			RotatePixels:     rotate,
			Components: []ComponentPart{{
				RangeMax: math.Pi,
				Default:  []Component{{Tile: image.Pt(0, 0)}},
				Flipped:  []Component{{Tile: image.Pt(1, 0)}},
			}},
		}},
	}
}

func catalogWith(t *testing.T, tmpl *Template) *Catalog {
	t.Helper()
	c := NewCatalog()
	c.Put(tmpl)
	return c
}

func mustInstance(t *testing.T, c *Catalog, label string) *Instance {
	t.Helper()
	inst, err := NewInstance(c, label)
	if err != nil {
		t.Fatalf("construct %s: %v", label, err)
	}
	return inst
}

func snapshot(inst *Instance) ([]mgl32.Vec3, []mgl32.Vec2) {
	origins := append([]mgl32.Vec3(nil), inst.Origins...)
	uvs := append([]mgl32.Vec2(nil), inst.UVs...)
	return origins, uvs
}

func slotOrigins(inst *Instance, slot int) []mgl32.Vec3 {
	base := slot * VerticesPerPiece
	return append([]mgl32.Vec3(nil), inst.Origins[base:base+VerticesPerPiece]...)
}

func TestComputeArraySize(t *testing.T) {
	c := loadFixture(t)
	cases := []struct {
		label string
		nodes int
	}{
		{"player", 5},
		{"muzzle-flash", 0},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			inst := mustInstance(t, c, tc.label)
			inst.Compute(true)
			want := tc.nodes * VerticesPerPiece
			if len(inst.Origins) != want || len(inst.UVs) != want {
				t.Fatalf("expected %d vertices, got origins=%d uvs=%d", want, len(inst.Origins), len(inst.UVs))
			}
		})
	}
}

func TestComputeIdempotentWithoutElapsedTime(t *testing.T) {
	c := loadFixture(t)
	inst := mustInstance(t, c, "player")
	inst.SetFrameTime(0)

	inst.Compute(false)
	o1, uv1 := snapshot(inst)
	inst.Compute(false)
	o2, uv2 := snapshot(inst)

	for i := range o1 {
		if o1[i] != o2[i] || uv1[i] != uv2[i] {
			t.Fatalf("vertex %d changed: %v/%v -> %v/%v", i, o1[i], uv1[i], o2[i], uv2[i])
		}
	}
}

func TestComputeFrameAdvance(t *testing.T) {
	frames := []Component{{Tile: image.Pt(0, 0)}, {Tile: image.Pt(1, 0)}, {Tile: image.Pt(2, 0)}}
	tmpl := &Template{
		Label: "t",
		Pieces: []*Piece{{
			Label:      "p",
			Dimensions: image.Pt(8, 8),
			States: []*State{{
				Label:       "loop",
				MsDeltaTime: 100,
				Components:  []ComponentPart{{RangeMax: math.Pi, Default: frames}},
			}},
		}},
		Skeleton: []*SkeletalPiece{{Label: "p"}},
	}
	inst := mustInstance(t, catalogWith(t, tmpl), "t")
	inst.SetFrameTime(40)

	cursor, ok := inst.Cursor("p")
	if !ok {
		t.Fatalf("cursor missing")
	}
	cursor.DeltaTime = 0
	cursor.ComponentIt = 0

	want := []int{0, 0, 1, 1, 1, 2, 2, 0}
	for call, it := range want {
		inst.Compute(false)
		if cursor.ComponentIt != it {
			t.Fatalf("call %d: expected component %d, got %d (delta %v)", call+1, it, cursor.ComponentIt, cursor.DeltaTime)
		}
		wantU := float32(it * 8)
		if got := inst.UVs[0][0]; got != wantU {
			t.Fatalf("call %d: expected uv.x %v for the displayed frame, got %v", call+1, wantU, got)
		}
	}
}

func TestComputeAncestorUpdateRewritesDescendants(t *testing.T) {
	c := loadFixture(t)
	inst := mustInstance(t, c, "player")
	inst.SetFrameTime(40)
	body, _ := inst.Cursor("body")
	body.DeltaTime = 0
	body.ComponentIt = 0

	sentinel := mgl32.Vec3{1234, 1234, 1234}
	headSlot := 1 * VerticesPerPiece

	for call := 1; call <= 3; call++ {
		inst.Origins[headSlot] = sentinel
		inst.Compute(false)
		rewritten := inst.Origins[headSlot] != sentinel
		if call < 3 && rewritten {
			t.Fatalf("call %d: head rewritten without an update", call)
		}
		if call == 3 && !rewritten {
			t.Fatalf("call %d: head not rewritten after body advanced", call)
		}
	}
}

func TestComputeCursorChangeForcesRewrite(t *testing.T) {
	c := loadFixture(t)
	inst := mustInstance(t, c, "player")
	inst.SetFrameTime(0)
	inst.ClearDirty()

	if err := inst.SetState("body", "walk"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	inst.Compute(false)
	if !inst.Dirty() {
		t.Fatalf("expected dirty after state change")
	}
	// walk frame 0 sits at tile (0,1), 32 texels down
	if got := inst.UVs[0][1]; got != 32 {
		t.Fatalf("expected walk frame uv.y 32, got %v", got)
	}
}

func TestComputeDegenerateSlots(t *testing.T) {
	c := loadFixture(t)
	inst := mustInstance(t, c, "player")

	// pre-order slots: body, head, arm-front, weapon, legs
	weapon := slotOrigins(inst, 3)
	for _, v := range weapon {
		if v != degenerateOrigin {
			t.Fatalf("stateless weapon should be degenerate, got %v", v)
		}
	}
	legs := slotOrigins(inst, 4)
	if legs[0] == degenerateOrigin {
		t.Fatalf("legs after a stateless sibling subtree must still render")
	}

	if err := inst.SetAngle("head", 2.0); err != nil {
		t.Fatalf("set angle: %v", err)
	}
	inst.Compute(false)
	for _, v := range slotOrigins(inst, 1) {
		if v != degenerateOrigin {
			t.Fatalf("head past every angle bucket should be degenerate, got %v", v)
		}
	}
	if inst.UVs[VerticesPerPiece] != degenerateUV {
		t.Fatalf("expected degenerate uv, got %v", inst.UVs[VerticesPerPiece])
	}
}

func TestComputeUnresolvedNodeKeepsChildren(t *testing.T) {
	tmpl := &Template{
		Label:  "t",
		Pieces: []*Piece{staticPiece("p", image.Pt(0, 0), false, false)},
		Skeleton: []*SkeletalPiece{{
			Label:    "ghost",
			Children: []*SkeletalPiece{{Label: "p", Origin: image.Pt(3, 4)}},
		}},
	}
	inst := mustInstance(t, catalogWith(t, tmpl), "t")
	if len(inst.Origins) != 2*VerticesPerPiece {
		t.Fatalf("expected slots for both nodes, got %d", len(inst.Origins))
	}
	if inst.Origins[0] != degenerateOrigin {
		t.Fatalf("unresolved node should be degenerate, got %v", inst.Origins[0])
	}
	if got := inst.Origins[VerticesPerPiece]; got != (mgl32.Vec3{3, 4, 10}) {
		t.Fatalf("child should render at its origin, got %v", got)
	}
}

func TestMirrorCorrection(t *testing.T) {
	tmpl := &Template{
		Label:    "t",
		Pieces:   []*Piece{staticPiece("arm", image.Pt(0, 0), true, false)},
		Skeleton: []*SkeletalPiece{{Label: "arm", Origin: image.Pt(10, 0)}},
	}
	inst := mustInstance(t, catalogWith(t, tmpl), "t")

	cases := []struct {
		name      string
		rotation  float64
		inherited bool
		wantFlip  bool
		wantX     int
	}{
		{"positive_from_unflipped", 1, false, true, 10},
		{"negative_from_unflipped", -1, false, false, 10},
		{"positive_from_flipped", 1, true, true, 10},
		{"negative_from_flipped", -1, true, false, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := inst.SetAngle("arm", tc.rotation); err != nil {
				t.Fatalf("set angle: %v", err)
			}
			acc := inst.composeNode(0, &inst.bindings[0], accumulator{flip: tc.inherited, force: true})
			if acc.flip != tc.wantFlip {
				t.Fatalf("expected flip %v, got %v", tc.wantFlip, acc.flip)
			}
			if acc.origin.X != tc.wantX {
				t.Fatalf("expected origin x %d, got %d", tc.wantX, acc.origin.X)
			}
		})
	}

	if err := inst.SetAngle("arm", 1); err != nil {
		t.Fatalf("set angle: %v", err)
	}
	inst.Compute(true)
	// flipped frame tile (1,0) sampled right to left
	if got := inst.UVs[0]; got != (mgl32.Vec2{16, 0}) {
		t.Fatalf("expected flipped uv (16,0), got %v", got)
	}
}

func TestSiblingIndependence(t *testing.T) {
	tmpl := &Template{
		Label: "t",
		Pieces: []*Piece{
			staticPiece("root", image.Pt(4, 4), false, false),
			staticPiece("left", image.Pt(1, 1), false, false),
			staticPiece("right", image.Pt(2, 2), true, true),
		},
		Skeleton: []*SkeletalPiece{{
			Label:  "root",
			Origin: image.Pt(20, 20),
			Children: []*SkeletalPiece{
				{Label: "left", Origin: image.Pt(5, 0)},
				{Label: "right", Origin: image.Pt(-5, 3)},
			},
		}},
	}
	inst := mustInstance(t, catalogWith(t, tmpl), "t")
	left := slotOrigins(inst, 1)
	right := slotOrigins(inst, 2)

	tmpl.Skeleton[0].Children[1].Origin = image.Pt(40, 40)
	if err := inst.SetFlip("right", true); err != nil {
		t.Fatalf("set flip: %v", err)
	}
	if err := inst.SetAngle("right", 0.5); err != nil {
		t.Fatalf("set angle: %v", err)
	}
	inst.Compute(true)

	for i, v := range slotOrigins(inst, 1) {
		if v != left[i] {
			t.Fatalf("left vertex %d moved with its sibling: %v -> %v", i, left[i], v)
		}
	}
	changed := false
	for i, v := range slotOrigins(inst, 2) {
		if v != right[i] {
			changed = true
		}
	}
	if !changed {
		t.Fatalf("right sibling should have moved")
	}
}

func TestRotatePixels(t *testing.T) {
	p := staticPiece("p", image.Pt(0, 0), false, true)
	p.Dimensions = image.Pt(2, 2)
	tmpl := &Template{
		Label:    "t",
		Pieces:   []*Piece{p},
		Skeleton: []*SkeletalPiece{{Label: "p"}},
	}
	inst := mustInstance(t, catalogWith(t, tmpl), "t")

	// corner (1,0) scaled to (2,0) turns a quarter to (0,-2)
	got := inst.Origins[1]
	if math.Abs(float64(got[0])) > 1e-5 || math.Abs(float64(got[1]+2)) > 1e-5 {
		t.Fatalf("expected (0,-2), got %v", got)
	}
	if got[2] != 10 {
		t.Fatalf("expected depth 10, got %v", got[2])
	}
}

func TestInstanceLifecycle(t *testing.T) {
	c := loadFixture(t)

	missing, err := NewInstance(c, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if missing.Valid() {
		t.Fatalf("instance without template must not be valid")
	}
	missing.Compute(true)

	inst := mustInstance(t, c, "player")
	tmpl := inst.Animator
	tmpl.Skeleton[0].Children = append(tmpl.Skeleton[0].Children, &SkeletalPiece{Label: "head"})
	if err := inst.Reconstruct(); err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if inst.VertexCount() != 6*VerticesPerPiece {
		t.Fatalf("expected %d vertices after adding a node, got %d", 6*VerticesPerPiece, inst.VertexCount())
	}

	inst.Destroy()
	if inst.Valid() || inst.Origins != nil || inst.UVs != nil {
		t.Fatalf("destroy should clear instance state")
	}
	if tmpl.NodeCount() != 6 {
		t.Fatalf("destroy must not touch the template")
	}
}

func TestCursorSetters(t *testing.T) {
	c := loadFixture(t)
	inst := mustInstance(t, c, "player")

	if err := inst.SetState("weapon", "fire"); !errors.Is(err, ErrUnknownPiece) {
		t.Fatalf("stateless piece has no cursor, got %v", err)
	}
	if err := inst.SetState("body", "run"); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}

	body, _ := inst.Cursor("body")
	body.ComponentIt = 2
	body.DeltaTime = 50
	if err := inst.SetState("body", "walk"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if body.ComponentIt != 0 || body.DeltaTime != 0 || body.StateLabel != "walk" {
		t.Fatalf("state change should restart the cursor, got %+v", body)
	}

	labels := []string{}
	for _, pc := range inst.Cursors() {
		labels = append(labels, pc.Piece)
	}
	if len(labels) != 4 || labels[0] != "body" || labels[3] != "legs" {
		t.Fatalf("unexpected cursor order %v", labels)
	}
}
