package script

import (
	"image"
	"math"
	"testing"

	"github.com/milk9111/puppet/anim"
)

func testInstance(t *testing.T) *anim.Instance {
	t.Helper()
	still := func(label string) *anim.State {
		return &anim.State{
			Label: label,
			Components: []anim.ComponentPart{{
				RangeMax: math.Pi,
				Default:  []anim.Component{{Tile: image.Pt(0, 0)}},
			}},
		}
	}
	c := anim.NewCatalog()
	c.Put(&anim.Template{
		Label: "rig",
		Pieces: []*anim.Piece{
			{Label: "arm", Dimensions: image.Pt(4, 4), States: []*anim.State{still("rest"), still("swing")}},
			{Label: "leg", Dimensions: image.Pt(4, 4), States: []*anim.State{still("rest")}},
		},
		Skeleton: []*anim.SkeletalPiece{{Label: "arm"}, {Label: "leg"}},
	})
	inst, err := anim.NewInstance(c, "rig")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	inst.SetFrameTime(10)
	return inst
}

func TestDriverUpdate(t *testing.T) {
	src := `
update := func(engine, state) {
	engine.set_state("arm", "swing")
	engine.add_angle("arm", 0.5)
	engine.set_flip("leg", true)
	c := engine.cursor("arm")
	state.seen = c.state
	state.count = len(engine.pieces())
	state.rejected = engine.set_state("arm", "nope")
	state.missing = engine.cursor("ghost") == undefined
	state.elapsed = engine.elapsed_ms()
}
`
	d, err := Compile("inline", []byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	inst := testInstance(t)

	for i := 0; i < 2; i++ {
		if err := d.Update(inst); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	arm, _ := inst.Cursor("arm")
	if arm.StateLabel != "swing" {
		t.Fatalf("expected swing, got %s", arm.StateLabel)
	}
	if arm.Angle != 1.0 {
		t.Fatalf("expected accumulated angle 1.0, got %v", arm.Angle)
	}
	leg, _ := inst.Cursor("leg")
	if !leg.Flip {
		t.Fatalf("expected leg flipped")
	}

	cases := []struct {
		key  string
		want any
	}{
		{"seen", "swing"},
		{"count", int64(2)},
		{"rejected", false},
		{"missing", true},
		{"elapsed", 20.0},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			if got := d.Value(tc.key); got != tc.want {
				t.Fatalf("expected %v (%T), got %v (%T)", tc.want, tc.want, got, got)
			}
		})
	}
	if d.Elapsed() != 20 {
		t.Fatalf("expected 20ms elapsed, got %v", d.Elapsed())
	}

	d.Reset()
	if d.Elapsed() != 0 || d.Value("seen") != nil {
		t.Fatalf("reset should clear state")
	}
}

func TestDriverCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing_update", `x := 1`},
		{"syntax", `update := func(engine, state) {`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile(tc.name, []byte(tc.src)); err == nil {
				t.Fatalf("expected compile error")
			}
		})
	}
}

func TestDriverRejectsInvalidInstance(t *testing.T) {
	d, err := Compile("inline", []byte(`update := func(engine, state) {}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := d.Update(&anim.Instance{}); err == nil {
		t.Fatalf("expected error for unconstructed instance")
	}
}

func TestEmbeddedScriptsCompile(t *testing.T) {
	for _, name := range []string{"walk_cycle.tengo", "aim_sweep.tengo"} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(name); err != nil {
				t.Fatalf("load: %v", err)
			}
		})
	}
}
