package anim

import (
	"image"
	"math"
	"testing"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func bucketState() *State {
	part := func(maxDeg float64, tileX int) ComponentPart {
		return ComponentPart{
			RangeMax: deg(maxDeg),
			Default:  []Component{{Tile: image.Pt(tileX, 0)}},
			Flipped:  []Component{{Tile: image.Pt(tileX, 1)}},
		}
	}
	return &State{
		Label:      "aim",
		Components: []ComponentPart{part(30, 0), part(90, 1), part(180, 2)},
	}
}

func TestSelectComponents(t *testing.T) {
	state := bucketState()

	cases := []struct {
		name  string
		angle float64
		flip  bool
		want  image.Point // tile, or (-1,-1) when nothing is selected
	}{
		{"zero", 0, false, image.Pt(0, 0)},
		{"on_boundary", deg(30), false, image.Pt(0, 0)},
		{"just_over", deg(30) + 1e-6, false, image.Pt(1, 0)},
		{"forty_five", deg(45), false, image.Pt(1, 0)},
		{"forty_five_flipped", deg(45), true, image.Pt(1, 1)},
		{"one_twenty", deg(120), false, image.Pt(2, 0)},
		{"beyond_all", deg(200), false, image.Pt(-1, -1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectComponents(state, tc.flip, tc.angle)
			if tc.want == image.Pt(-1, -1) {
				if got != nil {
					t.Fatalf("expected no components, got %v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Tile != tc.want {
				t.Fatalf("expected tile %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSelectComponentsMissingFlipSequence(t *testing.T) {
	state := &State{Components: []ComponentPart{{
		RangeMax: math.Pi,
		Default:  []Component{{Tile: image.Pt(3, 3)}},
	}}}

	if got := SelectComponents(state, true, 0); got != nil {
		t.Fatalf("expected empty flipped sequence to yield nil, got %v", got)
	}
	if got := SelectComponents(state, false, 0); len(got) != 1 {
		t.Fatalf("expected default sequence, got %v", got)
	}
}

func TestSelectComponentsNilAndEmpty(t *testing.T) {
	if got := SelectComponents(nil, false, 0); got != nil {
		t.Fatalf("nil state should select nothing")
	}
	if got := SelectComponents(&State{}, false, 0); got != nil {
		t.Fatalf("state without parts should select nothing")
	}
}
