package main

import (
	"errors"
	"image"
	"testing"

	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
)

func defaultCatalog(t *testing.T) *anim.Catalog {
	t.Helper()
	data, err := assets.LoadFile(assets.DefaultCatalog)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c := anim.NewCatalog()
	if err := c.LoadBytes(data); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return c
}

func TestLoadFrames(t *testing.T) {
	c := defaultCatalog(t)

	frames, ticks, tmpl, err := loadFrames(c, "player", "body", "", 0, false, 60)
	if err != nil {
		t.Fatalf("load frames: %v", err)
	}
	if tmpl.Label != "player" || len(frames) != 3 {
		t.Fatalf("expected 3 idle frames, got %d", len(frames))
	}
	// idle holds each frame 120ms
	if ticks != 7 {
		t.Fatalf("expected 7 ticks per frame, got %d", ticks)
	}
	body, _ := tmpl.Piece("body")
	if frames[1].Min != image.Pt(body.Dimensions.X, 0) || frames[1].Size() != body.Dimensions {
		t.Fatalf("unexpected second frame %v", frames[1])
	}

	flash, ticks, _, err := loadFrames(c, "muzzle-flash", "flash", "burst", 0, false, 60)
	if err != nil || len(flash) != 2 || ticks != 2 {
		t.Fatalf("unexpected burst frames %d ticks %d (%v)", len(flash), ticks, err)
	}
}

func TestLoadFramesErrors(t *testing.T) {
	c := defaultCatalog(t)
	cases := []struct {
		name  string
		tmpl  string
		piece string
		state string
		part  int
		want  error
	}{
		{"template", "ghost", "body", "", 0, anim.ErrNotFound},
		{"piece", "player", "tail", "", 0, anim.ErrUnknownPiece},
		{"state", "player", "body", "swim", 0, anim.ErrUnknownState},
		{"part", "player", "body", "idle", 4, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := loadFrames(c, tc.tmpl, tc.piece, tc.state, tc.part, false, 60)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
