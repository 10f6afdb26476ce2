package main

import (
	"log"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/render"
	"github.com/milk9111/puppet/script"
)

const angleSpeed = 0.05

// Actor is one placed instance with its vertex batch and optional script.
type Actor struct {
	Spec     ActorSpec
	Instance *anim.Instance
	Batch    *render.Batch
	Driver   *script.Driver
}

func NewActor(c *anim.Catalog, spec ActorSpec, frameMs float64) (*Actor, error) {
	inst, err := anim.NewInstance(c, spec.Label)
	if err != nil {
		return nil, err
	}
	inst.SetFrameTime(frameMs)

	a := &Actor{Spec: spec, Instance: inst, Batch: render.NewBatch()}
	a.ApplySpec()
	if spec.Script != "" {
		if err := a.LoadScript(); err != nil {
			log.Printf("actor '%s': %v", spec.Label, err)
		}
	}
	return a, nil
}

// ApplySpec sets the starting cursors named in the spec. Unknown pieces and
// states are logged and skipped.
func (a *Actor) ApplySpec() {
	for _, piece := range sortedKeys(a.Spec.States) {
		if err := a.Instance.SetState(piece, a.Spec.States[piece]); err != nil {
			log.Printf("actor '%s': state %s: %v", a.Spec.Label, piece, err)
		}
	}
	for _, piece := range sortedKeys(a.Spec.Flip) {
		if err := a.Instance.SetFlip(piece, a.Spec.Flip[piece]); err != nil {
			log.Printf("actor '%s': flip %s: %v", a.Spec.Label, piece, err)
		}
	}
	for _, piece := range sortedKeys(a.Spec.Angles) {
		if err := a.Instance.SetAngle(piece, a.Spec.Angles[piece]); err != nil {
			log.Printf("actor '%s': angle %s: %v", a.Spec.Label, piece, err)
		}
	}
}

func (a *Actor) LoadScript() error {
	d, err := script.Load(a.Spec.Script)
	if err != nil {
		return err
	}
	a.Driver = d
	return nil
}

// Rebuild reconstructs the instance after a catalog reload and restores the
// spec cursors.
func (a *Actor) Rebuild() error {
	frameMs := a.Instance.FrameTime()
	if err := a.Instance.Reconstruct(); err != nil {
		a.Batch.Reset()
		return err
	}
	a.Instance.SetFrameTime(frameMs)
	a.ApplySpec()
	if a.Driver != nil {
		a.Driver.Reset()
	}
	return nil
}

// Update runs the script, then composites and refreshes the batch.
func (a *Actor) Update(geo ebiten.GeoM) {
	if !a.Instance.Valid() {
		a.Batch.Reset()
		return
	}
	if a.Driver != nil {
		if err := a.Driver.Update(a.Instance); err != nil {
			log.Printf("actor '%s': %v; script disabled", a.Spec.Label, err)
			a.Driver = nil
		}
	}
	a.Instance.Compute(false)
	a.Batch.Sync(a.Instance, geo)
}

// FlipAll toggles flip on every piece that has a cursor.
func (a *Actor) FlipAll() {
	for _, pc := range a.Instance.Cursors() {
		_ = a.Instance.SetFlip(pc.Piece, !pc.Cursor.Flip)
	}
}

// Turn adds delta radians to every cursor angle.
func (a *Actor) Turn(delta float64) {
	for _, pc := range a.Instance.Cursors() {
		_ = a.Instance.SetAngle(pc.Piece, pc.Cursor.Angle+delta)
	}
}

func (a *Actor) ResetAngles() {
	for _, pc := range a.Instance.Cursors() {
		_ = a.Instance.SetAngle(pc.Piece, 0)
	}
}

func (a *Actor) Draw(screen *ebiten.Image) {
	if !a.Instance.Valid() {
		return
	}
	sheet := a.Instance.Animator.Spritesheet
	a.Batch.Draw(screen, render.SheetImage(sheet.Filename, sheet.Width, sheet.Height))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
