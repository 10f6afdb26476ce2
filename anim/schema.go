package anim

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/tidwall/gjson"
)

// decoder walks a parsed asset document and records the first structural
// error together with the path that produced it.
type decoder struct {
	path []string
	err  error
}

func (d *decoder) push(name string) { d.path = append(d.path, name) }
func (d *decoder) pop()             { d.path = d.path[:len(d.path)-1] }

func (d *decoder) fail(format string, args ...any) {
	if d.err != nil {
		return
	}
	where := strings.Join(d.path, ".")
	d.err = fmt.Errorf("%w: %s: %s", ErrAssetParse, where, fmt.Sprintf(format, args...))
}

func (d *decoder) field(r gjson.Result, key string) (gjson.Result, bool) {
	v := r.Get(key)
	if !v.Exists() {
		d.fail("missing required field %q", key)
		return v, false
	}
	return v, true
}

func (d *decoder) str(r gjson.Result, key string) string {
	v, ok := d.field(r, key)
	if !ok {
		return ""
	}
	if v.Type != gjson.String {
		d.fail("field %q must be a string", key)
		return ""
	}
	return v.String()
}

func (d *decoder) number(r gjson.Result, key string) float64 {
	v, ok := d.field(r, key)
	if !ok {
		return 0
	}
	if v.Type != gjson.Number {
		d.fail("field %q must be a number", key)
		return 0
	}
	return v.Float()
}

func (d *decoder) integer(r gjson.Result, key string) int {
	return int(d.number(r, key))
}

func (d *decoder) optInteger(r gjson.Result, key string) int {
	if !r.Get(key).Exists() {
		return 0
	}
	return d.integer(r, key)
}

// flag accepts 0/1 as well as JSON booleans. Missing flags read as false.
func (d *decoder) flag(r gjson.Result, key string) bool {
	v := r.Get(key)
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		return v.Int() != 0
	default:
		d.fail("field %q must be 0 or 1", key)
		return false
	}
}

func (d *decoder) list(r gjson.Result, key string, required bool) []gjson.Result {
	v := r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		if required {
			d.fail("missing required field %q", key)
		}
		return nil
	}
	if !v.IsArray() {
		d.fail("field %q must be an array", key)
		return nil
	}
	return v.Array()
}

// decodeDocument parses a spritesheets document into templates. Nothing is
// returned unless the whole document is well formed.
func decodeDocument(data []byte) ([]*Template, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrAssetParse)
	}
	root := gjson.ParseBytes(data)
	d := &decoder{path: []string{"spritesheets"}}

	sheets := d.list(root, "spritesheets", true)
	templates := make([]*Template, 0, len(sheets))
	for i, sheet := range sheets {
		d.push(fmt.Sprintf("[%d]", i))
		templates = append(templates, d.template(sheet))
		d.pop()
	}
	if d.err != nil {
		return nil, d.err
	}
	return templates, nil
}

func (d *decoder) template(r gjson.Result) *Template {
	t := &Template{
		Label: d.str(r, "label"),
		Spritesheet: Spritesheet{
			Filename: d.str(r, "filename"),
		},
	}

	for i, pr := range d.list(r, "animation-piece", true) {
		d.push(fmt.Sprintf("animation-piece[%d]", i))
		piece := d.piece(pr, t.Label)
		d.pop()
		if d.err != nil {
			return t
		}
		if existing, ok := t.Piece(piece.Label); ok {
			*existing = *piece
			continue
		}
		t.Pieces = append(t.Pieces, piece)
	}

	d.push("skeleton")
	t.Skeleton = d.skeleton(r)
	d.pop()
	return t
}

func (d *decoder) piece(r gjson.Result, animator string) *Piece {
	p := &Piece{
		Label:      d.str(r, "label"),
		Dimensions: image.Pt(d.integer(r, "dimension-x"), d.integer(r, "dimension-y")),
		Origin:     image.Pt(d.integer(r, "origin-x"), d.integer(r, "origin-y")),
	}

	order := d.integer(r, "render-order")
	if order < 0 || order >= 100 {
		log.Printf("anim: render-order for '%s' of '%s' is OOB (%d); range must be from 0 to 100: %v",
			p.Label, animator, order, ErrRenderOrderRange)
		order = 99
	}
	p.RenderOrder = order

	for i, sr := range d.list(r, "states", false) {
		d.push(fmt.Sprintf("states[%d]", i))
		state := d.state(sr)
		d.pop()
		if existing, ok := p.State(state.Label); ok {
			*existing = *state
			continue
		}
		p.States = append(p.States, state)
	}

	if d.err == nil && len(p.States) == 0 {
		log.Printf("anim: need at least one state for piece '%s' of '%s': %v", p.Label, animator, ErrEmptyStateSet)
	}
	return p
}

func (d *decoder) state(r gjson.Result) *State {
	s := &State{
		Label:            d.str(r, "label"),
		MsDeltaTime:      d.number(r, "ms-delta-time"),
		RotationMirrored: d.flag(r, "rotation-mirrored"),
		RotatePixels:     d.flag(r, "rotate-pixels"),
	}
	for i, cr := range d.list(r, "components", false) {
		d.push(fmt.Sprintf("components[%d]", i))
		s.Components = append(s.Components, ComponentPart{
			RangeMax: d.number(cr, "angle-range-max"),
			Default:  d.components(cr, "default"),
			Flipped:  d.components(cr, "flipped"),
		})
		d.pop()
	}
	s.SortComponents()
	return s
}

func (d *decoder) components(r gjson.Result, key string) []Component {
	list := d.list(r, key, false)
	out := make([]Component, 0, len(list))
	for i, cr := range list {
		d.push(fmt.Sprintf("%s[%d]", key, i))
		out = append(out, Component{
			Tile:         image.Pt(d.integer(cr, "x"), d.integer(cr, "y")),
			OriginOffset: image.Pt(d.optInteger(cr, "origin-offset-x"), d.optInteger(cr, "origin-offset-y")),
		})
		d.pop()
	}
	return out
}

func (d *decoder) skeleton(r gjson.Result) []*SkeletalPiece {
	list := d.list(r, "skeleton", false)
	nodes := make([]*SkeletalPiece, 0, len(list))
	for i, nr := range list {
		d.push(fmt.Sprintf("[%d]", i))
		node := &SkeletalPiece{
			Label:  d.str(nr, "label"),
			Origin: image.Pt(d.integer(nr, "origin-x"), d.integer(nr, "origin-y")),
		}
		d.push("skeleton")
		node.Children = d.skeleton(nr)
		d.pop()
		d.pop()
		nodes = append(nodes, node)
	}
	return nodes
}

type documentJSON struct {
	Spritesheets []spritesheetJSON `json:"spritesheets"`
}

type spritesheetJSON struct {
	Label    string         `json:"label"`
	Filename string         `json:"filename"`
	Skeleton []skeletalJSON `json:"skeleton,omitempty"`
	Pieces   []pieceJSON    `json:"animation-piece"`
}

type skeletalJSON struct {
	Label    string         `json:"label"`
	OriginX  int            `json:"origin-x"`
	OriginY  int            `json:"origin-y"`
	Skeleton []skeletalJSON `json:"skeleton,omitempty"`
}

type pieceJSON struct {
	Label       string      `json:"label"`
	DimensionX  int         `json:"dimension-x"`
	DimensionY  int         `json:"dimension-y"`
	OriginX     int         `json:"origin-x"`
	OriginY     int         `json:"origin-y"`
	RenderOrder int         `json:"render-order"`
	States      []stateJSON `json:"states"`
}

type stateJSON struct {
	Label            string          `json:"label"`
	MsDeltaTime      float64         `json:"ms-delta-time"`
	RotationMirrored int             `json:"rotation-mirrored"`
	RotatePixels     int             `json:"rotate-pixels"`
	Components       []componentPart `json:"components"`
}

type componentPart struct {
	AngleRangeMax float64         `json:"angle-range-max"`
	Default       []componentJSON `json:"default"`
	Flipped       []componentJSON `json:"flipped"`
}

type componentJSON struct {
	X             int `json:"x"`
	Y             int `json:"y"`
	OriginOffsetX int `json:"origin-offset-x"`
	OriginOffsetY int `json:"origin-offset-y"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeDocument(templates []*Template) ([]byte, error) {
	doc := documentJSON{Spritesheets: make([]spritesheetJSON, 0, len(templates))}
	for _, t := range templates {
		doc.Spritesheets = append(doc.Spritesheets, encodeTemplate(t))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func encodeTemplate(t *Template) spritesheetJSON {
	out := spritesheetJSON{
		Label:    t.Label,
		Filename: t.Spritesheet.Filename,
		Skeleton: encodeSkeleton(t.Skeleton),
		Pieces:   make([]pieceJSON, 0, len(t.Pieces)),
	}
	for _, p := range t.Pieces {
		pj := pieceJSON{
			Label:       p.Label,
			DimensionX:  p.Dimensions.X,
			DimensionY:  p.Dimensions.Y,
			OriginX:     p.Origin.X,
			OriginY:     p.Origin.Y,
			RenderOrder: p.RenderOrder,
			States:      make([]stateJSON, 0, len(p.States)),
		}
		for _, s := range p.States {
			sj := stateJSON{
				Label:            s.Label,
				MsDeltaTime:      s.MsDeltaTime,
				RotationMirrored: boolInt(s.RotationMirrored),
				RotatePixels:     boolInt(s.RotatePixels),
				Components:       make([]componentPart, 0, len(s.Components)),
			}
			for _, part := range s.Components {
				sj.Components = append(sj.Components, componentPart{
					AngleRangeMax: part.RangeMax,
					Default:       encodeComponents(part.Default),
					Flipped:       encodeComponents(part.Flipped),
				})
			}
			pj.States = append(pj.States, sj)
		}
		out.Pieces = append(out.Pieces, pj)
	}
	return out
}

// encodeSkeleton returns nil for an empty list so the key is omitted, which
// is what existing documents expect.
func encodeSkeleton(nodes []*SkeletalPiece) []skeletalJSON {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]skeletalJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, skeletalJSON{
			Label:    n.Label,
			OriginX:  n.Origin.X,
			OriginY:  n.Origin.Y,
			Skeleton: encodeSkeleton(n.Children),
		})
	}
	return out
}

func encodeComponents(components []Component) []componentJSON {
	out := make([]componentJSON, 0, len(components))
	for _, c := range components {
		out = append(out, componentJSON{
			X:             c.Tile.X,
			Y:             c.Tile.Y,
			OriginOffsetX: c.OriginOffset.X,
			OriginOffsetY: c.OriginOffset.Y,
		})
	}
	return out
}
