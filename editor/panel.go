package editor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/ebitenui/ebitenui"
	uiimage "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/render"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	deltaStep  = 10
	rangeStep  = math.Pi / 36
	previewPad = 16
)

// Panel is the in-game editor overlay: piece and state lists, edit buttons
// and a tile preview driven by the session timeline.
type Panel struct {
	session *Session
	ui      *ebitenui.UI
	face    text.Face

	status *widget.Text
	detail *widget.Text
	pieces *widget.List
	states *widget.List

	playBtn *widget.Button
	loopBtn *widget.Button
	zoomBtn *widget.Button

	template *anim.Template
	piece    string
	state    string
	part     int
}

// solidNineSlice returns a solid color *image.NineSlice for widget backgrounds.
func solidNineSlice(c color.Color) *uiimage.NineSlice {
	return uiimage.NewNineSliceColor(c)
}

func newEditorTheme(fontFace *text.Face) *widget.Theme {
	return &widget.Theme{
		ListTheme: &widget.ListParams{
			EntryFace: fontFace,
			EntryColor: &widget.ListEntryColor{
				Unselected:          color.Black,
				Selected:            color.RGBA{0, 0, 128, 255},
				DisabledUnselected:  color.Gray{Y: 128},
				DisabledSelected:    color.Gray{Y: 64},
				SelectingBackground: color.RGBA{200, 220, 255, 255},
				SelectedBackground:  color.RGBA{180, 200, 255, 255},
			},
			ScrollContainerImage: &widget.ScrollContainerImage{
				Idle: solidNineSlice(color.RGBA{220, 220, 220, 255}),
				Mask: solidNineSlice(color.RGBA{220, 220, 220, 255}),
			},
		},
		PanelTheme: &widget.PanelParams{
			BackgroundImage: solidNineSlice(color.RGBA{40, 40, 40, 255}),
		},
		ButtonTheme: &widget.ButtonParams{
			Image: &widget.ButtonImage{
				Idle:    solidNineSlice(color.RGBA{180, 180, 180, 255}),
				Hover:   solidNineSlice(color.RGBA{200, 200, 200, 255}),
				Pressed: solidNineSlice(color.RGBA{160, 160, 160, 255}),
			},
			TextFace: fontFace,
			TextColor: &widget.ButtonTextColor{
				Idle: color.Black,
			},
		},
	}
}

func NewPanel(s *Session) (*Panel, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("editor: load font: %w", err)
	}
	p := &Panel{session: s, face: &text.GoTextFace{Source: src, Size: 14}}
	p.ui = &ebitenui.UI{PrimaryTheme: newEditorTheme(&p.face)}
	p.build()
	p.refreshTemplate()
	return p, nil
}

func (p *Panel) button(label string, onClick func()) *widget.Button {
	theme := p.ui.PrimaryTheme
	return widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text(label, &p.face, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			onClick()
		}),
	)
}

func row(children ...widget.PreferredSizeLocateableWidget) *widget.Container {
	c := widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(6),
			),
		),
	)
	for _, child := range children {
		c.AddChild(child)
	}
	return c
}

func (p *Panel) build() {
	left := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(260, 400),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{40, 40, 40, 255})),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)

	p.status = widget.NewText(widget.TextOpts.Text("", &p.face, color.White))
	left.AddChild(p.status)

	left.AddChild(row(
		p.button("Save", func() {
			if err := p.session.Save(); err != nil {
				log.Printf("editor: save: %v", err)
			}
		}),
		p.button("Copy", func() {
			if err := p.session.CopyTemplate(); err != nil {
				log.Printf("editor: copy: %v", err)
			}
		}),
	))

	p.playBtn = p.button("Pause", func() {
		p.session.Timeline.Playing = !p.session.Timeline.Playing
	})
	p.loopBtn = p.button("Loop: On", func() {
		p.session.Timeline.Loop = !p.session.Timeline.Loop
	})
	p.zoomBtn = p.button("Zoom: Off", func() {
		p.session.Timeline.Zoom = !p.session.Timeline.Zoom
	})
	ghost := p.button("Ghost", func() {
		tl := &p.session.Timeline
		if tl.PreviousAlpha > 0 {
			tl.SetPreviousAlpha(0)
		} else {
			tl.SetPreviousAlpha(0.4)
		}
	})
	left.AddChild(row(p.playBtn, p.loopBtn, p.zoomBtn, ghost))

	p.pieces = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if pc, ok := e.(*anim.Piece); ok {
				return fmt.Sprintf("%s (%d)", pc.Label, pc.RenderOrder)
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			pc, ok := args.Entry.(*anim.Piece)
			if !ok {
				return
			}
			p.selectPiece(pc)
		}),
	)
	left.AddChild(p.pieces)

	p.states = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if st, ok := e.(*anim.State); ok {
				return st.Label
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			st, ok := args.Entry.(*anim.State)
			if !ok {
				return
			}
			p.state = st.Label
			p.part = 0
			if inst := p.session.Editing(); inst != nil {
				if err := inst.SetState(p.piece, st.Label); err != nil {
					log.Printf("editor: preview state: %v", err)
				}
			}
		}),
	)
	left.AddChild(p.states)

	stateButton := func(label string, fn func(*anim.State) error) *widget.Button {
		return p.button(label, func() { p.editState(fn) })
	}
	pieceButton := func(label string, fn func(*anim.Piece) error) *widget.Button {
		return p.button(label, func() { p.editPiece(fn) })
	}

	left.AddChild(row(
		stateButton("Mirror", func(st *anim.State) error {
			return p.session.SetRotationMirrored(p.piece, p.state, !st.RotationMirrored)
		}),
		stateButton("Rotate px", func(st *anim.State) error {
			return p.session.SetRotatePixels(p.piece, p.state, !st.RotatePixels)
		}),
		stateButton("Delay -", func(st *anim.State) error {
			return p.session.SetDeltaTime(p.piece, p.state, st.MsDeltaTime-deltaStep)
		}),
		stateButton("Delay +", func(st *anim.State) error {
			return p.session.SetDeltaTime(p.piece, p.state, st.MsDeltaTime+deltaStep)
		}),
	))

	left.AddChild(row(
		stateButton("Part", func(st *anim.State) error {
			if len(st.Components) > 0 {
				p.part = (p.part + 1) % len(st.Components)
			}
			return nil
		}),
		stateButton("+Part", func(*anim.State) error {
			return p.session.AddPart(p.piece, p.state)
		}),
		stateButton("Range -", func(st *anim.State) error {
			return p.nudgeRange(st, -rangeStep)
		}),
		stateButton("Range +", func(st *anim.State) error {
			return p.nudgeRange(st, rangeStep)
		}),
	))

	left.AddChild(row(
		stateButton("Frame +", func(*anim.State) error {
			return p.session.InsertComponent(p.ref(), 0)
		}),
		stateButton("Frame -", func(*anim.State) error {
			return p.session.RemoveComponent(p.ref(), 0)
		}),
		pieceButton("Order -", func(pc *anim.Piece) error {
			return p.session.SetRenderOrder(pc.Label, pc.RenderOrder-1)
		}),
		pieceButton("Order +", func(pc *anim.Piece) error {
			return p.session.SetRenderOrder(pc.Label, pc.RenderOrder+1)
		}),
	))

	p.detail = widget.NewText(widget.TextOpts.Text("", &p.face, color.White))
	left.AddChild(p.detail)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	left.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionStart,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
		StretchVertical:    true,
	}
	root.AddChild(left)
	p.ui.Container = root
}

func (p *Panel) ref() SequenceRef {
	return SequenceRef{Piece: p.piece, State: p.state, Part: p.part}
}

func (p *Panel) nudgeRange(st *anim.State, delta float64) error {
	if p.part >= len(st.Components) {
		return nil
	}
	return p.session.SetRangeMax(p.piece, p.state, p.part, st.Components[p.part].RangeMax+delta, false)
}

func (p *Panel) selected() (*anim.Piece, *anim.State) {
	if p.template == nil {
		return nil, nil
	}
	pc, ok := p.template.Piece(p.piece)
	if !ok {
		return nil, nil
	}
	st, _ := pc.State(p.state)
	return pc, st
}

func (p *Panel) editPiece(fn func(*anim.Piece) error) {
	pc, _ := p.selected()
	if pc == nil {
		return
	}
	if err := fn(pc); err != nil {
		log.Printf("editor: %v", err)
	}
}

func (p *Panel) editState(fn func(*anim.State) error) {
	_, st := p.selected()
	if st == nil {
		return
	}
	if err := fn(st); err != nil {
		log.Printf("editor: %v", err)
	}
}

func (p *Panel) selectPiece(pc *anim.Piece) {
	p.piece = pc.Label
	p.state = ""
	p.part = 0
	entries := make([]any, 0, len(pc.States))
	for _, st := range pc.States {
		entries = append(entries, st)
	}
	p.states.SetEntries(entries)
	if def := pc.DefaultState(); def != nil {
		p.state = def.Label
	}
}

// refreshTemplate repopulates the lists when the edited template changed,
// e.g. after a hot reload.
func (p *Panel) refreshTemplate() {
	t, err := p.session.Template()
	if err != nil {
		t = nil
	}
	if t == p.template {
		return
	}
	p.template = t
	p.piece, p.state, p.part = "", "", 0
	entries := []any{}
	if t != nil {
		for _, pc := range t.Pieces {
			entries = append(entries, pc)
		}
	}
	p.pieces.SetEntries(entries)
	p.states.SetEntries([]any{})
}

func (p *Panel) Update() {
	p.refreshTemplate()
	p.ui.Update()

	tl := p.session.Timeline
	label := "none"
	if p.template != nil {
		label = p.template.Label
	}
	p.status.Label = fmt.Sprintf("animator '%s'  timer %d/%d", label, tl.MsTimer, tl.MaxTime)
	if tl.Playing {
		p.setButton(p.playBtn, "Pause")
	} else {
		p.setButton(p.playBtn, "Play")
	}
	p.setButton(p.loopBtn, onOff("Loop", tl.Loop))
	p.setButton(p.zoomBtn, onOff("Zoom", tl.Zoom))

	pc, st := p.selected()
	if pc == nil || st == nil {
		p.detail.Label = ""
		return
	}
	detail := fmt.Sprintf("%s/%s\ndelta %.0fms  mirrored %v  rotate %v\ndims %v origin %v order %d\n",
		pc.Label, st.Label, st.MsDeltaTime, st.RotationMirrored, st.RotatePixels,
		pc.Dimensions, pc.Origin, pc.RenderOrder)
	for i, part := range st.Components {
		marker := " "
		if i == p.part {
			marker = ">"
		}
		detail += fmt.Sprintf("%s [%.2f] %d default, %d flipped\n",
			marker, part.RangeMax*180/math.Pi, len(part.Default), len(part.Flipped))
	}
	p.detail.Label = detail
}

func onOff(label string, on bool) string {
	if on {
		return label + ": On"
	}
	return label + ": Off"
}

func (p *Panel) setButton(b *widget.Button, label string) {
	if b == nil {
		return
	}
	if t := b.Text(); t != nil {
		t.Label = label
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	p.ui.Draw(screen)
	p.drawPreview(screen)
}

func (p *Panel) drawPreview(screen *ebiten.Image) {
	pc, st := p.selected()
	if pc == nil || st == nil {
		return
	}
	cur, prev, ok := p.session.PreviewFrame(p.ref())
	if !ok {
		return
	}
	sheet := render.SheetImage(p.template.Spritesheet.Filename, p.template.Spritesheet.Width, p.template.Spritesheet.Height)
	scale := p.session.PreviewScale()
	at := image.Pt(screen.Bounds().Dx()-int(float64(pc.Dimensions.X)*scale)-previewPad, previewPad)

	if alpha := p.session.Timeline.PreviousAlpha; alpha > 0 {
		p.drawTile(screen, sheet, pc, prev, at, scale, alpha)
	}
	p.drawTile(screen, sheet, pc, cur, at, scale, 1)
}

func (p *Panel) drawTile(screen, sheet *ebiten.Image, pc *anim.Piece, c anim.Component, at image.Point, scale float64, alpha float32) {
	rect := render.TileRect(pc, c)
	if !rect.In(sheet.Bounds()) {
		return
	}
	tile := sheet.SubImage(rect).(*ebiten.Image)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(at.X), float64(at.Y))
	op.ColorScale.ScaleAlpha(alpha)
	screen.DrawImage(tile, op)
}
