package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
	"github.com/milk9111/puppet/render"
)

const viewSize = 512

// demoGame plays one piece state as a flat frame sequence, without the
// skeleton, so its timing can be checked in isolation.
type demoGame struct {
	sheet       *ebiten.Image
	frames      []image.Rectangle
	current     int
	tick        int
	ticksPerFrm int
	scale       float64
}

func (g *demoGame) Update() error {
	if len(g.frames) <= 1 {
		return nil
	}
	g.tick++
	if g.tick >= g.ticksPerFrm {
		g.tick = 0
		g.current = (g.current + 1) % len(g.frames)
	}
	return nil
}

func (g *demoGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x00, 0x00, 0x00, 0xff})
	if len(g.frames) == 0 {
		return
	}
	r := g.frames[g.current]
	fw := float64(r.Dx()) * g.scale
	fh := float64(r.Dy()) * g.scale
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(g.scale, g.scale)
	op.GeoM.Translate((viewSize-fw)/2, (viewSize-fh)/2)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(g.sheet.SubImage(r).(*ebiten.Image), op)
}

func (g *demoGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewSize, viewSize
}

// loadFrames resolves the source rectangles of one state's part and how many
// ticks each frame stays on screen at tps.
func loadFrames(c *anim.Catalog, label, piece, state string, part int, flipped bool, tps int) ([]image.Rectangle, int, *anim.Template, error) {
	t, err := c.Get(label)
	if err != nil {
		return nil, 0, nil, err
	}
	p, ok := t.Piece(piece)
	if !ok {
		return nil, 0, nil, fmt.Errorf("%w: '%s'", anim.ErrUnknownPiece, piece)
	}
	st := p.DefaultState()
	if state != "" {
		if st, ok = p.State(state); !ok {
			return nil, 0, nil, fmt.Errorf("%w: '%s'", anim.ErrUnknownState, state)
		}
	}
	if st == nil || part < 0 || part >= len(st.Components) {
		return nil, 0, nil, fmt.Errorf("piece '%s' has no part %d", piece, part)
	}

	seq := st.Components[part].Sequence(flipped)
	frames := make([]image.Rectangle, len(seq))
	for i, comp := range seq {
		frames[i] = render.TileRect(p, comp)
	}

	ticks := 1
	if st.MsDeltaTime > 0 && tps > 0 {
		ticks = int(math.Round(st.MsDeltaTime * float64(tps) / 1000))
		if ticks < 1 {
			ticks = 1
		}
	}
	return frames, ticks, t, nil
}

func main() {
	catalogPath := flag.String("catalog", assets.DefaultCatalog, "spritesheet document")
	label := flag.String("template", "player", "template label")
	piece := flag.String("piece", "body", "piece label")
	state := flag.String("state", "", "state label, first state when empty")
	part := flag.Int("part", 0, "angle bucket index")
	flipped := flag.Bool("flipped", false, "play the flipped sequence")
	scale := flag.Float64("scale", 4, "zoom")
	flag.Parse()

	c := anim.NewCatalog()
	c.SheetSize = assets.ImageSize
	data, err := assets.LoadFile(*catalogPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.LoadBytes(data); err != nil {
		log.Fatal(err)
	}

	frames, ticks, t, err := loadFrames(c, *label, *piece, *state, *part, *flipped, ebiten.DefaultTPS)
	if err != nil {
		log.Fatal(err)
	}
	sheet := render.SheetImage(t.Spritesheet.Filename, t.Spritesheet.Width, t.Spritesheet.Height)
	g := &demoGame{sheet: sheet, frames: frames, ticksPerFrm: ticks, scale: *scale}

	ebiten.SetWindowSize(viewSize, viewSize)
	ebiten.SetWindowTitle(fmt.Sprintf("%s/%s", *label, *piece))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
