package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
	"github.com/milk9111/puppet/editor"
	"github.com/milk9111/puppet/render"
)

type Game struct {
	cfg    Config
	frames int
	quit   bool

	input    *Input
	catalog  *anim.Catalog
	pack     *assets.PackStore
	actors   []*Actor
	selected int

	watcher *assets.Watcher

	session    *editor.Session
	panel      *editor.Panel
	showEditor bool

	paused  bool
	pauseUI *ebitenui.UI
}

func NewGame(cfg Config) (*Game, error) {
	g := &Game{
		cfg:        cfg,
		input:      NewInput(),
		catalog:    anim.NewCatalog(),
		showEditor: cfg.Editor,
	}

	if cfg.Pack != "" {
		pack, err := assets.OpenPack(cfg.Pack, true)
		if err != nil {
			return nil, err
		}
		g.pack = pack
		g.catalog.SheetSize = pack.SheetSize
	} else {
		g.catalog.SheetSize = assets.ImageSize
	}
	if err := g.loadCatalog(); err != nil {
		g.Close()
		return nil, err
	}

	specs := cfg.Actors
	if len(specs) == 0 {
		specs = DefaultActors(g.catalog.Labels())
	}
	g.session = editor.NewSession(g.catalog)
	g.session.SavePath = catalogSavePath(cfg.Catalog)
	for _, spec := range specs {
		a, err := NewActor(g.catalog, spec, cfg.FrameMs)
		if err != nil {
			log.Printf("skipping actor '%s': %v", spec.Label, err)
			continue
		}
		g.actors = append(g.actors, a)
		g.session.Track(a.Instance)
	}

	panel, err := editor.NewPanel(g.session)
	if err != nil {
		log.Printf("editor unavailable: %v", err)
	}
	g.panel = panel
	g.pauseUI = NewPauseUI(g)

	if cfg.Watch {
		if g.pack != nil {
			log.Printf("watch ignored: catalog comes from pack %s", cfg.Pack)
		} else if w, err := assets.NewWatcher(cfg.WatchDirs...); err != nil {
			log.Printf("failed to watch %v: %v", cfg.WatchDirs, err)
		} else {
			g.watcher = w
		}
	}

	return g, nil
}

// loadCatalog parses the document from the pack or the asset tree. A failed
// parse leaves the current templates in place.
func (g *Game) loadCatalog() error {
	var (
		data []byte
		err  error
	)
	if g.pack != nil {
		data, err = g.pack.Document()
	} else {
		data, err = assets.LoadFile(g.cfg.Catalog)
	}
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", g.cfg.Catalog, err)
	}
	if err := g.catalog.LoadBytes(data); err != nil {
		return fmt.Errorf("parse catalog %s: %w", g.cfg.Catalog, err)
	}
	if g.pack != nil {
		g.registerPackedSheets()
	}
	return nil
}

func (g *Game) registerPackedSheets() {
	for _, t := range g.catalog.Templates() {
		name := t.Spritesheet.Filename
		if name == "" || render.GetImage(name) != nil {
			continue
		}
		data, err := g.pack.Sheet(name)
		if err != nil {
			log.Printf("pack: sheet %s: %v", name, err)
			continue
		}
		im, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("pack: decode %s: %v", name, err)
			continue
		}
		render.RegisterImage(name, ebiten.NewImageFromImage(im))
	}
}

// reloadCatalog re-reads the document and rebuilds every actor against it.
func (g *Game) reloadCatalog() {
	if err := g.loadCatalog(); err != nil {
		log.Printf("reload: %v", err)
		return
	}
	for _, a := range g.actors {
		if err := a.Rebuild(); err != nil {
			log.Printf("reload actor '%s': %v", a.Spec.Label, err)
		}
	}
	log.Printf("reloaded %d templates", len(g.catalog.Templates()))
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.handleChange(name)
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("watch: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) handleChange(name string) {
	base := filepath.Base(name)
	switch {
	case assets.IsScriptFile(name):
		for _, a := range g.actors {
			if a.Spec.Script == "" || filepath.Base(a.Spec.Script) != base {
				continue
			}
			if err := a.LoadScript(); err != nil {
				log.Printf("reload script %s: %v", name, err)
			}
		}
	case assets.IsCatalogFile(name):
		if base == filepath.Base(g.cfg.Catalog) {
			g.reloadCatalog()
		}
	default:
		for _, t := range g.catalog.Templates() {
			if filepath.Base(t.Spritesheet.Filename) == base {
				render.ForgetImage(t.Spritesheet.Filename)
			}
		}
		g.reloadCatalog()
	}
}

func (g *Game) Update() error {
	g.frames++

	g.input.Update()
	g.drainWatcher()
	if g.quit {
		return ebiten.Termination
	}

	if g.input.TogglePause {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}

	if g.input.Reload {
		g.reloadCatalog()
	}
	if g.input.ToggleEditor && g.panel != nil {
		g.showEditor = !g.showEditor
	}
	if g.input.NextActor && len(g.actors) > 0 {
		g.selected = (g.selected + 1) % len(g.actors)
		g.session.Edit(g.actors[g.selected].Instance)
	}

	if a := g.selectedActor(); a != nil {
		if g.input.Flip {
			a.FlipAll()
		}
		if g.input.ResetAngle {
			a.ResetAngles()
		}
		if g.input.Rotate != 0 {
			a.Turn(g.input.Rotate * angleSpeed)
		}
	}

	if g.showEditor && g.panel != nil {
		g.session.Update(g.cfg.FrameMs)
		g.panel.Update()
	}

	for _, a := range g.actors {
		a.Update(g.actorGeoM(a))
	}
	return nil
}

func (g *Game) selectedActor() *Actor {
	if g.selected < 0 || g.selected >= len(g.actors) {
		return nil
	}
	return g.actors[g.selected]
}

func (g *Game) actorGeoM(a *Actor) ebiten.GeoM {
	var geo ebiten.GeoM
	geo.Scale(g.cfg.Zoom, g.cfg.Zoom)
	geo.Translate(a.Spec.X, a.Spec.Y)
	return geo
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.cfg.Background.Color)

	for _, a := range g.actors {
		a.Draw(screen)
	}

	label := "none"
	if a := g.selectedActor(); a != nil {
		label = a.Spec.Label
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    actor: %s (%d/%d)",
		g.frames, ebiten.ActualFPS(), label, g.selected+1, len(g.actors)))

	if g.showEditor && g.panel != nil {
		g.panel.Draw(screen)
	}
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.cfg.Width), float64(g.cfg.Height)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// Close releases the watcher and the pack.
func (g *Game) Close() error {
	var errs []error
	if g.watcher != nil {
		errs = append(errs, g.watcher.Close())
	}
	if g.pack != nil {
		errs = append(errs, g.pack.Close())
	}
	return errors.Join(errs...)
}

// catalogSavePath resolves where editor saves land: the path itself when it
// exists on disk, otherwise its place in the asset tree.
func catalogSavePath(catalog string) string {
	if _, err := os.Stat(catalog); err == nil {
		return catalog
	}
	return filepath.Join("assets", catalog)
}
