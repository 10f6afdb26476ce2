package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	configPath := flag.String("config", "", "viewer config (yaml)")
	catalog := flag.String("catalog", "", "spritesheet document, overrides the config")
	pack := flag.String("pack", "", "bbolt pack built by animpack, overrides -catalog")
	editorOn := flag.Bool("editor", false, "start with the editor open")
	watch := flag.Bool("watch", false, "reload assets when they change on disk")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *catalog != "" {
		cfg.Catalog = *catalog
	}
	if *pack != "" {
		cfg.Pack = *pack
	}
	cfg.Editor = cfg.Editor || *editorOn
	if *watch {
		cfg.Watch = true
		cfg.applyDefaults()
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("puppet")
	ebiten.SetTPS(cfg.TPS)

	game, err := NewGame(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
