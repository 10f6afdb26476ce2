package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
)

func main() {
	catalogPath := flag.String("catalog", assets.DefaultCatalog, "spritesheet document to inspect")
	packPath := flag.String("pack", "", "bbolt pack built by animpack, overrides -catalog")
	tps := flag.Int("tps", 60, "frames stepped per second")
	logPath := flag.String("log", "", "write log output to this file instead of discarding it")
	flag.Parse()

	c, err := loadCatalog(*catalogPath, *packPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	if *tps <= 0 {
		*tps = 60
	}

	// the screen owns the terminal from here on
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	run(screen, newInspector(c, 1000.0/float64(*tps)), time.Second/time.Duration(*tps))
}

func loadCatalog(catalogPath, packPath string) (*anim.Catalog, error) {
	c := anim.NewCatalog()
	if packPath == "" {
		c.SheetSize = assets.ImageSize
		data, err := assets.LoadFile(catalogPath)
		if err != nil {
			return nil, err
		}
		return c, c.LoadBytes(data)
	}

	store, err := assets.OpenPack(packPath, true)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	c.SheetSize = store.SheetSize
	data, err := store.Document()
	if err != nil {
		return nil, err
	}
	return c, c.LoadBytes(data)
}

func run(screen tcell.Screen, in *inspector, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !in.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			in.step()
			draw(screen, in)
		}
	}
}

func draw(screen tcell.Screen, in *inspector) {
	screen.Clear()
	header := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	body := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for y, line := range in.lines() {
		style := body
		if y == 0 {
			style = header
		}
		x := 0
		for _, r := range line {
			screen.SetContent(x, y, r, nil, style)
			x++
		}
	}
	screen.Show()
}
