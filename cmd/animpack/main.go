package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
)

var (
	catalogPath      string
	resourceFilePath string
	skipSheets       bool
)

func parseFlags() {
	flag.StringVar(&catalogPath, "catalog", assets.DefaultCatalog,
		"Spritesheet document to pack, on disk or in the embedded assets.")
	flag.StringVar(&resourceFilePath, "out", "./puppet.res",
		"Resource file to store templates and spritesheets.")
	flag.BoolVar(&skipSheets, "no-sheets", false,
		"Store template documents only.")

	flag.Parse()
}

func main() {
	parseFlags()

	n, err := pack(catalogPath, resourceFilePath, !skipSheets)
	handleError(err)
	log.Printf("packed %d templates into %s", n, resourceFilePath)
}

// pack writes every template of the catalog, and the sheets they sample, into
// the resource file at out.
func pack(catalogPath, out string, withSheets bool) (int, error) {
	data, err := assets.LoadFile(catalogPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", catalogPath, err)
	}
	c := anim.NewCatalog()
	if err := c.LoadBytes(data); err != nil {
		return 0, fmt.Errorf("parse %s: %w", catalogPath, err)
	}

	store, err := assets.OpenPack(out, false)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	packed := map[string]bool{}
	for _, t := range c.Templates() {
		doc, err := anim.MarshalTemplate(t)
		if err != nil {
			return 0, fmt.Errorf("encode '%s': %w", t.Label, err)
		}
		if err := store.PutTemplate(t.Label, doc); err != nil {
			return 0, err
		}

		sheet := t.Spritesheet.Filename
		if !withSheets || sheet == "" || packed[sheet] {
			continue
		}
		img, err := assets.LoadFile(sheet)
		if err != nil {
			log.Printf("spritesheet '%s' for '%s' not found: %v", sheet, t.Label, err)
			continue
		}
		if err := store.PutSheet(sheet, img); err != nil {
			return 0, err
		}
		packed[sheet] = true
	}
	return len(c.Templates()), nil
}

func handleError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
