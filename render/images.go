package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
	"golang.org/x/image/colornames"
)

var images = map[string]*ebiten.Image{}

// RegisterImage stores an image by key.
func RegisterImage(key string, img *ebiten.Image) {
	if key == "" || img == nil {
		return
	}
	images[key] = img
}

// GetImage returns a cached image by key.
func GetImage(key string) *ebiten.Image {
	if key == "" {
		return nil
	}
	return images[key]
}

// ForgetImage drops a cached image so the next LoadImage reads it again.
func ForgetImage(key string) {
	delete(images, key)
}

// LoadImage loads a spritesheet from disk or the embedded assets and caches
// it by key.
func LoadImage(key string) (*ebiten.Image, error) {
	if key == "" {
		return nil, fmt.Errorf("empty image key")
	}
	if img := GetImage(key); img != nil {
		return img, nil
	}
	img, err := loadImage(key)
	if err != nil {
		return nil, err
	}
	RegisterImage(key, img)
	return img, nil
}

// SheetImage returns the sheet for a template, falling back to a magenta
// placeholder sized w x h so missing art stays visible.
func SheetImage(key string, w, h int) *ebiten.Image {
	img, err := LoadImage(key)
	if err == nil {
		return img
	}
	log.Printf("render: spritesheet %s: %v", key, err)
	if w <= 0 || h <= 0 {
		w, h = 64, 64
	}
	img = ebiten.NewImage(w, h)
	img.Fill(colornames.Magenta)
	RegisterImage(key, img)
	return img
}

func loadImage(path string) (*ebiten.Image, error) {
	if b, err := assets.LoadFile(path); err == nil {
		if im, _, err := image.Decode(bytes.NewReader(b)); err == nil {
			return ebiten.NewImageFromImage(im), nil
		}
	}
	if b, err := os.ReadFile(path); err == nil {
		if im, _, err := image.Decode(bytes.NewReader(b)); err == nil {
			return ebiten.NewImageFromImage(im), nil
		}
	}
	return nil, fmt.Errorf("failed to load image %s", path)
}

// TileRect is the source rectangle of a component cell.
func TileRect(p *anim.Piece, c anim.Component) image.Rectangle {
	at := image.Pt(c.Tile.X*p.Dimensions.X, c.Tile.Y*p.Dimensions.Y)
	return image.Rectangle{Min: at, Max: at.Add(p.Dimensions)}
}
