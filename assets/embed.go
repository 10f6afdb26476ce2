package assets

import (
	"bytes"
	"embed"
	"image"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed animations/*.json spritesheets/*.png scripts/*.tengo
var assetsFS embed.FS

// DefaultCatalog is the catalog loaded when no path is configured.
const DefaultCatalog = "animations/data.json"

// LoadFile reads an assets-relative path, preferring the copy on disk so
// edits made while running are picked up.
func LoadFile(path string) ([]byte, error) {
	clean := cleanAssetPath(path)
	if data, err := os.ReadFile(diskAssetPath(clean)); err == nil {
		return data, nil
	}
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}
	return assetsFS.ReadFile(clean)
}

// LoadScript reads a tengo script by name, with or without the scripts/
// prefix.
func LoadScript(name string) ([]byte, error) {
	return LoadFile(cleanScriptPath(name))
}

// ImageSize decodes only the header of a spritesheet. It matches
// anim.SheetSizeFunc.
func ImageSize(path string) (int, int, error) {
	data, err := LoadFile(path)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ModTime reports when the on-disk copy of path last changed.
func ModTime(path string) (time.Time, bool) {
	info, err := os.Stat(diskAssetPath(cleanAssetPath(path)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Scripts lists the embedded tengo scripts.
func Scripts() []string {
	entries, err := fs.ReadDir(assetsFS, "scripts")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if isScriptFile(e.Name()) {
			out = append(out, "scripts/"+e.Name())
		}
	}
	return out
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		s := filepath.ToSlash(path)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "assets/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	s := cleanAssetPath(path)
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}

func diskAssetPath(clean string) string {
	return filepath.Join("assets", filepath.FromSlash(clean))
}
