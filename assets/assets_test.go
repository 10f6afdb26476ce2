package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/puppet/anim"
)

func TestCleanAssetPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"animations/data.json", "animations/data.json"},
		{"assets/animations/data.json", "animations/data.json"},
		{"/home/me/proj/assets/spritesheets/player.png", "spritesheets/player.png"},
		{"/tmp/elsewhere.png", "elsewhere.png"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := cleanAssetPath(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
	if got := cleanScriptPath("assets/scripts/walk_cycle.tengo"); got != "scripts/walk_cycle.tengo" {
		t.Fatalf("unexpected script path %q", got)
	}
}

func TestIsWatched(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"assets/animations/data.json", true},
		{"assets/spritesheets/player.PNG", true},
		{"assets/scripts/walk_cycle.tengo", true},
		{"config.yaml", false},
		{"notes.txt", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if got := IsWatched(tc.path); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDefaultCatalogLoads(t *testing.T) {
	data, err := LoadFile(DefaultCatalog)
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	c := anim.NewCatalog()
	c.SheetSize = ImageSize
	if err := c.LoadBytes(data); err != nil {
		t.Fatalf("parse default catalog: %v", err)
	}
	player, err := c.Get("player")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if player.Spritesheet.Width != 256 || player.Spritesheet.Height != 128 {
		t.Fatalf("unexpected sheet size %+v", player.Spritesheet)
	}
	if len(Scripts()) != 2 {
		t.Fatalf("expected two embedded scripts, got %v", Scripts())
	}
}

func TestLoadSpec(t *testing.T) {
	type spec struct {
		Name  string  `yaml:"name"`
		Scale float64 `yaml:"scale"`
	}
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("name: rig\nscale: 2.5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadSpec[spec](path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if got.Name != "rig" || got.Scale != 2.5 {
		t.Fatalf("unexpected spec %+v", got)
	}
	if _, err := LoadSpec[spec](filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPackStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.res")
	pack, err := OpenPack(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	src := anim.NewCatalog()
	data, err := LoadFile(DefaultCatalog)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := src.LoadBytes(data); err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, tmpl := range src.Templates() {
		doc, err := anim.MarshalTemplate(tmpl)
		if err != nil {
			t.Fatalf("marshal %s: %v", tmpl.Label, err)
		}
		if err := pack.PutTemplate(tmpl.Label, doc); err != nil {
			t.Fatalf("pack %s: %v", tmpl.Label, err)
		}
	}
	// storing again keeps the original order
	first := src.Templates()[0]
	doc, _ := anim.MarshalTemplate(first)
	if err := pack.PutTemplate(first.Label, doc); err != nil {
		t.Fatalf("repack: %v", err)
	}
	sheet, err := LoadFile("spritesheets/player.png")
	if err != nil {
		t.Fatalf("load sheet: %v", err)
	}
	if err := pack.PutSheet("spritesheets/player.png", sheet); err != nil {
		t.Fatalf("pack sheet: %v", err)
	}
	if err := pack.PutTemplate("bad", []byte(`{}`)); err == nil {
		t.Fatalf("expected malformed document to be rejected")
	}
	if err := pack.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pack, err = OpenPack(path, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pack.Close()

	labels, err := pack.Labels()
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if len(labels) != 2 || labels[0] != "player" || labels[1] != "muzzle-flash" {
		t.Fatalf("unexpected labels %v", labels)
	}

	merged, err := pack.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	dst := anim.NewCatalog()
	dst.SheetSize = pack.SheetSize
	if err := dst.LoadBytes(merged); err != nil {
		t.Fatalf("load packed: %v", err)
	}
	player, err := dst.Get("player")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if player.NodeCount() != 5 || player.Spritesheet.Width != 256 {
		t.Fatalf("unexpected packed template: nodes=%d sheet=%+v", player.NodeCount(), player.Spritesheet)
	}

	if _, err := pack.Sheet("spritesheets/missing.png"); !errors.Is(err, ErrNotPacked) {
		t.Fatalf("expected ErrNotPacked, got %v", err)
	}
}
