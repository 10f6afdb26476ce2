package main

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/milk9111/puppet/assets"
	"gopkg.in/yaml.v3"
)

const (
	defaultWidth  = 1280
	defaultHeight = 720
	defaultTPS    = 60
	actorSpacing  = 160
)

// Config is the viewer configuration, read from YAML.
type Config struct {
	Catalog    string      `yaml:"catalog"`
	Pack       string      `yaml:"pack"`
	Width      int         `yaml:"width"`
	Height     int         `yaml:"height"`
	TPS        int         `yaml:"tps"`
	FrameMs    float64     `yaml:"frame_ms"`
	Zoom       float64     `yaml:"zoom"`
	Editor     bool        `yaml:"editor"`
	Watch      bool        `yaml:"watch"`
	WatchDirs  []string    `yaml:"watch_dirs"`
	Background *YAMLColor  `yaml:"background"`
	Actors     []ActorSpec `yaml:"actors"`
}

// ActorSpec places one instance of a template and sets its starting cursors.
type ActorSpec struct {
	Label  string             `yaml:"label"`
	X      float64            `yaml:"x"`
	Y      float64            `yaml:"y"`
	States map[string]string  `yaml:"states"`
	Flip   map[string]bool    `yaml:"flip"`
	Angles map[string]float64 `yaml:"angles"`
	Script string             `yaml:"script"`
}

// LoadConfig reads filename and fills in defaults. An empty filename yields
// the defaults alone.
func LoadConfig(filename string) (Config, error) {
	var cfg Config
	if filename != "" {
		loaded, err := assets.LoadSpec[Config](filename)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Catalog == "" {
		c.Catalog = assets.DefaultCatalog
	}
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}
	if c.TPS <= 0 {
		c.TPS = defaultTPS
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 1000.0 / float64(c.TPS)
	}
	if c.Zoom <= 0 {
		c.Zoom = 2
	}
	if c.Watch && len(c.WatchDirs) == 0 {
		c.WatchDirs = []string{"assets/animations", "assets/spritesheets", "assets/scripts"}
	}
	if c.Background == nil {
		c.Background = &YAMLColor{Color: color.NRGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xff}}
	}
}

// DefaultActors lays out one actor per template in a row.
func DefaultActors(labels []string) []ActorSpec {
	out := make([]ActorSpec, 0, len(labels))
	for i, label := range labels {
		out = append(out, ActorSpec{
			Label: label,
			X:     float64(actorSpacing/2 + i*actorSpacing),
			Y:     float64(actorSpacing),
		})
	}
	return out
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
