package anim

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// SheetSizeFunc reports the pixel size of a spritesheet image.
type SheetSizeFunc func(filename string) (width, height int, err error)

// Catalog holds the animator templates loaded from one spritesheets document.
type Catalog struct {
	// SheetSize resolves spritesheet resolutions at load time. When nil the
	// sheets keep a zero size and UVs are emitted in texels.
	SheetSize SheetSizeFunc

	filename  string
	templates []*Template
	version   int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Load reads and parses the document at path. On any error the catalog is
// left untouched.
func (c *Catalog) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("anim: could not load spritesheet document %s: %v", path, err)
		return fmt.Errorf("anim: load %s: %w", path, err)
	}
	if err := c.LoadBytes(data); err != nil {
		return fmt.Errorf("anim: load %s: %w", path, err)
	}
	c.filename = path
	return nil
}

// LoadBytes parses a document and replaces every template in the catalog.
func (c *Catalog) LoadBytes(data []byte) error {
	templates, err := decodeDocument(data)
	if err != nil {
		log.Printf("anim: critical: failed to parse spritesheet document: %v", err)
		return err
	}

	deduped := make([]*Template, 0, len(templates))
	index := make(map[string]int, len(templates))
	for _, t := range templates {
		if c.SheetSize != nil && t.Spritesheet.Filename != "" {
			w, h, err := c.SheetSize(t.Spritesheet.Filename)
			if err != nil {
				log.Printf("anim: spritesheet %s for '%s': %v", t.Spritesheet.Filename, t.Label, err)
			} else {
				t.Spritesheet.Width, t.Spritesheet.Height = w, h
			}
		}
		if i, ok := index[t.Label]; ok {
			deduped[i] = t
			continue
		}
		index[t.Label] = len(deduped)
		deduped = append(deduped, t)
	}

	c.templates = deduped
	c.version++
	return nil
}

// Get returns the template registered under label.
func (c *Catalog) Get(label string) (*Template, error) {
	if c != nil {
		for _, t := range c.templates {
			if t.Label == label {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, label)
}

// Put adds t, replacing any template with the same label.
func (c *Catalog) Put(t *Template) {
	if c == nil || t == nil {
		return
	}
	for i, existing := range c.templates {
		if existing.Label == t.Label {
			c.templates[i] = t
			return
		}
	}
	c.templates = append(c.templates, t)
}

// Templates returns the templates in document order.
func (c *Catalog) Templates() []*Template {
	if c == nil {
		return nil
	}
	out := make([]*Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Labels returns every template label in document order.
func (c *Catalog) Labels() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.Label)
	}
	return out
}

// Filename is the path of the last document loaded from disk.
func (c *Catalog) Filename() string {
	if c == nil {
		return ""
	}
	return c.filename
}

// Version increases every time a load is committed.
func (c *Catalog) Version() int {
	if c == nil {
		return 0
	}
	return c.version
}

// Marshal serializes the templates back into the document schema.
func (c *Catalog) Marshal() ([]byte, error) {
	if c == nil {
		return encodeDocument(nil)
	}
	return encodeDocument(c.templates)
}

// Save writes the document to path, or to the loaded filename when path is
// empty.
func (c *Catalog) Save(path string) error {
	if path == "" {
		path = c.Filename()
	}
	if path == "" {
		return fmt.Errorf("anim: save: no filename")
	}
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("anim: save %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("anim: save %s: %w", path, err)
		}
	}
	log.Printf("anim: saving json: '%s'", path)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("anim: save %s: %w", path, err)
	}
	c.filename = path
	return nil
}

// MarshalTemplate serializes a single template as a one-entry document.
func MarshalTemplate(t *Template) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("anim: marshal: nil template")
	}
	return encodeDocument([]*Template{t})
}
