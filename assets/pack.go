package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/tidwall/gjson"
	bolt "go.etcd.io/bbolt"
)

var (
	templatesBucket    = []byte("templates")
	spritesheetsBucket = []byte("spritesheets")
	metaBucket         = []byte("meta")
	labelsKey          = []byte("labels")
)

// ErrNotPacked is returned when a template or sheet is missing from a pack.
var ErrNotPacked = errors.New("not in pack")

// PackStore is a bolt resource file holding one catalog document per
// template plus the spritesheets they sample.
type PackStore struct {
	db *bolt.DB
}

// OpenPack opens or creates a resource file.
func OpenPack(path string, readOnly bool) (*PackStore, error) {
	db, err := bolt.Open(path, 0666, &bolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("assets: open pack %s: %w", path, err)
	}
	p := &PackStore{db: db}
	if readOnly {
		return p, nil
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{templatesBucket, spritesheetsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("assets: init pack %s: %w", path, err)
	}
	return p, nil
}

func (p *PackStore) Close() error {
	return p.db.Close()
}

// PutTemplate stores a single-template catalog document under label. New
// labels are appended to the pack's declaration order.
func (p *PackStore) PutTemplate(label string, doc []byte) error {
	if !gjson.GetBytes(doc, "spritesheets.0").IsObject() {
		return fmt.Errorf("assets: pack template %s: document has no spritesheet", label)
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		buck := tx.Bucket(templatesBucket)
		if buck == nil {
			return fmt.Errorf("the templates bucket not found")
		}
		existed := buck.Get([]byte(label)) != nil
		if err := buck.Put([]byte(label), doc); err != nil {
			return err
		}
		if existed {
			return nil
		}
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return fmt.Errorf("the meta bucket not found")
		}
		labels := splitLabels(meta.Get(labelsKey))
		labels = append(labels, label)
		return meta.Put(labelsKey, []byte(strings.Join(labels, "\n")))
	})
}

// PutSheet stores spritesheet image bytes under their catalog filename.
func (p *PackStore) PutSheet(filename string, data []byte) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		buck := tx.Bucket(spritesheetsBucket)
		if buck == nil {
			return fmt.Errorf("the spritesheets bucket not found")
		}
		return buck.Put([]byte(filename), data)
	})
}

// Template returns the document stored for label.
func (p *PackStore) Template(label string) ([]byte, error) {
	return p.get(templatesBucket, label)
}

// Sheet returns the image bytes stored for filename.
func (p *PackStore) Sheet(filename string) ([]byte, error) {
	return p.get(spritesheetsBucket, filename)
}

// SheetSize decodes the header of a packed sheet. It matches
// anim.SheetSizeFunc.
func (p *PackStore) SheetSize(filename string) (int, int, error) {
	data, err := p.Sheet(filename)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Labels lists packed templates in the order they were first stored.
func (p *PackStore) Labels() ([]string, error) {
	var labels []string
	err := p.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return nil
		}
		labels = splitLabels(meta.Get(labelsKey))
		return nil
	})
	return labels, err
}

// Document merges every packed template back into one catalog document.
func (p *PackStore) Document() ([]byte, error) {
	labels, err := p.Labels()
	if err != nil {
		return nil, err
	}
	doc := struct {
		Spritesheets []json.RawMessage `json:"spritesheets"`
	}{Spritesheets: make([]json.RawMessage, 0, len(labels))}

	for _, label := range labels {
		data, err := p.Template(label)
		if err != nil {
			return nil, err
		}
		sheet := gjson.GetBytes(data, "spritesheets.0")
		if !sheet.IsObject() {
			return nil, fmt.Errorf("assets: packed template %s is malformed", label)
		}
		doc.Spritesheets = append(doc.Spritesheets, json.RawMessage(sheet.Raw))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (p *PackStore) get(bucket []byte, key string) ([]byte, error) {
	var out []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(bucket)
		if buck == nil {
			return fmt.Errorf("%w: %s", ErrNotPacked, key)
		}
		v := buck.Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotPacked, key)
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func splitLabels(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	return strings.Split(string(raw), "\n")
}
