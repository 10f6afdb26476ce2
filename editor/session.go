package editor

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"github.com/milk9111/puppet/anim"
	"golang.design/x/clipboard"
)

var (
	ErrNothingEdited  = errors.New("no instance is being edited")
	ErrNodePath       = errors.New("no skeletal node at path")
	ErrPartIndex      = errors.New("component part index out of range")
	ErrComponentIndex = errors.New("component index out of range")
)

const (
	maxDeltaTime  = 1000
	maxOrder      = 99
	zoomedPreview = 5
)

// Clipboard receives copied template documents.
type Clipboard interface {
	WriteText(data []byte) error
}

type systemClipboard struct {
	once sync.Once
	err  error
}

func (c *systemClipboard) WriteText(data []byte) error {
	c.once.Do(func() {
		c.err = clipboard.Init()
	})
	if c.err != nil {
		return c.err
	}
	clipboard.Write(clipboard.FmtText, data)
	return nil
}

// SequenceRef names one frame sequence of a state.
type SequenceRef struct {
	Piece   string
	State   string
	Part    int
	Flipped bool
}

// Session is the editor's working state. Every edit mutates the template
// shared with live instances, then invalidates or reconstructs them so no
// stale vertices are drawn.
type Session struct {
	Catalog   *anim.Catalog
	Timeline  Timeline
	Clipboard Clipboard
	// SavePath overrides the catalog's own filename on Save.
	SavePath string

	instances []*anim.Instance
	edit      *anim.Instance
}

func NewSession(c *anim.Catalog) *Session {
	return &Session{
		Catalog:   c,
		Timeline:  NewTimeline(),
		Clipboard: &systemClipboard{},
	}
}

// Track registers a live instance so edits reach it.
func (s *Session) Track(inst *anim.Instance) {
	for _, existing := range s.instances {
		if existing == inst {
			return
		}
	}
	s.instances = append(s.instances, inst)
	if s.edit == nil {
		s.edit = inst
	}
}

func (s *Session) Untrack(inst *anim.Instance) {
	for i, existing := range s.instances {
		if existing == inst {
			s.instances = append(s.instances[:i], s.instances[i+1:]...)
			break
		}
	}
	if s.edit == inst {
		s.edit = nil
		if len(s.instances) > 0 {
			s.edit = s.instances[0]
		}
	}
}

func (s *Session) Instances() []*anim.Instance {
	return s.instances
}

// Edit selects the instance whose template the editor works on.
func (s *Session) Edit(inst *anim.Instance) {
	s.Track(inst)
	s.edit = inst
}

func (s *Session) Editing() *anim.Instance {
	return s.edit
}

// Template is the template of the edited instance.
func (s *Session) Template() (*anim.Template, error) {
	if !s.edit.Valid() {
		return nil, ErrNothingEdited
	}
	return s.edit.Animator, nil
}

// Update advances the preview timeline by one frame.
func (s *Session) Update(frameMs float64) {
	s.Timeline.Advance(int(math.Round(frameMs)))
}

func (s *Session) invalidate(t *anim.Template) {
	for _, inst := range s.instances {
		if inst.Animator == t {
			inst.Invalidate()
		}
	}
}

func (s *Session) reconstruct(t *anim.Template) {
	for _, inst := range s.instances {
		if inst.Animator != t {
			continue
		}
		if err := inst.Reconstruct(); err != nil {
			log.Printf("editor: reconstruct '%s': %v", t.Label, err)
		}
	}
}

// NodeAt resolves an index path into the skeleton forest.
func (s *Session) NodeAt(path []int) (*anim.SkeletalPiece, error) {
	t, err := s.Template()
	if err != nil {
		return nil, err
	}
	siblings, idx, err := locate(t, path)
	if err != nil {
		return nil, err
	}
	return siblings[idx], nil
}

func locate(t *anim.Template, path []int) ([]*anim.SkeletalPiece, int, error) {
	if len(path) == 0 {
		return nil, 0, fmt.Errorf("%w: %v", ErrNodePath, path)
	}
	siblings := t.Skeleton
	for depth, idx := range path {
		if idx < 0 || idx >= len(siblings) {
			return nil, 0, fmt.Errorf("%w: %v", ErrNodePath, path)
		}
		if depth == len(path)-1 {
			return siblings, idx, nil
		}
		siblings = siblings[idx].Children
	}
	return nil, 0, fmt.Errorf("%w: %v", ErrNodePath, path)
}

// AddNode appends a node for piece under parent, or as a new root when
// parent is empty. Instances are reconstructed since the slot count changes.
func (s *Session) AddNode(parent []int, piece string) error {
	t, err := s.Template()
	if err != nil {
		return err
	}
	if _, ok := t.Piece(piece); !ok {
		return fmt.Errorf("%w: '%s'", anim.ErrUnknownPiece, piece)
	}
	node := &anim.SkeletalPiece{Label: piece}
	if len(parent) == 0 {
		t.Skeleton = append(t.Skeleton, node)
	} else {
		p, err := s.NodeAt(parent)
		if err != nil {
			return err
		}
		p.Children = append(p.Children, node)
	}
	s.reconstruct(t)
	return nil
}

// RemoveNode deletes the node at path together with its subtree.
func (s *Session) RemoveNode(path []int) error {
	t, err := s.Template()
	if err != nil {
		return err
	}
	siblings, idx, err := locate(t, path)
	if err != nil {
		return err
	}
	siblings = append(siblings[:idx], siblings[idx+1:]...)
	if len(path) == 1 {
		t.Skeleton = siblings
	} else {
		parent, _ := s.NodeAt(path[:len(path)-1])
		parent.Children = siblings
	}
	s.reconstruct(t)
	return nil
}

func (s *Session) SetNodeOrigin(path []int, origin image.Point) error {
	n, err := s.NodeAt(path)
	if err != nil {
		return err
	}
	n.Origin = origin
	t, _ := s.Template()
	s.invalidate(t)
	return nil
}

func (s *Session) piece(label string) (*anim.Template, *anim.Piece, error) {
	t, err := s.Template()
	if err != nil {
		return nil, nil, err
	}
	p, ok := t.Piece(label)
	if !ok {
		return nil, nil, fmt.Errorf("%w: '%s'", anim.ErrUnknownPiece, label)
	}
	return t, p, nil
}

func (s *Session) state(piece, state string) (*anim.Template, *anim.State, error) {
	t, p, err := s.piece(piece)
	if err != nil {
		return nil, nil, err
	}
	st, ok := p.State(state)
	if !ok {
		return nil, nil, fmt.Errorf("%w: '%s' on piece '%s'", anim.ErrUnknownState, state, piece)
	}
	return t, st, nil
}

func (s *Session) sequence(ref SequenceRef) (*anim.Template, *[]anim.Component, error) {
	t, st, err := s.state(ref.Piece, ref.State)
	if err != nil {
		return nil, nil, err
	}
	if ref.Part < 0 || ref.Part >= len(st.Components) {
		return nil, nil, fmt.Errorf("%w: %d", ErrPartIndex, ref.Part)
	}
	part := &st.Components[ref.Part]
	if ref.Flipped {
		return t, &part.Flipped, nil
	}
	return t, &part.Default, nil
}

func (s *Session) SetPieceDimensions(piece string, dims image.Point) error {
	t, p, err := s.piece(piece)
	if err != nil {
		return err
	}
	p.Dimensions = image.Pt(max(dims.X, 0), max(dims.Y, 0))
	s.invalidate(t)
	return nil
}

func (s *Session) SetPieceOrigin(piece string, origin image.Point) error {
	t, p, err := s.piece(piece)
	if err != nil {
		return err
	}
	p.Origin = origin
	s.invalidate(t)
	return nil
}

// SetRenderOrder clamps order into the valid depth range.
func (s *Session) SetRenderOrder(piece string, order int) error {
	t, p, err := s.piece(piece)
	if err != nil {
		return err
	}
	p.RenderOrder = clampInt(order, 0, maxOrder)
	s.invalidate(t)
	return nil
}

func (s *Session) SetDeltaTime(piece, state string, ms float64) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	st.MsDeltaTime = math.Min(math.Max(ms, 0), maxDeltaTime)
	s.invalidate(t)
	return nil
}

func (s *Session) SetRotationMirrored(piece, state string, on bool) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	st.RotationMirrored = on
	s.invalidate(t)
	return nil
}

func (s *Session) SetRotatePixels(piece, state string, on bool) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	st.RotatePixels = on
	s.invalidate(t)
	return nil
}

// AddPart appends a part covering every angle, so it sorts last.
func (s *Session) AddPart(piece, state string) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	st.Components = append(st.Components, anim.ComponentPart{RangeMax: math.Pi})
	st.SortComponents()
	s.invalidate(t)
	return nil
}

func (s *Session) RemovePart(piece, state string, part int) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	if part < 0 || part >= len(st.Components) {
		return fmt.Errorf("%w: %d", ErrPartIndex, part)
	}
	st.Components = append(st.Components[:part], st.Components[part+1:]...)
	s.invalidate(t)
	return nil
}

// SetRangeMax updates a part's threshold, clamped to [0, pi]. Parts are only
// re-sorted once dragging stops so the edited part keeps its index.
func (s *Session) SetRangeMax(piece, state string, part int, rangeMax float64, dragging bool) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	if part < 0 || part >= len(st.Components) {
		return fmt.Errorf("%w: %d", ErrPartIndex, part)
	}
	st.Components[part].RangeMax = math.Min(math.Max(rangeMax, 0), math.Pi)
	if !dragging {
		st.SortComponents()
	}
	s.invalidate(t)
	return nil
}

// SortParts restores threshold order after a drag.
func (s *Session) SortParts(piece, state string) error {
	t, st, err := s.state(piece, state)
	if err != nil {
		return err
	}
	st.SortComponents()
	s.invalidate(t)
	return nil
}

// AddComponent appends an empty frame, used to start an empty sequence.
func (s *Session) AddComponent(ref SequenceRef) error {
	t, seq, err := s.sequence(ref)
	if err != nil {
		return err
	}
	*seq = append(*seq, anim.Component{})
	s.invalidate(t)
	return nil
}

// InsertComponent duplicates frame i right after itself, one tile to the
// right.
func (s *Session) InsertComponent(ref SequenceRef, i int) error {
	t, seq, err := s.sequence(ref)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*seq) {
		return fmt.Errorf("%w: %d", ErrComponentIndex, i)
	}
	dup := (*seq)[i]
	dup.Tile.X++
	out := make([]anim.Component, 0, len(*seq)+1)
	out = append(out, (*seq)[:i+1]...)
	out = append(out, dup)
	out = append(out, (*seq)[i+1:]...)
	*seq = out
	s.invalidate(t)
	return nil
}

func (s *Session) RemoveComponent(ref SequenceRef, i int) error {
	t, seq, err := s.sequence(ref)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*seq) {
		return fmt.Errorf("%w: %d", ErrComponentIndex, i)
	}
	*seq = append((*seq)[:i], (*seq)[i+1:]...)
	s.invalidate(t)
	return nil
}

func (s *Session) MoveComponentUp(ref SequenceRef, i int) error {
	return s.swapComponents(ref, i, i-1)
}

func (s *Session) MoveComponentDown(ref SequenceRef, i int) error {
	return s.swapComponents(ref, i, i+1)
}

func (s *Session) swapComponents(ref SequenceRef, i, j int) error {
	t, seq, err := s.sequence(ref)
	if err != nil {
		return err
	}
	n := len(*seq)
	if i < 0 || i >= n || j < 0 || j >= n {
		return fmt.Errorf("%w: %d", ErrComponentIndex, j)
	}
	(*seq)[i], (*seq)[j] = (*seq)[j], (*seq)[i]
	s.invalidate(t)
	return nil
}

func (s *Session) SetComponent(ref SequenceRef, i int, c anim.Component) error {
	t, seq, err := s.sequence(ref)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*seq) {
		return fmt.Errorf("%w: %d", ErrComponentIndex, i)
	}
	(*seq)[i] = c
	s.invalidate(t)
	return nil
}

// Save writes the whole catalog back to disk.
func (s *Session) Save() error {
	return s.Catalog.Save(s.SavePath)
}

// CopyTemplate puts the edited template, as a one-sheet catalog document, on
// the clipboard.
func (s *Session) CopyTemplate() error {
	t, err := s.Template()
	if err != nil {
		return err
	}
	data, err := anim.MarshalTemplate(t)
	if err != nil {
		return err
	}
	if s.Clipboard == nil {
		return fmt.Errorf("editor: no clipboard")
	}
	return s.Clipboard.WriteText(data)
}

// PreviewFrame picks the frame the timeline currently shows for a sequence,
// plus the one before it for ghosting.
func (s *Session) PreviewFrame(ref SequenceRef) (cur, prev anim.Component, ok bool) {
	if !s.Timeline.Visible() {
		return anim.Component{}, anim.Component{}, false
	}
	_, st, err := s.state(ref.Piece, ref.State)
	if err != nil {
		return anim.Component{}, anim.Component{}, false
	}
	_, seq, err := s.sequence(ref)
	if err != nil || len(*seq) == 0 {
		return anim.Component{}, anim.Component{}, false
	}
	n := len(*seq)
	idx := 0
	if st.MsDeltaTime > 0 {
		idx = int(float64(s.Timeline.MsTimer)/st.MsDeltaTime) % n
	}
	return (*seq)[idx], (*seq)[(n+idx-1)%n], true
}

// PreviewScale is the tile preview magnification.
func (s *Session) PreviewScale() float64 {
	if s.Timeline.Zoom {
		return zoomedPreview
	}
	return 1
}
