package editor

// Timeline is the preview clock shown next to the editor.
type Timeline struct {
	MsTimer        int
	MaxTime        int
	Loop           bool
	Playing        bool
	EmptyOnLoopEnd bool

	// Zoom magnifies the tile preview. PreviousAlpha ghosts the previous
	// frame under the current one, 0 disables it.
	Zoom          bool
	PreviousAlpha float32
}

// NewTimeline returns a playing, looping one second timeline.
func NewTimeline() Timeline {
	return Timeline{MaxTime: 1000, Loop: true, Playing: true}
}

// Advance moves the timer forward by ms when playing, wrapping or clamping at
// MaxTime.
func (t *Timeline) Advance(ms int) {
	if !t.Playing {
		return
	}
	if t.MaxTime <= 0 {
		t.MsTimer = 0
		return
	}
	t.MsTimer += ms
	if t.Loop {
		t.MsTimer %= t.MaxTime
	} else if t.MsTimer > t.MaxTime {
		t.MsTimer = t.MaxTime
	}
}

// Seek sets the timer, clamped to [0, MaxTime].
func (t *Timeline) Seek(ms int) {
	t.MsTimer = clampInt(ms, 0, max(t.MaxTime, 0))
}

// Finished reports whether a non-looping timeline reached its end.
func (t *Timeline) Finished() bool {
	return !t.Loop && t.MsTimer >= t.MaxTime
}

// Visible is false once a finished timeline should blank the preview.
func (t *Timeline) Visible() bool {
	return !(t.EmptyOnLoopEnd && t.Finished())
}

// SetPreviousAlpha clamps alpha to [0,1].
func (t *Timeline) SetPreviousAlpha(alpha float32) {
	switch {
	case alpha < 0:
		alpha = 0
	case alpha > 1:
		alpha = 1
	}
	t.PreviousAlpha = alpha
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
