package anim

// SelectComponents returns the frames to display for a state at the given
// absolute rotation. Parts are scanned in ascending RangeMax order and the
// first one covering the angle wins. A nil result means no visible geometry.
func SelectComponents(state *State, flip bool, absoluteAngle float64) []Component {
	if state == nil {
		return nil
	}
	for i := range state.Components {
		part := &state.Components[i]
		if part.RangeMax < absoluteAngle {
			continue
		}
		seq := part.Sequence(flip)
		if len(seq) == 0 {
			return nil
		}
		return seq
	}
	return nil
}
