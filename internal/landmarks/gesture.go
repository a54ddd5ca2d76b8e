package landmarks

// Gesture is the coarse hand pose.
type Gesture string

const (
	GestureFist  Gesture = "fist"
	GesturePoint Gesture = "point"
	GesturePalm  Gesture = "palm"
	GestureNone  Gesture = "none"
)

// fingerJoints holds (pip, dip, tip) for the four non-thumb fingers.
var fingerJoints = [4][3]int{
	{IndexPIP, IndexDIP, IndexTip},
	{MiddlePIP, MiddleDIP, MiddleTip},
	{RingPIP, RingDIP, RingTip},
	{PinkyPIP, PinkyDIP, PinkyTip},
}

// OpenFingers reports, for index, middle, ring and pinky, whether the finger
// is extended upward: both the DIP joint and the tip sit above the PIP joint.
func (h Hand) OpenFingers() [4]bool {
	var open [4]bool
	for i, j := range fingerJoints {
		pip := h[j[0]].Y
		open[i] = h[j[1]].Y < pip && h[j[2]].Y < pip
	}
	return open
}

// Classify maps the open fingers onto a gesture. The thumb is ignored.
func (h Hand) Classify() Gesture {
	open := h.OpenFingers()
	index, middle, ring, pinky := open[0], open[1], open[2], open[3]

	switch {
	case !index && !middle && !ring && !pinky:
		return GestureFist
	case !ring && !pinky && (index || middle):
		return GesturePoint
	case index && middle && ring && pinky:
		return GesturePalm
	}
	return GestureNone
}
