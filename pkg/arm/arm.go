// Package arm models the six-joint manipulator rig: per-joint position
// ranges, operator-commanded targets, and the smoothed positions that
// track them.
package arm

// NumJoints is the number of actuators on the rig. The wire protocol,
// the key mapping, and the dashboard all assume exactly six.
const NumJoints = 6

// Direction selects which way a joint target moves.
type Direction int

const (
	Increase Direction = iota
	Decrease
)

func (d Direction) String() string {
	if d == Decrease {
		return "decrease"
	}
	return "increase"
}

// Smoothing constants: positions within snapDistance of the target snap
// to it exactly; otherwise each tick closes a fixed fraction of the gap.
const (
	snapDistance  = 0.5
	smoothingGain = 0.1
)

// Joint is one actuator: an immutable name and range plus the moving
// target and current positions. Both positions stay inside [Min, Max].
type Joint struct {
	Name    string
	Min     float64
	Max     float64
	Target  float64
	Current float64
}

// JointView is a read-only copy of one joint's state for display.
type JointView struct {
	Name    string
	Min     float64
	Max     float64
	Target  float64
	Current float64
}

// Rig holds the authoritative state of all six joints. It is not safe
// for concurrent use; the control loop is its only mutator and hands
// copies to everyone else.
type Rig struct {
	joints [NumJoints]Joint
}

// NewRig builds a rig from validated joint configs. Home positions are
// clamped into range so the invariant holds from the first tick.
func NewRig(cfgs []JointConfig) *Rig {
	r := &Rig{}
	for i, jc := range cfgs[:NumJoints] {
		home := clamp(float64(jc.Home), float64(jc.Min), float64(jc.Max))
		r.joints[i] = Joint{
			Name:    jc.Name,
			Min:     float64(jc.Min),
			Max:     float64(jc.Max),
			Target:  home,
			Current: home,
		}
	}
	return r
}

// Adjust moves one joint's target by step in the given direction,
// clamped to the joint's range, and returns the new target. The index
// must come from the validated key mapping; anything outside 0..5
// panics.
func (r *Rig) Adjust(idx int, dir Direction, step float64) float64 {
	j := &r.joints[idx]
	if dir == Increase {
		j.Target = min(j.Max, j.Target+step)
	} else {
		j.Target = max(j.Min, j.Target-step)
	}
	return j.Target
}

// Smooth advances every joint's current position toward its target by a
// fixed fraction of the remaining gap. Once within snapDistance the
// position locks onto the target exactly, so repeated calls converge in
// a bounded number of ticks and never overshoot.
func (r *Rig) Smooth() {
	for i := range r.joints {
		j := &r.joints[i]
		diff := j.Target - j.Current
		if diff > snapDistance || diff < -snapDistance {
			j.Current += diff * smoothingGain
		} else {
			j.Current = j.Target
		}
	}
}

// Snapshot returns an independent copy of all joint state, safe to hand
// to the render side while the loop keeps mutating the rig.
func (r *Rig) Snapshot() []JointView {
	views := make([]JointView, NumJoints)
	for i, j := range r.joints {
		views[i] = JointView{
			Name:    j.Name,
			Min:     j.Min,
			Max:     j.Max,
			Target:  j.Target,
			Current: j.Current,
		}
	}
	return views
}

// Name returns the display label of one joint.
func (r *Rig) Name(idx int) string {
	return r.joints[idx].Name
}

// Targets returns the six targets truncated (not rounded) to integers,
// ready for the wire codec.
func (r *Rig) Targets() [NumJoints]int {
	var t [NumJoints]int
	for i, j := range r.joints {
		t[i] = int(j.Target)
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
