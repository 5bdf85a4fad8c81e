// Package input turns raw key transitions into per-joint adjustment
// intents with initial-delay and steady-repeat semantics, the way a
// hardware jog pendant behaves.
package input

import (
	"fmt"
	"time"

	"github.com/Deamonio/Manipulator-Robot/pkg/arm"
)

// Key identifies a physical key in normalized (lowercase) form.
type Key string

// Action is what a mapped key does: move one joint in one direction.
type Action struct {
	Joint int
	Dir   arm.Direction
}

// Keymap binds keys to joint actions. The mapping is fixed at
// construction; unmapped keys never produce intents.
type Keymap map[Key]Action

// DefaultKeymap returns the stock layout: left hand on the top row
// raises joints, home row lowers them, one column per joint.
func DefaultKeymap() Keymap {
	return Keymap{
		"q": {Joint: 0, Dir: arm.Increase},
		"a": {Joint: 0, Dir: arm.Decrease},
		"w": {Joint: 1, Dir: arm.Increase},
		"s": {Joint: 1, Dir: arm.Decrease},
		"e": {Joint: 2, Dir: arm.Increase},
		"d": {Joint: 2, Dir: arm.Decrease},
		"r": {Joint: 3, Dir: arm.Increase},
		"f": {Joint: 3, Dir: arm.Decrease},
		"t": {Joint: 4, Dir: arm.Increase},
		"g": {Joint: 4, Dir: arm.Decrease},
		"y": {Joint: 5, Dir: arm.Increase},
		"h": {Joint: 5, Dir: arm.Decrease},
	}
}

// Validate rejects mappings that point outside the fixed joint set.
// Catching this here is what lets the rig treat a bad index as a
// programmer error later.
func (k Keymap) Validate() error {
	for key, action := range k {
		if action.Joint < 0 || action.Joint >= arm.NumJoints {
			return fmt.Errorf("key %q: joint index %d outside 0..%d", key, action.Joint, arm.NumJoints-1)
		}
	}
	return nil
}

// Intent is a single discrete request to adjust one joint.
type Intent struct {
	Joint int
	Dir   arm.Direction
}

// heldKey tracks one pressed key and when its next repeat is due.
type heldKey struct {
	key      Key
	action   Action
	nextFire time.Time
}

// Repeater runs one small state machine per held key: a press fires an
// immediate intent, the first repeat comes after the initial delay, and
// further repeats follow at the repeat interval until release. Keys are
// fully independent, so chording two joints works by construction.
//
// Time is passed in explicitly so the control loop's tick clock is the
// single time source.
type Repeater struct {
	keymap         Keymap
	initialDelay   time.Duration
	repeatInterval time.Duration
	held           []heldKey // press order, at most one entry per key
}

// NewRepeater validates the keymap and returns a repeater with the
// given timing. Delay and interval are distinct knobs even though the
// defaults happen to match.
func NewRepeater(keymap Keymap, initialDelay, repeatInterval time.Duration) (*Repeater, error) {
	if err := keymap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keymap: %w", err)
	}
	return &Repeater{
		keymap:         keymap,
		initialDelay:   initialDelay,
		repeatInterval: repeatInterval,
	}, nil
}

// KeyDown records a press. For a mapped key that is not already held it
// returns the immediate intent and schedules the first repeat; for
// unmapped keys and OS auto-repeat of an already-held key it reports
// false and changes nothing, timer included.
func (r *Repeater) KeyDown(k Key, now time.Time) (Intent, bool) {
	action, ok := r.keymap[k]
	if !ok {
		return Intent{}, false
	}
	if r.indexOf(k) >= 0 {
		return Intent{}, false
	}
	r.held = append(r.held, heldKey{
		key:      k,
		action:   action,
		nextFire: now.Add(r.initialDelay),
	})
	return Intent{Joint: action.Joint, Dir: action.Dir}, true
}

// KeyUp forgets a held key unconditionally, even mid-interval. A later
// press starts from scratch.
func (r *Repeater) KeyUp(k Key) {
	if i := r.indexOf(k); i >= 0 {
		r.held = append(r.held[:i], r.held[i+1:]...)
	}
}

// Tick emits one intent for every held key whose repeat is due at now
// and reschedules it one interval out. Intents come back in press
// order.
func (r *Repeater) Tick(now time.Time) []Intent {
	var intents []Intent
	for i := range r.held {
		h := &r.held[i]
		if now.Before(h.nextFire) {
			continue
		}
		intents = append(intents, Intent{Joint: h.action.Joint, Dir: h.action.Dir})
		h.nextFire = now.Add(r.repeatInterval)
	}
	return intents
}

// HeldCount reports how many keys are currently held.
func (r *Repeater) HeldCount() int {
	return len(r.held)
}

func (r *Repeater) indexOf(k Key) int {
	for i := range r.held {
		if r.held[i].key == k {
			return i
		}
	}
	return -1
}
