// Package drive runs the fixed-rate control loop that turns key events
// into joint motion and command frames.
package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Deamonio/Manipulator-Robot/pkg/arm"
	"github.com/Deamonio/Manipulator-Robot/pkg/input"
	"github.com/Deamonio/Manipulator-Robot/pkg/link"
)

// LinkStatus describes the state of the hardware link.
type LinkStatus int

const (
	// LinkSimulated means no channel is attached; motion is simulated
	// and nothing reaches hardware.
	LinkSimulated LinkStatus = iota
	// LinkUp means the last send reached the port.
	LinkUp
	// LinkDown means the last send failed; the loop keeps running and
	// retries on the next applied intent.
	LinkDown
)

func (s LinkStatus) String() string {
	switch s {
	case LinkUp:
		return "connected"
	case LinkDown:
		return "disconnected"
	default:
		return "simulation"
	}
}

// State is one snapshot of the control loop, safe to render without
// further synchronization.
type State struct {
	Joints    []arm.JointView
	Status    string
	Link      LinkStatus
	Timestamp time.Time
}

type keyEvent struct {
	key  input.Key
	down bool
}

// Controller manages the manipulator control loop.
type Controller struct {
	rig      *arm.Rig
	rep      *input.Repeater
	ch       *link.Channel // nil means simulation only
	hz       int
	stepSize int

	// keys buffers key events from the UI until the next tick drains
	// them. Only the loop goroutine touches rig and rep.
	keys chan keyEvent

	// status and sendFailed are written by the loop goroutine only.
	status     string
	sendFailed bool

	mu      sync.RWMutex
	last    State
	running bool
	stateCh chan State
	logCh   chan string
}

// NewController builds a controller from a validated configuration.
// Passing a nil channel runs the rig in simulation.
func NewController(cfg *arm.Config, ch *link.Channel) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rep, err := input.NewRepeater(input.DefaultKeymap(), cfg.InitialDelay(), cfg.RepeatInterval())
	if err != nil {
		return nil, fmt.Errorf("create repeater: %w", err)
	}

	c := &Controller{
		rig:      arm.NewRig(cfg.Joints),
		rep:      rep,
		ch:       ch,
		hz:       cfg.Hz,
		stepSize: cfg.Step,
		status:   "System Ready",
		keys:     make(chan keyEvent, 64),
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
	c.last = c.snapshotState(time.Now())
	return c, nil
}

// Close releases the hardware channel, if any.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Snapshot returns the most recently published state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// KeyDown reports a key press to the loop.
func (c *Controller) KeyDown(k input.Key) {
	select {
	case c.keys <- keyEvent{key: k, down: true}:
	default:
		// Drop if the loop is not draining
	}
}

// KeyUp reports a key release to the loop.
func (c *Controller) KeyUp(k input.Key) {
	select {
	case c.keys <- keyEvent{key: k, down: false}:
	default:
	}
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the control loop until the context is canceled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	if c.ch != nil {
		c.log("Hardware link ready, streaming at %d Hz", c.hz)
	} else {
		c.log("No hardware link, simulating at %d Hz", c.hz)
	}
	c.log("System Ready")

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case now := <-ticker.C:
			c.step(now)
		}
	}
}

// step advances the loop one frame: drain key events, collect due
// intents, move targets, transmit if anything moved, then let the
// simulated position creep toward its target.
func (c *Controller) step(now time.Time) {
	intents := c.drainKeys(now)
	intents = append(intents, c.rep.Tick(now)...)

	for _, in := range intents {
		target := c.rig.Adjust(in.Joint, in.Dir, float64(c.stepSize))

		delta := c.stepSize
		if in.Dir == arm.Decrease {
			delta = -delta
		}
		c.status = fmt.Sprintf("Motor %d (%s): %+d → %d", in.Joint+1, c.rig.Name(in.Joint), delta, int(target))
		c.log("%s", c.status)
	}

	// One frame per tick carries every intent applied above. Sending
	// happens before smoothing so the wire sees targets, never the
	// interpolated position.
	if len(intents) > 0 {
		c.transmit()
	}

	c.rig.Smooth()
	c.publish(now)
}

func (c *Controller) drainKeys(now time.Time) []input.Intent {
	var intents []input.Intent
	for {
		select {
		case ev := <-c.keys:
			if ev.down {
				if in, ok := c.rep.KeyDown(ev.key, now); ok {
					intents = append(intents, in)
				}
			} else {
				c.rep.KeyUp(ev.key)
			}
		default:
			return intents
		}
	}
}

// transmit sends the current targets and picks up a reply if one is
// waiting. Transport failures are logged and absorbed here; motion
// simulation carries on regardless.
func (c *Controller) transmit() {
	if c.ch == nil {
		return
	}

	frame := link.EncodeFrame(c.rig.Targets())
	if err := c.ch.Send(frame); err != nil {
		c.sendFailed = true
		c.log("Send error: %v", err)
		return
	}
	c.sendFailed = false

	if raw, ok := c.ch.TryReceive(); ok {
		if reply, ok := link.DecodeReply(raw); ok {
			c.log("Reply: %s", reply)
		}
	}
}

func (c *Controller) linkStatus() LinkStatus {
	switch {
	case c.ch == nil:
		return LinkSimulated
	case c.sendFailed:
		return LinkDown
	default:
		return LinkUp
	}
}

func (c *Controller) snapshotState(now time.Time) State {
	return State{
		Joints:    c.rig.Snapshot(),
		Status:    c.status,
		Link:      c.linkStatus(),
		Timestamp: now,
	}
}

func (c *Controller) publish(now time.Time) {
	s := c.snapshotState(now)

	c.mu.Lock()
	c.last = s
	c.mu.Unlock()

	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.status = "System Shutdown"
	c.log("System Shutdown")
	c.publish(time.Now())
}
