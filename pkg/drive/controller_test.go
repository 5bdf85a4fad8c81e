package drive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Deamonio/Manipulator-Robot/pkg/arm"
	"github.com/Deamonio/Manipulator-Robot/pkg/input"
	"github.com/Deamonio/Manipulator-Robot/pkg/link"
)

func newTestController(t *testing.T, ch *link.Channel) *Controller {
	t.Helper()
	c, err := NewController(arm.DefaultConfig(), ch)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestNewController_RejectsBadConfig(t *testing.T) {
	cfg := arm.DefaultConfig()
	cfg.Joints = cfg.Joints[:5]
	if _, err := NewController(cfg, nil); err == nil {
		t.Fatal("config with five joints accepted")
	}
}

func TestController_InitialSnapshot(t *testing.T) {
	c := newTestController(t, nil)

	s := c.Snapshot()
	if s.Status != "System Ready" {
		t.Errorf("status = %q, want %q", s.Status, "System Ready")
	}
	if len(s.Joints) != arm.NumJoints {
		t.Fatalf("snapshot has %d joints, want %d", len(s.Joints), arm.NumJoints)
	}
	if s.Joints[3].Current != 956 {
		t.Errorf("elbow starts at %f, want home 956", s.Joints[3].Current)
	}
	if s.Link != LinkSimulated {
		t.Errorf("link without channel = %v, want %v", s.Link, LinkSimulated)
	}
}

func TestController_FirstPressSendsFrame(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	c.KeyDown("q")
	c.step(time.Now())

	if got := port.Written(); !bytes.Equal(got, []byte("515,512,512,956,800,430*")) {
		t.Errorf("port received %q, want %q", got, "515,512,512,956,800,430*")
	}
	if got := c.Snapshot().Link; got != LinkUp {
		t.Errorf("link after send = %v, want %v", got, LinkUp)
	}
}

func TestController_NoInputNoFrames(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	base := time.Now()
	for i := 0; i < 10; i++ {
		c.step(base.Add(time.Duration(i*16) * time.Millisecond))
	}

	if got := port.Written(); len(got) != 0 {
		t.Errorf("idle loop wrote %q", got)
	}
}

func TestController_UnmappedKeyIgnored(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	c.KeyDown("z")
	c.step(time.Now())

	if got := port.Written(); len(got) != 0 {
		t.Errorf("unmapped key produced frame %q", got)
	}
	if got := c.Snapshot().Status; got != "System Ready" {
		t.Errorf("status = %q, want unchanged %q", got, "System Ready")
	}
}

func TestController_HeldKeyTransmitsAtRepeatCadence(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	// Hold the base-increase key across nine 16ms ticks. The press
	// fires at t=0; with a 50ms delay and interval, the repeats land
	// on the 64ms and 128ms ticks.
	base := time.Now()
	c.KeyDown("q")
	for i := 0; i <= 8; i++ {
		c.step(base.Add(time.Duration(i*16) * time.Millisecond))
	}

	written := string(port.Written())
	frames := strings.Split(strings.TrimSuffix(written, "*"), "*")
	want := []string{
		"515,512,512,956,800,430",
		"518,512,512,956,800,430",
		"521,512,512,956,800,430",
	}
	if len(frames) != len(want) {
		t.Fatalf("wrote %d frames (%q), want %d", len(frames), written, len(want))
	}
	for i, f := range frames {
		if f != want[i] {
			t.Errorf("frame %d = %q, want %q", i, f, want[i])
		}
	}
}

func TestController_CoalescesIntentsIntoOneFrame(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	c.KeyDown("q")
	c.KeyDown("w")
	c.step(time.Now())

	if got := port.Written(); !bytes.Equal(got, []byte("515,515,512,956,800,430*")) {
		t.Errorf("two presses in one tick wrote %q, want single frame %q", got, "515,515,512,956,800,430*")
	}
}

func TestController_StatusReflectsLastAdjustment(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "increase", key: "q", want: "Motor 1 (Base): +3 → 515"},
		{name: "decrease", key: "a", want: "Motor 1 (Base): -3 → 509"},
		{name: "clamped at min", key: "s", want: "Motor 2 (Shoulder): -3 → 512"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, nil)
			c.KeyDown(input.Key(tt.key))
			c.step(time.Now())

			if got := c.Snapshot().Status; got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestController_SendFailureDoesNotStopMotion(t *testing.T) {
	port := &link.MockPort{WriteErr: errors.New("cable pulled")}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	base := time.Now()
	c.KeyDown("q")
	c.step(base)

	s := c.Snapshot()
	if s.Joints[0].Target != 515 {
		t.Errorf("target after failed send = %f, want 515", s.Joints[0].Target)
	}
	if s.Joints[0].Current == 512 {
		t.Error("current did not move toward target after failed send")
	}
	if s.Link != LinkDown {
		t.Errorf("link = %v, want %v", s.Link, LinkDown)
	}

	// The held key keeps adjusting against the dead link.
	c.step(base.Add(64 * time.Millisecond))
	if got := c.Snapshot().Joints[0].Target; got != 518 {
		t.Errorf("target after second failed send = %f, want 518", got)
	}
}

func TestController_RecoversWhenLinkReturns(t *testing.T) {
	port := &link.MockPort{WriteErr: errors.New("transient")}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	base := time.Now()
	c.KeyDown("q")
	c.step(base)
	if got := c.Snapshot().Link; got != LinkDown {
		t.Fatalf("link = %v, want %v", got, LinkDown)
	}

	port.WriteErr = nil
	c.step(base.Add(64 * time.Millisecond))

	if got := c.Snapshot().Link; got != LinkUp {
		t.Errorf("link after recovery = %v, want %v", got, LinkUp)
	}
	if got := port.Written(); !bytes.Equal(got, []byte("518,512,512,956,800,430*")) {
		t.Errorf("port received %q, want the recovered frame", got)
	}
}

func TestController_LogsReply(t *testing.T) {
	port := &link.MockPort{ReadData: []byte("pos set\n")}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	// Press, release, press again until the asynchronously buffered
	// reply gets picked up by a transmit.
	base := time.Now()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c.KeyDown("q")
		c.step(base)
		c.KeyUp("q")
		c.step(base.Add(16 * time.Millisecond))
		base = base.Add(100 * time.Millisecond)

		drained := false
		for !drained {
			select {
			case msg := <-c.Logs():
				if strings.Contains(msg, "Reply: pos set") {
					return
				}
			default:
				drained = true
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("reply never logged")
}

func TestController_StateChannelKeepsLatest(t *testing.T) {
	c := newTestController(t, nil)

	base := time.Now()
	c.step(base)
	c.step(base.Add(16 * time.Millisecond))

	select {
	case s := <-c.States():
		if !s.Timestamp.Equal(base.Add(16 * time.Millisecond)) {
			t.Errorf("state timestamp = %v, want the newer tick %v", s.Timestamp, base.Add(16*time.Millisecond))
		}
	default:
		t.Fatal("no state published")
	}
}

func TestController_StartStopsOnCancel(t *testing.T) {
	port := &link.MockPort{}
	c := newTestController(t, link.NewChannel(port))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	// Let a few frames pass before stopping.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	if got := c.Snapshot().Status; got != "System Shutdown" {
		t.Errorf("status after shutdown = %q, want %q", got, "System Shutdown")
	}
	if written := port.Written(); len(written) != 0 {
		t.Errorf("shutdown wrote %q; nothing should be sent without input", written)
	}
}

func TestController_DoubleStartFails(t *testing.T) {
	c := newTestController(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for {
		c.mu.RLock()
		running := c.running
		c.mu.RUnlock()
		if running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("loop never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Start(context.Background()); err == nil {
		t.Fatal("second Start returned nil")
	}
}
