package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrChannelClosed reports a send on a closed channel.
var ErrChannelClosed = errors.New("link channel is closed")

// SendError wraps a transport failure during a frame send. The control
// loop logs it and keeps running; it never propagates further.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// replyBuffer bounds how many undrained reply lines are kept; beyond
// that the oldest behavior is simply to drop new lines, since replies
// are diagnostics, not data.
const replyBuffer = 8

// Channel owns the byte stream to the hardware controller. Sends are
// synchronous writes; replies are drained continuously by a reader
// goroutine so TryReceive never blocks the control loop, even with a
// silent or disconnected peer.
type Channel struct {
	port    Port
	replies chan []byte

	mu     sync.Mutex
	closed bool
}

// NewChannel wraps an open port and starts draining reply lines.
func NewChannel(port Port) *Channel {
	c := &Channel{
		port:    port,
		replies: make(chan []byte, replyBuffer),
	}
	go c.readLoop()
	return c
}

// readLoop scans newline-terminated replies off the port until it
// closes or errors. Lines nobody consumes in time are dropped.
func (c *Channel) readLoop() {
	scan := bufio.NewScanner(c.port)
	for scan.Scan() {
		line := append([]byte(nil), scan.Bytes()...)
		select {
		case c.replies <- line:
		default:
		}
	}
}

// Send writes one encoded frame to the port. Any failure, including a
// short write, comes back as a *SendError for the caller to log.
func (c *Channel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &SendError{Err: ErrChannelClosed}
	}

	n, err := c.port.Write(frame)
	if err != nil {
		return &SendError{Err: err}
	}
	if n != len(frame) {
		return &SendError{Err: io.ErrShortWrite}
	}
	return nil
}

// TryReceive hands back one buffered reply line if any has arrived.
// It never blocks.
func (c *Channel) TryReceive() ([]byte, bool) {
	select {
	case line := <-c.replies:
		return line, true
	default:
		return nil, false
	}
}

// Close shuts the underlying port, which also unblocks the reader.
// Buffered replies remain drainable afterward.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}
