package link

import (
	"io"
)

// Port is the minimal surface the link needs from a serial device.
// go.bug.st/serial ports satisfy it directly; tests use MockPort.
type Port interface {
	io.ReadWriteCloser
}
