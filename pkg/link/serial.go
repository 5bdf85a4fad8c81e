package link

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Opening the port toggles DTR, which resets Arduino-class boards; give
// the firmware time to boot before the first frame.
const settleDelay = 2 * time.Second

// OpenSerial opens the controller's serial device at the given baud
// rate (8N1) and waits out the board reset before returning.
func OpenSerial(path string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	time.Sleep(settleDelay)
	return port, nil
}
