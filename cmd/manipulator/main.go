package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Drive DriveCommand `command:"drive" description:"Drive the manipulator from the keyboard"`
	Setup SetupCommand `command:"setup" description:"Pick the serial port and write the config file"`
	Ports PortsCommand `command:"ports" description:"List available serial ports"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Manipulator Robot - keyboard control for a six-joint actuator rig"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
