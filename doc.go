// Package manipulator provides keyboard control for a six-joint
// actuator rig over a serial link.
//
// The rig's controller speaks a small ASCII protocol: six target
// positions as comma-separated integers terminated by '*'. This module
// drives that protocol from a terminal dashboard, with per-joint range
// clamping, key auto-repeat, and smoothed position simulation that
// keeps working even when the hardware is unplugged.
//
// # Installation
//
//	go install github.com/Deamonio/Manipulator-Robot/cmd/manipulator@latest
//
// # Usage
//
// Optionally run setup to pick the serial port and write a config file:
//
//	manipulator setup
//
// Then start driving:
//
//	manipulator drive
//
// Without hardware attached, drive falls back to pure simulation.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/manipulator: CLI with drive, setup and ports commands
//   - pkg/arm: Joint state, clamping, smoothing, and configuration
//   - pkg/input: Key-repeat state machine producing adjustment intents
//   - pkg/link: Wire codec and the serial transmission channel
//   - pkg/drive: The fixed-rate control loop
package manipulator
