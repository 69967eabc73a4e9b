// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package motor

import (
	"fmt"

	"github.com/aamcrae/rosbridge/io"
)

// Bridge is one motor of a dual H-bridge driver (e.g L298).
// Forward and Backward are PWM outputs, Enable is a GPIO.
type Bridge struct {
	Forward  io.Setter
	Backward io.Setter
	Enable   io.Setter
}

// DualBridge drives two motors through H-bridges, with a PWM output
// for each direction and an enable line per motor.
type DualBridge struct {
	motors []Bridge
}

// NewDualBridge creates a driver for the left and right motors.
func NewDualBridge(left, right Bridge) *DualBridge {
	return &DualBridge{motors: []Bridge{left, right}}
}

// Channels returns the number of motors.
func (d *DualBridge) Channels() int {
	return len(d.motors)
}

// Output drives a motor in the direction at the duty cycle.
// The motor is enabled whenever the duty cycle is non-zero.
func (d *DualBridge) Output(ch Channel, dir, duty int) error {
	if ch < 0 || int(ch) >= len(d.motors) {
		return fmt.Errorf("no motor %d", ch)
	}
	m := &d.motors[ch]
	if duty == 0 {
		// Disable first, then coast.
		if err := m.Enable.Set(0); err != nil {
			return err
		}
		return drivePair(m.Forward, m.Backward, 0, 0)
	}
	if err := drivePair(m.Forward, m.Backward, dir, duty); err != nil {
		return err
	}
	return m.Enable.Set(1)
}

// Pair is the two PWM inputs of one channel of a combined drive/steer
// actuator (e.g ZK-BM1). The difference between the two duty cycles
// sets the direction and power.
type Pair struct {
	In1 io.Setter
	In2 io.Setter
}

// Actuator drives the drive and steer channels of a combined actuator.
type Actuator struct {
	pairs []Pair
}

// NewActuator creates a driver for the drive and steer channels.
func NewActuator(drive, steer Pair) *Actuator {
	return &Actuator{pairs: []Pair{drive, steer}}
}

// Channels returns the number of channels.
func (a *Actuator) Channels() int {
	return len(a.pairs)
}

// Output drives one input at the duty cycle and the other at 0,
// with the inputs swapped for reverse.
func (a *Actuator) Output(ch Channel, dir, duty int) error {
	if ch < 0 || int(ch) >= len(a.pairs) {
		return fmt.Errorf("no channel %d", ch)
	}
	p := &a.pairs[ch]
	return drivePair(p.In1, p.In2, dir, duty)
}

// drivePair sets one of a pair of outputs to the duty cycle according
// to the direction. The inactive output is always set to 0 before the
// active output is driven, so both are never active together.
func drivePair(fwd, back io.Setter, dir, duty int) error {
	var on, off io.Setter
	switch {
	case dir > 0:
		on, off = fwd, back
	case dir < 0:
		on, off = back, fwd
	default:
		if err := fwd.Set(0); err != nil {
			return err
		}
		return back.Set(0)
	}
	if err := off.Set(0); err != nil {
		return err
	}
	return on.Set(duty)
}
