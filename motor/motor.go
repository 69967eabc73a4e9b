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

// Package motor drives DC motors from signed speed values.

package motor

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Channel identifies a motor.
type Channel int

const (
	Left  Channel = 0
	Right Channel = 1
	// Combined drive/steer topology.
	DriveMotor Channel = 0
	SteerMotor Channel = 1
)

// MaxChannels is the number of motor channels supported.
const MaxChannels = 2

// DefaultMaxPWM is the maximum duty cycle value if none is configured.
const DefaultMaxPWM = 255

// Driver is a hardware topology that drives the outputs of the motors.
// dir is -1, 0 or 1, and duty is between 0 and the maximum PWM value.
// A dir of 0 always has a duty of 0, and must leave the motor stopped
// and coasting.
type Driver interface {
	Channels() int
	Output(ch Channel, dir, duty int) error
}

// State is the last speed applied to a motor.
type State struct {
	Speed     int // Clamped speed
	Direction int // -1, 0, 1
	Duty      int
}

// Controller converts signed speeds into direction and duty cycle
// for each motor. Speeds outside the PWM range are clamped rather than
// rejected, so a control loop is never stalled by a bad value.
// The only errors returned are from the output hardware.
type Controller struct {
	Name   string
	driver Driver
	max    int
	mu     sync.Mutex // Guards state and serialises output updates
	state  [MaxChannels]State
}

// NewController creates a motor controller for the driver.
// If max is not positive, DefaultMaxPWM is used.
// The motors are not touched until Init is called.
func NewController(name string, d Driver, max int) *Controller {
	c := new(Controller)
	c.Name = name
	c.driver = d
	if max <= 0 {
		max = DefaultMaxPWM
	}
	c.max = max
	return c
}

// Max returns the maximum duty cycle value.
func (c *Controller) Max() int {
	return c.max
}

// Init stops all of the motors. It may be called at any time.
// Every channel is stopped even if an earlier one fails, and a channel
// that could not be stopped keeps its last recorded state.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	for i := 0; i < c.driver.Channels() && i < MaxChannels; i++ {
		if e := c.driver.Output(Channel(i), 0, 0); e != nil {
			if err == nil {
				err = fmt.Errorf("%s: stop motor %d: %v", c.Name, i, e)
			}
			continue
		}
		c.state[i] = State{}
	}
	if err != nil {
		return err
	}
	log.Printf("%s: motor controller initialised (%d channels, max PWM %d)", c.Name, c.driver.Channels(), c.max)
	return nil
}

// SetSpeed sets the speed of the first channel, which is the drive
// motor of a combined drive/steer actuator.
func (c *Controller) SetSpeed(spd int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(0, spd)
}

// SetSpeeds sets the speed of both motors. Both outputs are written
// before returning, and State never observes one channel changed
// without the other. An output error on one channel does not prevent
// the other channel being set.
func (c *Controller) SetSpeeds(left, right int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.set(Left, left)
	if c.driver.Channels() > 1 {
		if e := c.set(Right, right); err == nil {
			err = e
		}
	}
	return err
}

// State returns a snapshot of the current motor states.
func (c *Controller) State() [MaxChannels]State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// set applies the speed to one channel, with the lock held.
func (c *Controller) set(ch Channel, spd int) error {
	s := c.clamp(spd)
	err := c.driver.Output(ch, s.Direction, s.Duty)
	if err != nil {
		return fmt.Errorf("%s: motor %d: %v", c.Name, ch, err)
	}
	c.state[ch] = s
	log.Debugf("%s: motor %d speed %d (dir %d, duty %d)", c.Name, ch, spd, s.Direction, s.Duty)
	return nil
}

// clamp converts a speed into a direction and duty cycle.
func (c *Controller) clamp(spd int) State {
	if spd > c.max {
		spd = c.max
	} else if spd < -c.max {
		spd = -c.max
	}
	s := State{Speed: spd, Duty: spd}
	if spd > 0 {
		s.Direction = 1
	} else if spd < 0 {
		s.Direction = -1
		s.Duty = -spd
	}
	return s
}
