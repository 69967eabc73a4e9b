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

// Package robot builds the encoders and motors of a robot from
// its configuration.

package robot

import (
	"fmt"
	"time"

	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/io"
	"github.com/aamcrae/rosbridge/motor"
	log "github.com/sirupsen/logrus"
)

// Hardware opens the I/O used by the robot.
type Hardware interface {
	Input(gpio int) (encoder.Input, error)
	Output(gpio int) (io.Setter, error)
	PWM(unit int, period time.Duration, max int) (io.PWM, error)
}

// Sysfs is the Hardware of a Linux board, using sysfs GPIOs
// and either hardware PWM units or software PWM on GPIOs.
type Sysfs struct {
	Software bool // Use s/w PWM on GPIOs
}

// Input opens a GPIO as an encoder line, with edge detection on both edges.
func (s *Sysfs) Input(gpio int) (encoder.Input, error) {
	return io.InputLine(gpio)
}

// Output opens a GPIO as an output.
func (s *Sysfs) Output(gpio int) (io.Setter, error) {
	return io.OutputPin(gpio)
}

// PWM opens a PWM output.
func (s *Sysfs) PWM(unit int, period time.Duration, max int) (io.PWM, error) {
	if !s.Software {
		return io.NewHwPWM(unit, period, max)
	}
	g, err := io.OutputPin(unit)
	if err != nil {
		return nil, err
	}
	p, err := io.NewSwPWM(g, period, max)
	if err != nil {
		g.Close()
		return nil, err
	}
	return &swOutput{p, g}, nil
}

// swOutput closes the GPIO under a s/w PWM.
type swOutput struct {
	*io.SwPwm
	pin closer
}

func (s *swOutput) Close() {
	s.SwPwm.Close()
	s.pin.Close()
}

type closer interface {
	Close()
}

// Robot combines the encoders and motors.
type Robot struct {
	Name     string
	Encoders *encoder.Encoders
	Motors   *motor.Controller
	Config   *Config
	open     []closer
}

// NewRobot opens the I/O described in the configuration, starts
// the encoder watchers, and initialises the motor controller so that
// all motors are stopped.
func NewRobot(c *Config, hw Hardware) (*Robot, error) {
	r := new(Robot)
	r.Name = c.Name
	r.Config = c
	if err := r.initEncoders(c.Encoder, hw); err != nil {
		r.Close()
		return nil, fmt.Errorf("encoder: %v", err)
	}
	if err := r.initMotors(c.Motor, hw); err != nil {
		r.Close()
		return nil, fmt.Errorf("motor: %v", err)
	}
	log.Printf("%s: %s encoders, %s motor driver", r.Name, c.Encoder.Mode, c.Motor.Driver)
	return r, nil
}

func (r *Robot) initEncoders(c *EncoderConfig, hw Hardware) error {
	var s encoder.Strategy
	switch c.Mode {
	case Quadrature:
		s = encoder.NewQuadrature()
	case Pulse:
		s = encoder.NewPulse(c.Edge)
	default:
		return fmt.Errorf("%s: unknown encoder mode", c.Mode)
	}
	r.Encoders = encoder.New(r.Name, s)
	if len(c.Gpio) > encoder.MaxChannels {
		return fmt.Errorf("too many encoders (%d)", len(c.Gpio))
	}
	for i, g := range c.Gpio {
		ch := encoder.Channel(i)
		var in []encoder.Input
		for _, gp := range g {
			l, err := hw.Input(gp)
			if err != nil {
				return fmt.Errorf("gpio %d: %v", gp, err)
			}
			r.track(l)
			in = append(in, l)
		}
		var err error
		switch {
		case c.Mode == Quadrature && len(in) == 2:
			err = r.Encoders.WatchQuadrature(ch, in[0], in[1], c.Invert)
		case c.Mode == Pulse && len(in) == 1:
			err = r.Encoders.WatchPulse(ch, in[0], c.Invert)
		default:
			err = fmt.Errorf("encoder %d: wrong number of lines (%d)", i, len(in))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Robot) initMotors(c *MotorConfig, hw Hardware) error {
	if len(c.Pins) != motor.MaxChannels {
		return fmt.Errorf("%d motor channels configured, %d required", len(c.Pins), motor.MaxChannels)
	}
	pwm := func(unit int) (io.Setter, error) {
		p, err := hw.PWM(unit, c.Period, c.MaxPWM)
		if err != nil {
			return nil, fmt.Errorf("pwm %d: %v", unit, err)
		}
		r.track(p)
		return p, nil
	}
	var d motor.Driver
	switch c.Driver {
	case L298:
		var b [motor.MaxChannels]motor.Bridge
		for i, p := range c.Pins {
			if len(p) != 3 {
				return fmt.Errorf("motor %d: wrong number of pins (%d)", i, len(p))
			}
			var err error
			if b[i].Forward, err = pwm(p[0]); err != nil {
				return err
			}
			if b[i].Backward, err = pwm(p[1]); err != nil {
				return err
			}
			en, err := hw.Output(p[2])
			if err != nil {
				return fmt.Errorf("gpio %d: %v", p[2], err)
			}
			r.track(en)
			b[i].Enable = en
		}
		d = motor.NewDualBridge(b[0], b[1])
	case ZKBM1:
		var pr [motor.MaxChannels]motor.Pair
		for i, p := range c.Pins {
			if len(p) != 2 {
				return fmt.Errorf("channel %d: wrong number of pins (%d)", i, len(p))
			}
			var err error
			if pr[i].In1, err = pwm(p[0]); err != nil {
				return err
			}
			if pr[i].In2, err = pwm(p[1]); err != nil {
				return err
			}
		}
		d = motor.NewActuator(pr[0], pr[1])
	default:
		return fmt.Errorf("%s: unknown motor driver", c.Driver)
	}
	r.Motors = motor.NewController(r.Name, d, c.MaxPWM)
	return r.Motors.Init()
}

// track records I/O that must be closed.
func (r *Robot) track(v interface{}) {
	if c, ok := v.(closer); ok {
		r.open = append(r.open, c)
	}
}

// Close stops the motors and releases the I/O.
// Closing the encoder inputs terminates the watchers, since a closed
// input returns an error from Get.
func (r *Robot) Close() {
	if r.Motors != nil {
		if err := r.Motors.Init(); err != nil {
			log.Printf("%s: stopping motors: %v", r.Name, err)
		}
	}
	for i := len(r.open) - 1; i >= 0; i-- {
		r.open[i].Close()
	}
	r.open = nil
}
