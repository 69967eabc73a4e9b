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

package robot

import (
	"fmt"
	"time"

	"github.com/aamcrae/config"
	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/motor"
)

// Encoder decoding modes.
const (
	Quadrature = "quadrature"
	Pulse      = "pulse"
)

// Motor driver topologies.
const (
	L298  = "l298"  // Dual H-bridge
	ZKBM1 = "zkbm1" // Combined drive/steer actuator
)

// PWM output types.
const (
	HwPWM = "hw"
	SwPWM = "sw"
)

const defaultPeriod = time.Millisecond

// EncoderConfig selects the encoder decoding and the input GPIOs.
type EncoderConfig struct {
	Mode   string
	Edge   int      // Pulse counting edge mode
	Gpio   [][]int  // Per channel, A and B (quadrature) or the single line (pulse)
	Invert bool     // Lines are active low
}

// MotorConfig selects the motor topology and the outputs.
// For the L298, each channel is forward PWM, backward PWM and enable GPIO.
// For the ZK-BM1, each channel is the two PWM inputs.
// The PWM values are hardware PWM units, or GPIOs when software PWM is used.
type MotorConfig struct {
	Driver string
	Pwm    string
	Period time.Duration
	MaxPWM int
	Pins   [][]int
}

// Config is the complete hardware configuration of the robot.
type Config struct {
	Name    string
	Encoder *EncoderConfig
	Motor   *MotorConfig
}

// ReadConfig reads the robot configuration from a config file.
// Sample config:
//  [encoder]
//  mode=quadrature     # quadrature or pulse
//  left=17,27          # GPIOs for A,B lines (pulse mode uses drive=N, steer=N)
//  right=22,23
//  edge=rising         # pulse mode, count rising or both edges
//  invert=0            # 1 if encoder lines are active low
//  [motor]
//  driver=l298         # l298 or zkbm1
//  pwm=hw              # hw (sysfs PWM units) or sw (s/w PWM on GPIOs)
//  period=1ms          # PWM period
//  maxpwm=255          # Maximum speed value
//  left=0,1,13         # l298: forward, backward, enable (zkbm1 uses drive=IN1,IN2, steer=IN3,IN4)
//  right=2,3,12
func ReadConfig(file string) (*Config, error) {
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(file, conf)
}

// Parse extracts the robot configuration from parsed config sections.
func Parse(name string, conf *config.Config) (*Config, error) {
	var err error
	c := &Config{Name: name}
	c.Encoder, err = encoderConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("encoder: %v", err)
	}
	c.Motor, err = motorConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("motor: %v", err)
	}
	return c, nil
}

func encoderConfig(conf *config.Config) (*EncoderConfig, error) {
	s := conf.GetSection("encoder")
	if s == nil {
		return nil, fmt.Errorf("no config section")
	}
	var e EncoderConfig
	mode, err := s.GetArg("mode")
	if err != nil {
		return nil, fmt.Errorf("mode: %v", err)
	}
	e.Mode = mode
	switch mode {
	case Quadrature:
		for _, n := range []string{"left", "right"} {
			var a, b int
			cnt, err := s.Parse(n, "%d,%d", &a, &b)
			if err != nil {
				return nil, fmt.Errorf("%s: %v", n, err)
			}
			if cnt != 2 {
				return nil, fmt.Errorf("%s: argument count", n)
			}
			e.Gpio = append(e.Gpio, []int{a, b})
		}
	case Pulse:
		for _, n := range []string{"drive", "steer"} {
			var a int
			cnt, err := s.Parse(n, "%d", &a)
			if err != nil {
				return nil, fmt.Errorf("%s: %v", n, err)
			}
			if cnt != 1 {
				return nil, fmt.Errorf("%s: argument count", n)
			}
			e.Gpio = append(e.Gpio, []int{a})
		}
		e.Edge = encoder.Rising
		if edge, err := s.GetArg("edge"); err == nil {
			switch edge {
			case "rising":
				e.Edge = encoder.Rising
			case "both":
				e.Edge = encoder.Both
			default:
				return nil, fmt.Errorf("%s: unknown edge mode", edge)
			}
		}
	default:
		return nil, fmt.Errorf("%s: unknown encoder mode", mode)
	}
	var inv int
	if n, err := s.Parse("invert", "%d", &inv); err == nil && n == 1 {
		e.Invert = inv != 0
	}
	return &e, nil
}

func motorConfig(conf *config.Config) (*MotorConfig, error) {
	s := conf.GetSection("motor")
	if s == nil {
		return nil, fmt.Errorf("no config section")
	}
	var m MotorConfig
	d, err := s.GetArg("driver")
	if err != nil {
		return nil, fmt.Errorf("driver: %v", err)
	}
	m.Driver = d
	var names []string
	var pins int
	switch d {
	case L298:
		names = []string{"left", "right"}
		pins = 3
	case ZKBM1:
		names = []string{"drive", "steer"}
		pins = 2
	default:
		return nil, fmt.Errorf("%s: unknown motor driver", d)
	}
	for _, n := range names {
		p := make([]int, 3)
		cnt, err := s.Parse(n, "%d,%d,%d", &p[0], &p[1], &p[2])
		if cnt != pins {
			if err == nil {
				err = fmt.Errorf("argument count")
			}
			return nil, fmt.Errorf("%s: %v", n, err)
		}
		m.Pins = append(m.Pins, p[:pins])
	}
	m.Pwm = HwPWM
	if p, err := s.GetArg("pwm"); err == nil {
		if p != HwPWM && p != SwPWM {
			return nil, fmt.Errorf("%s: unknown PWM type", p)
		}
		m.Pwm = p
	}
	m.Period = defaultPeriod
	if p, err := s.GetArg("period"); err == nil {
		m.Period, err = time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("period: %v", err)
		}
		if m.Period <= 0 {
			return nil, fmt.Errorf("period: %s must be positive", p)
		}
	}
	m.MaxPWM = motor.DefaultMaxPWM
	if n, err := s.Parse("maxpwm", "%d", &m.MaxPWM); err == nil && n == 1 && m.MaxPWM <= 0 {
		return nil, fmt.Errorf("maxpwm: %d must be positive", m.MaxPWM)
	}
	return &m, nil
}
