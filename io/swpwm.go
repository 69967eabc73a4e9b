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

package io

import (
	"fmt"
	"sync/atomic"
	"time"
)

// SwPwm is a software PWM driving a GPIO output from a goroutine.
// Timing is only as good as the scheduler allows, so this is
// suited to boards that run out of hardware PWM units.
type SwPwm struct {
	pin    Setter
	period time.Duration
	max    int
	duty   int64 // Current duty cycle, read by the handler each period
	stop   chan chan bool
}

// NewSwPWM creates a new s/w PWM controller on the pin, initially
// with a 0 duty cycle.
func NewSwPWM(pin Setter, period time.Duration, max int) (*SwPwm, error) {
	if max <= 0 {
		return nil, fmt.Errorf("invalid maximum %d", max)
	}
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %s", period.String())
	}
	p := new(SwPwm)
	p.pin = pin
	p.period = period
	p.max = max
	p.stop = make(chan chan bool)
	go p.handler()
	return p, nil
}

// Close stops the PWM controller and leaves the output low.
func (p *SwPwm) Close() {
	sc := make(chan bool)
	p.stop <- sc
	<-sc
}

// Set sets the duty cycle as a value between 0 and the maximum.
// The change takes place at the end of the current period.
func (p *SwPwm) Set(duty int) error {
	if err := checkDuty(duty, p.max); err != nil {
		return err
	}
	atomic.StoreInt64(&p.duty, int64(duty))
	return nil
}

// goroutine handler
// Runs the output, checking for a new duty cycle after each period.
func (p *SwPwm) handler() {
	current := 0
	p.pin.Set(0)
	for {
		on := p.period * time.Duration(atomic.LoadInt64(&p.duty)) / time.Duration(p.max)
		off := p.period - on
		if on != 0 {
			if current != 1 {
				p.pin.Set(1)
				current = 1
			}
			time.Sleep(on)
		}
		if off != 0 {
			if current != 0 {
				p.pin.Set(0)
				current = 0
			}
			time.Sleep(off)
		}
		select {
		case sc := <-p.stop:
			p.pin.Set(0)
			sc <- true
			return
		default:
		}
	}
}
