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
	"os"
	"strconv"
	"time"
)

const pwmChip = "/sys/class/pwm/pwmchip0/"

// HwPwm is a hardware PWM unit accessed via sysfs.
// The period is fixed when the unit is opened, and the duty cycle
// is set as a value between 0 and max.
type HwPwm struct {
	unit   int
	dir    string
	duty   *os.File
	max    int
	period int64 // nanoseconds
}

// NewHwPWM opens and enables a hardware PWM unit, initially
// with a 0 duty cycle.
func NewHwPWM(unit int, period time.Duration, max int) (*HwPwm, error) {
	if max <= 0 {
		return nil, fmt.Errorf("pwm%d: invalid maximum %d", unit, max)
	}
	if period.Nanoseconds() < 15 {
		return nil, fmt.Errorf("pwm%d: invalid period %s", unit, period)
	}
	p := &HwPwm{unit: unit, dir: fmt.Sprintf("%spwm%d/", pwmChip, unit), max: max, period: period.Nanoseconds()}
	if err := exportUnit(pwmChip+"export", unit, p.dir+"duty_cycle"); err != nil {
		return nil, fmt.Errorf("pwm%d: %v", unit, err)
	}
	// The duty cycle may never exceed the period, so it is
	// cleared before the period is changed.
	err := writeAttr(p.dir+"duty_cycle", "0")
	if err == nil {
		err = writeAttr(p.dir+"period", strconv.FormatInt(p.period, 10))
	}
	if err == nil {
		p.duty, err = os.OpenFile(p.dir+"duty_cycle", os.O_WRONLY, 0)
	}
	if err == nil {
		err = writeAttr(p.dir+"enable", "1")
	}
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("pwm%d: %v", unit, err)
	}
	return p, nil
}

// Close disables the output and releases the unit.
func (p *HwPwm) Close() {
	writeAttr(p.dir+"enable", "0")
	if p.duty != nil {
		p.duty.Close()
	}
	writeAttr(pwmChip+"unexport", strconv.Itoa(p.unit))
}

// Set sets the duty cycle as a value between 0 and the maximum.
func (p *HwPwm) Set(duty int) error {
	if err := checkDuty(duty, p.max); err != nil {
		return fmt.Errorf("pwm%d: %v", p.unit, err)
	}
	_, err := p.duty.WriteAt([]byte(strconv.FormatInt(p.period*int64(duty)/int64(p.max), 10)), 0)
	return err
}
