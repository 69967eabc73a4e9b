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

// Package io provides the outputs and inputs used by the motors and
// encoders: GPIO lines, and hardware or software PWM with the duty
// cycle expressed as a value from 0 to a maximum.

package io

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Setter is an interface for setting an output value.
// For a GPIO the value is 0 or 1, for a PWM output the value
// is the duty cycle in the range 0 to the maximum of the output.
type Setter interface {
	Set(int) error
}

// PWM is a pulse width modulated output with a fixed period.
type PWM interface {
	Setter
	Close()
}

// How long to wait for udev to make a newly exported sysfs
// attribute writable.
const exportWait = 2 * time.Second

func checkDuty(duty, max int) error {
	if duty < 0 || duty > max {
		return fmt.Errorf("%d: invalid duty cycle (range 0-%d)", duty, max)
	}
	return nil
}

// writeAttr writes a value to a sysfs attribute.
func writeAttr(name, v string) error {
	f, err := os.OpenFile(name, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, err = f.WriteString(v)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// exportUnit exports a unit through the export attribute, unless attr
// is already writable, and waits until attr can be written.
func exportUnit(export string, unit int, attr string) error {
	if unix.Access(attr, unix.W_OK) == nil {
		return nil
	}
	if err := writeAttr(export, fmt.Sprint(unit)); err != nil {
		return err
	}
	for end := time.Now().Add(exportWait); time.Now().Before(end); time.Sleep(time.Millisecond) {
		if unix.Access(attr, unix.W_OK) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: not writable", attr)
}
