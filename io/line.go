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
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	gpio "github.com/aamcrae/gpio"
)

// pollTimeout bounds each wait for an edge, so that a closed line is
// noticed by a goroutine blocked in Get.
const pollTimeout = 100 * time.Millisecond

const gpioValueFile = "/sys/class/gpio/gpio%d/value"

// ErrClosed is returned by Get once the line has been closed.
var ErrClosed = errors.New("line closed")

// edgePin is the edge detecting part of a GPIO.
type edgePin interface {
	GetTimeout(time.Duration) (int, error)
	Close()
}

// levelFile is read to sample the GPIO level.
type levelFile interface {
	ReadAt([]byte, int64) (int, error)
	Close() error
}

// Line is a GPIO input with edge detection on both edges.
// Get waits for an edge; Level samples the input without waiting,
// using a separate descriptor so that a pending edge is not consumed.
type Line struct {
	number int
	pin    edgePin
	value  levelFile
	mu     sync.Mutex // Held while the pin is polled
	closed int32
}

// InputLine opens a GPIO as an edge triggered input.
func InputLine(n int) (*Line, error) {
	p, err := gpio.Pin(n)
	if err != nil {
		return nil, err
	}
	if err := p.Edge(gpio.BOTH); err != nil {
		p.Close()
		return nil, fmt.Errorf("gpio%d: edge: %v", n, err)
	}
	f, err := os.Open(fmt.Sprintf(gpioValueFile, n))
	if err != nil {
		p.Close()
		return nil, err
	}
	return newLine(n, p, f), nil
}

func newLine(n int, p edgePin, v levelFile) *Line {
	return &Line{number: n, pin: p, value: v}
}

// Number returns the GPIO number of the line.
func (l *Line) Number() int {
	return l.number
}

// Get waits for the line to change, and returns the new value.
// ErrClosed is returned if the line is closed while waiting.
func (l *Line) Get() (int, error) {
	for {
		l.mu.Lock()
		if atomic.LoadInt32(&l.closed) != 0 {
			l.mu.Unlock()
			return 0, ErrClosed
		}
		v, err := l.pin.GetTimeout(pollTimeout)
		l.mu.Unlock()
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		return v, err
	}
}

// Level returns the current value of the line.
func (l *Line) Level() (int, error) {
	b := make([]byte, 1)
	if _, err := l.value.ReadAt(b, 0); err != nil {
		return 0, err
	}
	switch b[0] {
	case '0':
		return 0, nil
	case '1':
		return 1, nil
	}
	return 0, fmt.Errorf("gpio%d: unknown value %q", l.number, b)
}

// Close releases the GPIO. A goroutine waiting in Get returns
// ErrClosed within the poll timeout.
func (l *Line) Close() {
	if !atomic.CompareAndSwapInt32(&l.closed, 0, 1) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value.Close()
	l.pin.Close()
}

// OutputPin opens a GPIO as an output, initially driven low.
func OutputPin(n int) (*gpio.Gpio, error) {
	g, err := gpio.OutputPin(n)
	if err != nil {
		return nil, err
	}
	if err := g.Set(0); err != nil {
		g.Close()
		return nil, fmt.Errorf("gpio%d: %v", n, err)
	}
	return g, nil
}
