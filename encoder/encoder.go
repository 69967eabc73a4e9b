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

// Package encoder maintains signed tick counters for wheel encoders.

package encoder

import (
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// Channel identifies an encoder.
type Channel int

const (
	Left  Channel = 0
	Right Channel = 1
	// Single encoder (drive/steer) topology.
	Drive Channel = 0
	Steer Channel = 1
)

// MaxChannels is the number of encoder channels supported.
const MaxChannels = 2

// Strategy decodes edges into counter changes.
// a and b are the levels of the sense lines sampled when an edge
// was seen; single line strategies ignore b.
// Delta is always called with the Encoders critical section held,
// so implementations need no locking of their own.
type Strategy interface {
	Delta(ch Channel, a, b int) int64
}

// Seeder is implemented by strategies that remember the previous
// line levels, so that the first edge is decoded against the levels
// the lines actually started at.
type Seeder interface {
	Seed(ch Channel, a, b int)
}

// Director is implemented by strategies that take their direction
// from an external source rather than from the encoder lines.
type Director interface {
	SetDirection(ch Channel, dir int)
}

// Encoders holds the tick counters for all channels.
// Edges are delivered asynchronously (from the input watchers),
// while the counters are read and reset by the control loop.
// Counters are int64 and may be read atomically at any time; anything
// that modifies a counter runs inside the critical section so that
// an edge can never be applied to a value that is being reset.
// Counter wraparound is not checked; 64 bits will not wrap in the
// life of a robot.
type Encoders struct {
	Name     string
	mu       sync.Mutex // Critical section for edges and resets
	strategy Strategy
	count    [MaxChannels]int64
}

// New creates a set of encoder counters using the decoding strategy.
func New(name string, s Strategy) *Encoders {
	e := new(Encoders)
	e.Name = name
	e.strategy = s
	return e
}

// Edge applies the sampled line levels of a channel to its counter.
func (e *Encoders) Edge(ch Channel, a, b int) {
	if !valid(ch) {
		return
	}
	e.mu.Lock()
	e.apply(ch, a, b)
	e.mu.Unlock()
}

// Seed sets the starting line levels of a channel without counting.
// It has no effect if the strategy keeps no line state.
func (e *Encoders) Seed(ch Channel, a, b int) {
	s, ok := e.strategy.(Seeder)
	if !ok || !valid(ch) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s.Seed(ch, a, b)
}

// apply decodes the levels and updates the counter.
// Must be called with the critical section held.
func (e *Encoders) apply(ch Channel, a, b int) {
	d := e.strategy.Delta(ch, a, b)
	if d != 0 {
		atomic.AddInt64(&e.count[ch], d)
	}
	log.Debugf("%s: enc %d a=%d b=%d, delta %d", e.Name, ch, a, b, d)
}

// Read returns the current tick count of the channel.
func (e *Encoders) Read(ch Channel) int64 {
	if !valid(ch) {
		return 0
	}
	return atomic.LoadInt64(&e.count[ch])
}

// Reset zeroes the tick count of one channel.
func (e *Encoders) Reset(ch Channel) {
	if !valid(ch) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	atomic.StoreInt64(&e.count[ch], 0)
}

// ResetAll zeroes all of the tick counters as a single operation.
func (e *Encoders) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.count {
		atomic.StoreInt64(&e.count[i], 0)
	}
}

// SetDirection sets the direction used to count edges when the
// strategy does not derive direction from the encoder itself.
// Only the sign of dir is used; 0 leaves the direction unchanged.
// The direction is trusted and is not checked against the rotation
// of the wheel.
func (e *Encoders) SetDirection(ch Channel, dir int) {
	d, ok := e.strategy.(Director)
	if !ok || !valid(ch) || dir == 0 {
		return
	}
	if dir < 0 {
		dir = -1
	} else {
		dir = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d.SetDirection(ch, dir)
}

func valid(ch Channel) bool {
	return ch >= 0 && ch < MaxChannels
}
