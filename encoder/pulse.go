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

package encoder

// Edge modes for pulse counting.
const (
	Rising = iota // Count 0->1 transitions only
	Both          // Count every transition
)

// Pulse counts edges of a single sense line, using a direction
// set externally (usually following the commanded motor direction).
type Pulse struct {
	mode  int
	dir   [MaxChannels]int64
	level [MaxChannels]int
}

// NewPulse returns a pulse counting strategy. All channels
// initially count forwards.
func NewPulse(mode int) *Pulse {
	p := new(Pulse)
	p.mode = mode
	for i := range p.dir {
		p.dir[i] = 1
	}
	return p
}

// Delta returns the direction for a counted edge on line a.
// A level the same as the last one seen is not an edge.
func (p *Pulse) Delta(ch Channel, a, b int) int64 {
	if a != 0 {
		a = 1
	}
	last := p.level[ch]
	p.level[ch] = a
	if a == last {
		return 0
	}
	if p.mode == Rising && a == 0 {
		return 0
	}
	return p.dir[ch]
}

// Seed sets the last seen level of the line.
func (p *Pulse) Seed(ch Channel, a, b int) {
	if a != 0 {
		a = 1
	}
	p.level[ch] = a
}

// SetDirection sets the counting direction (+1 or -1) of the channel.
func (p *Pulse) SetDirection(ch Channel, dir int) {
	p.dir[ch] = int64(dir)
}
