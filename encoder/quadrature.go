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

// Transition table indexed by (previous state << 2) | new state,
// where a state is the 2 bit (A,B) value.
// Forward is 00 -> 01 -> 11 -> 10 -> 00.
// A skipped state (both lines changed) counts as no movement, so
// a missed edge loses a count rather than gaining one.
var transitions = [16]int64{
	0, 1, -1, 0,
	-1, 0, 0, 1,
	1, 0, 0, -1,
	0, -1, 1, 0,
}

// Quadrature decodes two sense lines that are 90 degrees out of phase.
type Quadrature struct {
	state [MaxChannels]uint8
}

// NewQuadrature returns a quadrature decoding strategy. Both lines
// of each channel are assumed initially low until seeded.
func NewQuadrature() *Quadrature {
	return new(Quadrature)
}

// Delta compares the new (A,B) state against the previous state.
func (q *Quadrature) Delta(ch Channel, a, b int) int64 {
	cur := state(a, b)
	prev := q.state[ch]
	q.state[ch] = cur
	return transitions[prev<<2|cur]
}

// Seed sets the previous state of the channel.
func (q *Quadrature) Seed(ch Channel, a, b int) {
	q.state[ch] = state(a, b)
}

func state(a, b int) uint8 {
	var s uint8
	if a != 0 {
		s |= 2
	}
	if b != 0 {
		s |= 1
	}
	return s
}
