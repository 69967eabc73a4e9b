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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Forward sequence of (A,B) states.
var forward = [4][2]int{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// stepper generates quadrature states for one channel.
type stepper struct {
	e   *Encoders
	ch  Channel
	pos int
}

func (s *stepper) step(dir int) {
	s.pos = (s.pos + dir + 4) % 4
	// pos 3 is the 00 state, which is where the decoder starts.
	st := forward[(s.pos+3)%4]
	s.e.Edge(s.ch, st[0], st[1])
}

func newStepper(e *Encoders, ch Channel) *stepper {
	return &stepper{e: e, ch: ch, pos: 0}
}

func TestQuadratureTable(t *testing.T) {
	tests := []struct {
		name       string
		prev, next [2]int
		want       int64
	}{
		{"00-01", [2]int{0, 0}, [2]int{0, 1}, 1},
		{"01-11", [2]int{0, 1}, [2]int{1, 1}, 1},
		{"11-10", [2]int{1, 1}, [2]int{1, 0}, 1},
		{"10-00", [2]int{1, 0}, [2]int{0, 0}, 1},
		{"01-00", [2]int{0, 1}, [2]int{0, 0}, -1},
		{"11-01", [2]int{1, 1}, [2]int{0, 1}, -1},
		{"10-11", [2]int{1, 0}, [2]int{1, 1}, -1},
		{"00-10", [2]int{0, 0}, [2]int{1, 0}, -1},
		{"00-11 skipped", [2]int{0, 0}, [2]int{1, 1}, 0},
		{"01-10 skipped", [2]int{0, 1}, [2]int{1, 0}, 0},
		{"11-00 skipped", [2]int{1, 1}, [2]int{0, 0}, 0},
		{"10-01 skipped", [2]int{1, 0}, [2]int{0, 1}, 0},
		{"11-11 repeat", [2]int{1, 1}, [2]int{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuadrature()
			q.Delta(Left, tt.prev[0], tt.prev[1])
			assert.Equal(t, tt.want, q.Delta(Left, tt.next[0], tt.next[1]))
		})
	}
}

func TestQuadratureForwardReverse(t *testing.T) {
	e := New("test", NewQuadrature())
	s := newStepper(e, Left)
	for i := 0; i < 37; i++ {
		s.step(1)
	}
	for i := 0; i < 12; i++ {
		s.step(-1)
	}
	require.Equal(t, int64(25), e.Read(Left))
	require.Equal(t, int64(0), e.Read(Right))
	for i := 0; i < 40; i++ {
		s.step(-1)
	}
	require.Equal(t, int64(-15), e.Read(Left))
}

func TestQuadratureSkippedState(t *testing.T) {
	e := New("test", NewQuadrature())
	e.Edge(Right, 0, 1)
	e.Edge(Right, 1, 1)
	require.Equal(t, int64(2), e.Read(Right))
	// Both lines change: missed edge, no movement.
	e.Edge(Right, 0, 0)
	require.Equal(t, int64(2), e.Read(Right))
	// Decoding continues from the new state.
	e.Edge(Right, 0, 1)
	require.Equal(t, int64(3), e.Read(Right))
}

func TestQuadratureSeed(t *testing.T) {
	for _, start := range [][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 0}} {
		e := New("test", NewQuadrature())
		e.Seed(Left, start[0], start[1])
		// One forward step from each starting state.
		s := newStepper(e, Left)
		for i, st := range forward {
			if st == start {
				s.pos = (i + 1) % 4
			}
		}
		s.step(1)
		assert.Equal(t, int64(1), e.Read(Left), "start %v", start)
		s.step(-1)
		s.step(-1)
		assert.Equal(t, int64(-1), e.Read(Left), "start %v", start)
	}
}

func TestQuadratureIgnoresDirection(t *testing.T) {
	e := New("test", NewQuadrature())
	e.SetDirection(Left, -1)
	newStepper(e, Left).step(1)
	require.Equal(t, int64(1), e.Read(Left))
}

func TestPulseDirection(t *testing.T) {
	e := New("test", NewPulse(Rising))
	e.SetDirection(Drive, -1)
	for i := 0; i < 5; i++ {
		e.Edge(Drive, 1, 0)
		e.Edge(Drive, 0, 0)
	}
	require.Equal(t, int64(-5), e.Read(Drive))
	require.Equal(t, int64(0), e.Read(Steer))

	// Direction applies to subsequent edges only.
	e.SetDirection(Drive, 1)
	e.Edge(Drive, 1, 0)
	require.Equal(t, int64(-4), e.Read(Drive))
}

func TestPulseModes(t *testing.T) {
	tests := []struct {
		name   string
		mode   int
		levels []int
		want   int64
	}{
		{"rising", Rising, []int{1, 0, 1, 0, 1}, 3},
		{"both", Both, []int{1, 0, 1, 0, 1}, 5},
		{"rising repeat", Rising, []int{1, 1, 1, 0, 0}, 1},
		{"both repeat", Both, []int{1, 1, 0, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New("test", NewPulse(tt.mode))
			for _, l := range tt.levels {
				e.Edge(Steer, l, 0)
			}
			assert.Equal(t, tt.want, e.Read(Steer))
		})
	}
}

func TestSetDirectionNormalised(t *testing.T) {
	e := New("test", NewPulse(Both))
	e.SetDirection(Left, -7)
	e.Edge(Left, 1, 0)
	require.Equal(t, int64(-1), e.Read(Left))
	// Zero leaves the direction unchanged.
	e.SetDirection(Left, 0)
	e.Edge(Left, 0, 0)
	require.Equal(t, int64(-2), e.Read(Left))
	e.SetDirection(Left, 3)
	e.Edge(Left, 1, 0)
	require.Equal(t, int64(-1), e.Read(Left))
}

func TestReset(t *testing.T) {
	e := New("test", NewPulse(Rising))
	for i := 0; i < 3; i++ {
		e.Edge(Left, 1, 0)
		e.Edge(Left, 0, 0)
		e.Edge(Right, 1, 0)
		e.Edge(Right, 0, 0)
	}
	e.SetDirection(Right, -1)
	e.Reset(Left)
	assert.Equal(t, int64(0), e.Read(Left))
	assert.Equal(t, int64(3), e.Read(Right))

	// Reset does not change the direction.
	e.Edge(Right, 1, 0)
	assert.Equal(t, int64(2), e.Read(Right))

	e.ResetAll()
	assert.Equal(t, int64(0), e.Read(Left))
	assert.Equal(t, int64(0), e.Read(Right))
}

func TestInvalidChannel(t *testing.T) {
	e := New("test", NewPulse(Rising))
	e.Edge(Channel(2), 1, 0)
	e.Edge(Channel(-1), 1, 0)
	e.Reset(Channel(5))
	e.SetDirection(Channel(5), -1)
	assert.Equal(t, int64(0), e.Read(Channel(2)))
	assert.Equal(t, int64(0), e.Read(Left))
	assert.Equal(t, int64(0), e.Read(Right))
}

func TestConcurrentEdges(t *testing.T) {
	const fwd = 10000
	const rev = 3000
	e := New("test", NewQuadrature())
	var wg sync.WaitGroup
	done := make(chan struct{})
	// Readers running while edges are delivered.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					v := e.Read(Left)
					if v < -rev || v > fwd {
						t.Errorf("read out of range: %d", v)
						return
					}
				}
			}
		}()
	}
	s := newStepper(e, Left)
	for i := 0; i < fwd; i++ {
		s.step(1)
	}
	for i := 0; i < rev; i++ {
		s.step(-1)
	}
	close(done)
	wg.Wait()
	require.Equal(t, int64(fwd-rev), e.Read(Left))
}

func TestConcurrentResetAll(t *testing.T) {
	const pulses = 5000
	e := New("test", NewPulse(Rising))
	var wg sync.WaitGroup
	for _, ch := range []Channel{Left, Right} {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			for i := 0; i < pulses; i++ {
				e.Edge(ch, 1, 0)
				e.Edge(ch, 0, 0)
			}
		}(ch)
	}
	for i := 0; i < 100; i++ {
		e.ResetAll()
	}
	wg.Wait()
	// Every edge was applied either before or after a reset, never lost
	// to a partial update, so the counts remain in range.
	for _, ch := range []Channel{Left, Right} {
		v := e.Read(ch)
		assert.True(t, v >= 0 && v <= pulses, "channel %d count %d", ch, v)
	}
	e.ResetAll()
	e.Edge(Left, 1, 0)
	assert.Equal(t, int64(1), e.Read(Left))
	assert.Equal(t, int64(0), e.Read(Right))
}
