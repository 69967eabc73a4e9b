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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeLine is an input line fed from a channel. Closing the
// channel makes Get return an error.
type fakeLine struct {
	c     chan int
	level int64
}

func newFakeLine() *fakeLine {
	return &fakeLine{c: make(chan int)}
}

func (f *fakeLine) Get() (int, error) {
	v, ok := <-f.c
	if !ok {
		return 0, errors.New("closed")
	}
	return v, nil
}

func (f *fakeLine) Level() (int, error) {
	return int(atomic.LoadInt64(&f.level)), nil
}

// set changes the level, and then signals the edge.
func (f *fakeLine) set(v int) {
	atomic.StoreInt64(&f.level, int64(v))
	f.c <- v
}

// slowLine is a line whose Level, once armed, reads the level and then
// waits to be released before returning it.
type slowLine struct {
	*fakeLine
	armed   int32
	reading chan struct{}
	release chan struct{}
}

func newSlowLine() *slowLine {
	return &slowLine{fakeLine: newFakeLine(), reading: make(chan struct{}), release: make(chan struct{})}
}

func (s *slowLine) Level() (int, error) {
	v, err := s.fakeLine.Level()
	if atomic.CompareAndSwapInt32(&s.armed, 1, 0) {
		s.reading <- struct{}{}
		<-s.release
	}
	return v, err
}

func TestWatchPulse(t *testing.T) {
	e := New("watch", NewPulse(Rising))
	in := newFakeLine()
	require.NoError(t, e.WatchPulse(Drive, in, false))
	e.SetDirection(Drive, -1)
	for i := 0; i < 5; i++ {
		in.set(1)
		in.set(0)
	}
	close(in.c)
	require.Eventually(t, func() bool { return e.Read(Drive) == -5 }, time.Second, time.Millisecond)
}

func TestWatchPulseInverted(t *testing.T) {
	e := New("watch", NewPulse(Rising))
	in := newFakeLine()
	require.NoError(t, e.WatchPulse(Steer, in, true))
	// Active low: the 1->0 transitions are counted.
	in.set(1)
	in.set(0)
	in.set(1)
	in.set(0)
	close(in.c)
	require.Eventually(t, func() bool { return e.Read(Steer) == 2 }, time.Second, time.Millisecond)
}

func TestWatchQuadrature(t *testing.T) {
	e := New("watch", NewQuadrature())
	a := newFakeLine()
	b := newFakeLine()
	require.NoError(t, e.WatchQuadrature(Right, a, b, false))
	want := int64(0)
	move := func(l *fakeLine, v int, dir int64) {
		l.set(v)
		want += dir
		w := want
		require.Eventually(t, func() bool { return e.Read(Right) == w }, time.Second, time.Millisecond)
	}
	// Two forward cycles, one reverse step.
	for i := 0; i < 2; i++ {
		move(b, 1, 1)
		move(a, 1, 1)
		move(b, 0, 1)
		move(a, 0, 1)
	}
	move(a, 1, -1)
	require.Equal(t, int64(7), e.Read(Right))
	close(a.c)
	close(b.c)
}

func TestWatchPulseSeeded(t *testing.T) {
	e := New("watch", NewPulse(Both))
	in := newFakeLine()
	atomic.StoreInt64(&in.level, 1)
	require.NoError(t, e.WatchPulse(Drive, in, false))
	// The line starts high, so the first edge is falling.
	in.set(0)
	require.Eventually(t, func() bool { return e.Read(Drive) == 1 }, time.Second, time.Millisecond)
	close(in.c)
}

func TestWatchQuadratureSeeded(t *testing.T) {
	e := New("watch", NewQuadrature())
	a := newFakeLine()
	b := newFakeLine()
	atomic.StoreInt64(&a.level, 1)
	atomic.StoreInt64(&b.level, 1)
	require.NoError(t, e.WatchQuadrature(Left, a, b, false))
	// Forward from 11: 11 -> 10 -> 00.
	b.set(0)
	require.Eventually(t, func() bool { return e.Read(Left) == 1 }, time.Second, time.Millisecond)
	a.set(0)
	require.Eventually(t, func() bool { return e.Read(Left) == 2 }, time.Second, time.Millisecond)
	close(a.c)
	close(b.c)
}

func TestWatchQuadratureDelayedSample(t *testing.T) {
	e := New("watch", NewQuadrature())
	a := newSlowLine()
	b := newFakeLine()
	require.NoError(t, e.WatchQuadrature(Left, a, b, false))
	// B rises (00 -> 01), and the read of A for that edge is held
	// while A rises (01 -> 11) and its edge is delivered.
	atomic.StoreInt32(&a.armed, 1)
	b.set(1)
	<-a.reading
	a.set(1)
	close(a.release)
	require.Eventually(t, func() bool { return e.Read(Left) == 2 }, time.Second, time.Millisecond)
	b.set(0)
	require.Eventually(t, func() bool { return e.Read(Left) == 3 }, time.Second, time.Millisecond)
	close(a.c)
	close(b.c)
}

type errLine struct{}

func (errLine) Get() (int, error)   { return 0, errors.New("closed") }
func (errLine) Level() (int, error) { return 0, errors.New("no such gpio") }

func TestWatchLevelError(t *testing.T) {
	e := New("watch", NewQuadrature())
	require.Error(t, e.WatchQuadrature(Left, newFakeLine(), errLine{}, false))
	require.Error(t, e.WatchPulse(Drive, errLine{}, false))
}
