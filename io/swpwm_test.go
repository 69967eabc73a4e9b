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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPin struct {
	mu    sync.Mutex
	value int
	highs int
}

func (p *testPin) Set(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v != 0 && p.value == 0 {
		p.highs++
	}
	p.value = v
	return nil
}

func (p *testPin) get() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.highs
}

func TestSwPwmRange(t *testing.T) {
	_, err := NewSwPWM(&testPin{}, time.Millisecond, 0)
	assert.Error(t, err)
	_, err = NewSwPWM(&testPin{}, 0, 255)
	assert.Error(t, err)

	p, err := NewSwPWM(&testPin{}, time.Millisecond, 255)
	require.NoError(t, err)
	defer p.Close()
	assert.NoError(t, p.Set(0))
	assert.NoError(t, p.Set(255))
	assert.Error(t, p.Set(256))
	assert.Error(t, p.Set(-1))
}

func TestSwPwmOutput(t *testing.T) {
	pin := &testPin{}
	p, err := NewSwPWM(pin, time.Millisecond, 100)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, highs := pin.get()
	assert.Equal(t, 0, highs, "output driven with 0 duty cycle")

	require.NoError(t, p.Set(50))
	require.Eventually(t, func() bool {
		_, h := pin.get()
		return h >= 3
	}, time.Second, time.Millisecond)

	p.Close()
	v, _ := pin.get()
	assert.Equal(t, 0, v)
}
