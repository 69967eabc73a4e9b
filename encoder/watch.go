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

// Encoder line watchers.

package encoder

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Input is an encoder sense line.
// Get waits for the line to change and returns the new value.
// Level returns the current value without waiting.
type Input interface {
	Get() (int, error)
	Level() (int, error)
}

// WatchPulse seeds the channel from the current level of a single
// sense line, and starts a goroutine delivering its edges.
// If invert is set, the line is active low.
func (e *Encoders) WatchPulse(ch Channel, in Input, invert bool) error {
	v, err := level(in, invert)
	if err != nil {
		return fmt.Errorf("encoder %d: %v", ch, err)
	}
	e.Seed(ch, v, 0)
	go e.watchPulse(ch, in, invert)
	return nil
}

// WatchQuadrature seeds the channel from the current levels of both
// lines of a quadrature encoder, and starts a goroutine per line.
// When either line changes, both lines are sampled inside the
// critical section so that states are decoded in the order the
// lines actually moved, regardless of which goroutine runs first.
func (e *Encoders) WatchQuadrature(ch Channel, a, b Input, invert bool) error {
	va, err := level(a, invert)
	if err != nil {
		return fmt.Errorf("encoder %d: line A: %v", ch, err)
	}
	vb, err := level(b, invert)
	if err != nil {
		return fmt.Errorf("encoder %d: line B: %v", ch, err)
	}
	e.Seed(ch, va, vb)
	go e.watchQuadrature(ch, a, a, b, invert)
	go e.watchQuadrature(ch, b, a, b, invert)
	return nil
}

// watchPulse is the goroutine servicing a single sense line, and is the
// equivalent of a pin change interrupt handler.
// The goroutine exits when the line reports an error, which is
// usually because it has been closed.
func (e *Encoders) watchPulse(ch Channel, in Input, invert bool) {
	for {
		v, err := in.Get()
		if err != nil {
			log.Printf("%s: encoder %d input: %v", e.Name, ch, err)
			return
		}
		if invert {
			v ^= 1
		}
		e.Edge(ch, v, 0)
	}
}

// watchQuadrature waits for edges on one line (in) of a quadrature
// encoder, and samples both lines for each edge.
func (e *Encoders) watchQuadrature(ch Channel, in, a, b Input, invert bool) {
	for {
		_, err := in.Get()
		if err == nil {
			err = e.sample(ch, a, b, invert)
		}
		if err != nil {
			log.Printf("%s: encoder %d input: %v", e.Name, ch, err)
			return
		}
	}
}

// sample reads both lines and applies them to the channel, all
// inside the critical section.
func (e *Encoders) sample(ch Channel, a, b Input, invert bool) error {
	if !valid(ch) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	va, err := level(a, invert)
	if err != nil {
		return err
	}
	vb, err := level(b, invert)
	if err != nil {
		return err
	}
	e.apply(ch, va, vb)
	return nil
}

func level(in Input, invert bool) (int, error) {
	v, err := in.Level()
	if err != nil {
		return 0, err
	}
	if invert {
		v ^= 1
	}
	return v, nil
}
